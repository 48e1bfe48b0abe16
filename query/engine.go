package query

import (
	"sort"
	"strings"
	"time"

	"github.com/jonwraymond/trendgate/dataset"
)

// Criteria is the caller-supplied filter set. Every field is optional;
// the filters AND-combine. Limit is nil when the caller did not
// request one, in which case the engine's default applies.
type Criteria struct {
	SnapshotDate       string
	RouteContains      string
	OriginAirport      string
	DestinationAirport string
	AirlineContains    string
	SeasonContains     string
	NotableContains    string
	Limit              *int
}

// Filters echoes the normalized filter values a query actually
// applied, including the clamped limit.
type Filters struct {
	SnapshotDate       string `json:"snapshot_date,omitempty"`
	RouteContains      string `json:"route_contains,omitempty"`
	OriginAirport      string `json:"origin_airport,omitempty"`
	DestinationAirport string `json:"destination_airport,omitempty"`
	AirlineContains    string `json:"airline_contains,omitempty"`
	SeasonContains     string `json:"season_contains,omitempty"`
	NotableContains    string `json:"notable_contains,omitempty"`
	Limit              int    `json:"limit"`
}

// Result is the query envelope. It is constructed fresh per call and
// reports counts at every stage: before filtering, after filtering,
// and after the limit.
type Result struct {
	Rows           []dataset.Row `json:"rows"`
	AvailableFiles []string      `json:"available_files"`
	Filters        Filters       `json:"filters"`
	TotalRows      int           `json:"total_rows"`
	MatchedRows    int           `json:"matched_rows"`
	RowsReturned   int           `json:"rows_returned"`
	TrendDataDir   string        `json:"trend_data_dir"`
}

// Config bounds result pagination.
type Config struct {
	// DefaultLimit applies when the caller requests no limit.
	// Default: 25
	DefaultLimit int

	// MaxLimit caps any requested limit.
	// Default: 200
	MaxLimit int
}

// Engine answers filtered, sorted, paginated queries over a row set.
type Engine struct {
	config Config
}

// NewEngine creates a query engine.
func NewEngine(config Config) *Engine {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 25
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 200
	}
	return &Engine{config: config}
}

// Query filters the rows per the criteria, sorts the matches by
// snapshot date descending (undated rows last) then route-or-query
// then airline ascending, and slices to the effective limit.
func (e *Engine) Query(rows []dataset.Row, availableFiles []string, dataDir string, criteria Criteria) *Result {
	snapshotFilter, _, haveSnapshot := dataset.ParseFlexibleDate(criteria.SnapshotDate)
	routeFilter := normalize(criteria.RouteContains)
	originFilter := normalize(criteria.OriginAirport)
	destinationFilter := normalize(criteria.DestinationAirport)
	airlineFilter := normalize(criteria.AirlineContains)
	seasonFilter := normalize(criteria.SeasonContains)
	notableFilter := normalize(criteria.NotableContains)

	matched := make([]dataset.Row, 0, len(rows))
	for _, row := range rows {
		if haveSnapshot {
			rowDate, _, ok := dataset.ParseFlexibleDate(row.SnapshotDate)
			if !ok || !dataset.SameDate(rowDate, snapshotFilter) {
				continue
			}
		}
		if routeFilter != "" {
			target := row.Route
			if target == "" {
				target = row.Query
			}
			if !strings.Contains(strings.ToLower(target), routeFilter) {
				continue
			}
		}
		if originFilter != "" && strings.ToLower(row.OriginAirport) != originFilter {
			continue
		}
		if destinationFilter != "" && strings.ToLower(row.DestinationAirport) != destinationFilter {
			continue
		}
		if airlineFilter != "" && !strings.Contains(strings.ToLower(row.Airline), airlineFilter) {
			continue
		}
		if seasonFilter != "" && !strings.Contains(strings.ToLower(row.Season), seasonFilter) {
			continue
		}
		if notableFilter != "" && !strings.Contains(strings.ToLower(row.NotableEvent), notableFilter) {
			continue
		}
		matched = append(matched, row)
	}

	sortRows(matched)

	limit := e.config.DefaultLimit
	if criteria.Limit != nil {
		limit = *criteria.Limit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > e.config.MaxLimit {
		limit = e.config.MaxLimit
	}

	limited := matched
	if len(limited) > limit {
		limited = limited[:limit]
	}

	return &Result{
		Rows:           limited,
		AvailableFiles: availableFiles,
		Filters: Filters{
			SnapshotDate:       strings.TrimSpace(criteria.SnapshotDate),
			RouteContains:      strings.TrimSpace(criteria.RouteContains),
			OriginAirport:      strings.TrimSpace(criteria.OriginAirport),
			DestinationAirport: strings.TrimSpace(criteria.DestinationAirport),
			AirlineContains:    strings.TrimSpace(criteria.AirlineContains),
			SeasonContains:     strings.TrimSpace(criteria.SeasonContains),
			NotableContains:    strings.TrimSpace(criteria.NotableContains),
			Limit:              limit,
		},
		TotalRows:    len(rows),
		MatchedRows:  len(matched),
		RowsReturned: len(limited),
		TrendDataDir: dataDir,
	}
}

func normalize(filter string) string {
	return strings.ToLower(strings.TrimSpace(filter))
}

type sortableRow struct {
	row   dataset.Row
	date  time.Time
	dated bool
}

func sortRows(rows []dataset.Row) {
	keyed := make([]sortableRow, len(rows))
	for i, row := range rows {
		date, _, ok := dataset.ParseFlexibleDate(row.SnapshotDate)
		keyed[i] = sortableRow{row: row, date: date, dated: ok}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if a.dated != b.dated {
			return a.dated // dated rows before undated
		}
		if a.dated && !a.date.Equal(b.date) {
			return b.date.Before(a.date) // newest first
		}
		if ak, bk := routeKey(a.row), routeKey(b.row); ak != bk {
			return ak < bk
		}
		return a.row.Airline < b.row.Airline
	})

	for i, k := range keyed {
		rows[i] = k.row
	}
}

func routeKey(row dataset.Row) string {
	if row.Route != "" {
		return row.Route
	}
	return row.Query
}
