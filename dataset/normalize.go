package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Alias priority per canonical field. Order matters: the first alias
// with a non-empty value wins.
var (
	queryAliases   = []string{"query", "keyword", "term", "search_term"}
	dateAliases    = []string{"snapshot_date", "date", "week", "week_id", "period"}
	regionAliases  = []string{"region", "region_name", "geo"}
	indexAliases   = []string{"search_index", "index", "score"}
	mixAliases     = []string{"branding_mix", "mix_share", "implied_unit_sales_impact", "metric"}
	notableAliases = []string{"notable_driver", "notable_event", "notes", "channel_checks", "processing_notes"}

	// Last-resort query derivation before the source file name.
	queryFallbackAliases = []string{"provider", "category", "topic"}
)

// Normalize derives a canonical row from one raw vendor record. The
// same rules apply to every source format. Numeric coercion never
// fails the record: un-coercible or non-finite values are omitted.
func Normalize(raw map[string]any, sourceFile, sourceFormat string) Row {
	row := Row{
		SourceFile:   sourceFile,
		SourceFormat: sourceFormat,
	}

	row.SnapshotDate = stringField(raw, "snapshot_date")
	row.Date = firstString(raw, dateAliases...)
	if row.SnapshotDate == "" {
		row.SnapshotDate = row.Date
	}
	row.Region = firstString(raw, regionAliases...)
	row.SearchIndex = coerceInt(firstValue(raw, indexAliases...))
	row.BrandingMix = coerceFloat(firstValue(raw, mixAliases...))
	row.NotableEvent = firstString(raw, notableAliases...)

	route := stringField(raw, "route")
	airline := stringField(raw, "airline")
	season := stringField(raw, "season")

	query := firstString(raw, queryAliases...)
	if query == "" && (route != "" || airline != "") {
		query = joinNonEmpty(route, airline, season)
	}
	if query == "" {
		query = firstString(raw, queryFallbackAliases...)
	}
	if query == "" {
		query = sourceFile
	}
	row.Query = query

	if route != "" {
		row.Route = route
		// "JFK-LHR" style routes split on the first dash.
		if i := strings.Index(route, "-"); i >= 0 {
			row.OriginAirport = strings.TrimSpace(route[:i])
			row.DestinationAirport = strings.TrimSpace(route[i+1:])
		}
	}
	row.Airline = airline
	row.Season = season

	row.AvgFareUSD = coerceFloat(raw["avg_fare_usd"])
	row.PremiumFareUSD = coerceFloat(raw["premium_fare_usd"])
	row.FareYoYPct = coerceFloat(raw["fare_yoy_pct"])
	row.AdvancePurchaseDays = coerceInt(raw["advance_purchase_days"])
	row.LoadFactorPct = coerceFloat(raw["load_factor_pct"])
	row.AncillaryRevenuePct = coerceFloat(raw["ancillary_revenue_pct"])

	// notable_driver takes final precedence even when another alias
	// matched first.
	if driver := stringField(raw, "notable_driver"); driver != "" {
		row.NotableDriver = driver
		row.NotableEvent = driver
	}

	if v, ok := nonEmptyValue(raw, "linked_tickers"); ok {
		row.LinkedTickers = v
	}
	if v, ok := nonEmptyValue(raw, "provider"); ok {
		row.Provider = v
	}
	if v, ok := nonEmptyValue(raw, "collection_window"); ok {
		row.CollectionWindow = v
	}
	if v, ok := nonEmptyValue(raw, "query_count"); ok {
		row.QueryCount = v
	}
	if v, ok := nonEmptyValue(raw, "week_id"); ok {
		row.WeekID = v
	}

	return row
}

// firstString returns the first alias whose value renders to a
// non-empty trimmed string.
func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringField(raw, key); s != "" {
			return s
		}
	}
	return ""
}

// firstValue returns the first alias present with a non-empty value.
func firstValue(raw map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := nonEmptyValue(raw, key); ok {
			return v
		}
	}
	return nil
}

func nonEmptyValue(raw map[string]any, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func stringField(raw map[string]any, key string) string {
	return asString(raw[key])
}

// asString renders a raw value as a trimmed string. JSON numbers are
// rendered without a trailing ".0" so week ids like 34 read as "34".
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, " ")
}

func coerceInt(v any) *int {
	switch t := v.(type) {
	case int:
		n := t
		return &n
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		n := int(t)
		return &n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

func coerceFloat(v any) *float64 {
	switch t := v.(type) {
	case int:
		f := float64(t)
		return &f
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		f := t
		return &f
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}
