package query

import (
	"testing"

	"github.com/jonwraymond/trendgate/dataset"
)

func row(route, airline, snapshotDate string) dataset.Row {
	raw := map[string]any{}
	if route != "" {
		raw["route"] = route
	}
	if airline != "" {
		raw["airline"] = airline
	}
	if snapshotDate != "" {
		raw["snapshot_date"] = snapshotDate
	}
	return dataset.Normalize(raw, "test.csv", "csv")
}

func intp(n int) *int { return &n }

func TestEngine_OriginFilterCaseInsensitive(t *testing.T) {
	rows := []dataset.Row{
		row("JFK-LHR", "Acme Air", "2024-08-19"),
		row("JFK-CDG", "Acme Air", "2024-08-19"),
		row("JFK-NRT", "Pacific Blue", "2024-08-19"),
		row("BOS-LHR", "Acme Air", "2024-08-19"),
		row("SFO-NRT", "Pacific Blue", "2024-08-19"),
		row("LAX-SYD", "Pacific Blue", "2024-08-19"),
		row("SEA-ANC", "Northern", "2024-08-19"),
		row("ORD-FRA", "Acme Air", "2024-08-19"),
		row("DEN-PHX", "Canyon", "2024-08-19"),
		row("MIA-GRU", "Canyon", "2024-08-19"),
	}

	result := NewEngine(Config{}).Query(rows, nil, "/data", Criteria{OriginAirport: "jfk"})
	if result.MatchedRows != 3 {
		t.Fatalf("MatchedRows = %d, want 3", result.MatchedRows)
	}
	for _, r := range result.Rows {
		if r.OriginAirport != "JFK" {
			t.Errorf("unexpected row %q", r.Route)
		}
	}
	if result.TotalRows != 10 {
		t.Errorf("TotalRows = %d, want 10", result.TotalRows)
	}
}

func TestEngine_SubstringFilters(t *testing.T) {
	rows := []dataset.Row{
		row("JFK-LHR", "Acme Air", "2024-08-19"),
		row("SFO-NRT", "Pacific Blue", "2024-08-19"),
	}
	engine := NewEngine(Config{})

	t.Run("airline substring", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{AirlineContains: "pacific"})
		if result.MatchedRows != 1 || result.Rows[0].Route != "SFO-NRT" {
			t.Errorf("matched = %d", result.MatchedRows)
		}
	})

	t.Run("route substring falls back to query", func(t *testing.T) {
		noRoute := dataset.Normalize(map[string]any{"query": "cheap flights to lhr"}, "q.csv", "csv")
		result := engine.Query([]dataset.Row{noRoute}, nil, "/data", Criteria{RouteContains: "LHR"})
		if result.MatchedRows != 1 {
			t.Errorf("matched = %d, want the query-text fallback to hit", result.MatchedRows)
		}
	})

	t.Run("notable substring", func(t *testing.T) {
		noted := dataset.Normalize(map[string]any{"route": "JFK-MIA", "notable_driver": "Hurricane rebooking"}, "n.csv", "csv")
		result := engine.Query([]dataset.Row{noted}, nil, "/data", Criteria{NotableContains: "hurricane"})
		if result.MatchedRows != 1 {
			t.Errorf("matched = %d", result.MatchedRows)
		}
	})
}

func TestEngine_SnapshotDateFilter(t *testing.T) {
	rows := []dataset.Row{
		row("JFK-LHR", "Acme Air", "2024-08-19"),
		row("JFK-LHR", "Acme Air", "2024-08-12"),
		row("JFK-LHR", "Acme Air", ""), // undated never matches
	}
	engine := NewEngine(Config{})

	t.Run("exact date", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{SnapshotDate: "2024-08-19"})
		if result.MatchedRows != 1 {
			t.Errorf("MatchedRows = %d, want 1", result.MatchedRows)
		}
	})

	t.Run("iso week resolves to its Monday", func(t *testing.T) {
		weekRow := row("SFO-NRT", "Pacific Blue", "2024-W34")
		result := engine.Query([]dataset.Row{weekRow}, nil, "/data", Criteria{SnapshotDate: "2024-08-19"})
		if result.MatchedRows != 1 {
			t.Errorf("MatchedRows = %d, want the W34 row to match its Monday", result.MatchedRows)
		}
	})

	t.Run("unparsable filter applies no date predicate", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{SnapshotDate: "whenever"})
		if result.MatchedRows != len(rows) {
			t.Errorf("MatchedRows = %d, want all rows", result.MatchedRows)
		}
	})
}

func TestEngine_Sorting(t *testing.T) {
	rows := []dataset.Row{
		row("SFO-NRT", "Pacific Blue", "2024-08-12"),
		row("JFK-LHR", "Beta Wings", "2024-08-19"),
		row("JFK-LHR", "Acme Air", "2024-08-19"),
		row("AMS-DXB", "", ""),
		row("BOS-SEA", "Acme Air", "2024-08-19"),
	}

	result := NewEngine(Config{}).Query(rows, nil, "/data", Criteria{})
	got := make([]string, 0, len(result.Rows))
	for _, r := range result.Rows {
		got = append(got, r.Route+"/"+r.Airline)
	}

	want := []string{
		"BOS-SEA/Acme Air",  // newest date, route asc
		"JFK-LHR/Acme Air",  // airline breaks the route tie
		"JFK-LHR/Beta Wings",
		"SFO-NRT/Pacific Blue", // older date
		"AMS-DXB/",             // undated sorts last
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sort order = %v, want %v", got, want)
		}
	}
}

func TestEngine_LimitClamp(t *testing.T) {
	rows := make([]dataset.Row, 50)
	for i := range rows {
		rows[i] = row("JFK-LHR", "Acme Air", "2024-08-19")
	}
	engine := NewEngine(Config{DefaultLimit: 25, MaxLimit: 200})

	t.Run("default when absent", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{})
		if result.RowsReturned != 25 || result.Filters.Limit != 25 {
			t.Errorf("RowsReturned = %d, Filters.Limit = %d", result.RowsReturned, result.Filters.Limit)
		}
	})

	t.Run("oversized request clamps to max", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{Limit: intp(1000)})
		if result.Filters.Limit != 200 {
			t.Errorf("Filters.Limit = %d, want 200", result.Filters.Limit)
		}
		if result.RowsReturned != 50 {
			t.Errorf("RowsReturned = %d, want all 50 matches", result.RowsReturned)
		}
	})

	t.Run("zero clamps to one", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{Limit: intp(0)})
		if result.RowsReturned != 1 || result.Filters.Limit != 1 {
			t.Errorf("RowsReturned = %d, Filters.Limit = %d, want 1/1", result.RowsReturned, result.Filters.Limit)
		}
	})

	t.Run("negative clamps to one", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{Limit: intp(-5)})
		if result.RowsReturned != 1 {
			t.Errorf("RowsReturned = %d, want 1", result.RowsReturned)
		}
	})

	t.Run("counts reported at every stage", func(t *testing.T) {
		result := engine.Query(rows, nil, "/data", Criteria{Limit: intp(10)})
		if result.TotalRows != 50 || result.MatchedRows != 50 || result.RowsReturned != 10 {
			t.Errorf("counts = %d/%d/%d", result.TotalRows, result.MatchedRows, result.RowsReturned)
		}
	})
}

func TestEngine_EchoesNormalizedFilters(t *testing.T) {
	result := NewEngine(Config{}).Query(nil, []string{"a.csv"}, "/data", Criteria{
		RouteContains: "  JFK ",
		Limit:         intp(500),
	})
	if result.Filters.RouteContains != "JFK" {
		t.Errorf("RouteContains echo = %q, want trimmed", result.Filters.RouteContains)
	}
	if result.Filters.Limit != 200 {
		t.Errorf("Limit echo = %d, want the clamped value", result.Filters.Limit)
	}
	if len(result.AvailableFiles) != 1 || result.AvailableFiles[0] != "a.csv" {
		t.Errorf("AvailableFiles = %v", result.AvailableFiles)
	}
	if result.TrendDataDir != "/data" {
		t.Errorf("TrendDataDir = %q", result.TrendDataDir)
	}
}
