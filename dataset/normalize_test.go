package dataset

import (
	"testing"
)

func TestNormalize_RouteDerivation(t *testing.T) {
	row := Normalize(map[string]any{
		"route":   "JFK-LHR",
		"airline": "Acme Air",
		"season":  "Summer",
	}, "fares.csv", "csv")

	if row.Route != "JFK-LHR" {
		t.Errorf("Route = %q, want JFK-LHR", row.Route)
	}
	if row.OriginAirport != "JFK" {
		t.Errorf("OriginAirport = %q, want JFK", row.OriginAirport)
	}
	if row.DestinationAirport != "LHR" {
		t.Errorf("DestinationAirport = %q, want LHR", row.DestinationAirport)
	}
	if row.Airline != "Acme Air" {
		t.Errorf("Airline = %q, want Acme Air", row.Airline)
	}
	if row.Season != "Summer" {
		t.Errorf("Season = %q, want Summer", row.Season)
	}
	if row.Query != "JFK-LHR Acme Air Summer" {
		t.Errorf("Query = %q, want the space-joined route/airline/season", row.Query)
	}
}

func TestNormalize_QueryPrecedence(t *testing.T) {
	t.Run("explicit query wins", func(t *testing.T) {
		row := Normalize(map[string]any{"query": "paris flights", "keyword": "ignored"}, "f.csv", "csv")
		if row.Query != "paris flights" {
			t.Errorf("Query = %q", row.Query)
		}
	})

	t.Run("keyword alias", func(t *testing.T) {
		row := Normalize(map[string]any{"keyword": "rome hotels"}, "f.csv", "csv")
		if row.Query != "rome hotels" {
			t.Errorf("Query = %q", row.Query)
		}
	})

	t.Run("provider fallback", func(t *testing.T) {
		row := Normalize(map[string]any{"provider": "TrendCo"}, "f.csv", "csv")
		if row.Query != "TrendCo" {
			t.Errorf("Query = %q", row.Query)
		}
	})

	t.Run("source file name is the last resort", func(t *testing.T) {
		row := Normalize(map[string]any{}, "mystery.json", "json")
		if row.Query != "mystery.json" {
			t.Errorf("Query = %q, want the source file name", row.Query)
		}
	})
}

func TestNormalize_Dates(t *testing.T) {
	t.Run("snapshot date preferred", func(t *testing.T) {
		row := Normalize(map[string]any{"snapshot_date": "2024-08-19", "date": "2024-01-01"}, "f.csv", "csv")
		if row.SnapshotDate != "2024-08-19" || row.Date != "2024-08-19" {
			t.Errorf("SnapshotDate = %q, Date = %q", row.SnapshotDate, row.Date)
		}
	})

	t.Run("week backs an absent snapshot date", func(t *testing.T) {
		row := Normalize(map[string]any{"week": "2024-W34"}, "f.csv", "csv")
		if row.Date != "2024-W34" {
			t.Errorf("Date = %q, want 2024-W34", row.Date)
		}
		if row.SnapshotDate != "2024-W34" {
			t.Errorf("SnapshotDate = %q, want the date fallback", row.SnapshotDate)
		}
	})

	t.Run("numeric week id", func(t *testing.T) {
		row := Normalize(map[string]any{"week_id": float64(34)}, "f.json", "json")
		if row.Date != "34" {
			t.Errorf("Date = %q, want \"34\"", row.Date)
		}
		if row.WeekID != float64(34) {
			t.Errorf("WeekID = %v, want the verbatim value", row.WeekID)
		}
	})
}

func TestNormalize_NotableDriverPrecedence(t *testing.T) {
	row := Normalize(map[string]any{
		"notes":          "from the notes column",
		"notable_driver": "hurricane rebooking wave",
	}, "f.csv", "csv")
	if row.NotableEvent != "hurricane rebooking wave" {
		t.Errorf("NotableEvent = %q, want the driver to win", row.NotableEvent)
	}
	if row.NotableDriver != "hurricane rebooking wave" {
		t.Errorf("NotableDriver = %q", row.NotableDriver)
	}

	row = Normalize(map[string]any{"channel_checks": "OTA spot checks"}, "f.json", "json")
	if row.NotableEvent != "OTA spot checks" {
		t.Errorf("NotableEvent = %q, want the channel_checks alias", row.NotableEvent)
	}
}

func TestNormalize_NumericCoercion(t *testing.T) {
	row := Normalize(map[string]any{
		"avg_fare_usd":          "412.50",
		"premium_fare_usd":      "n/a",
		"fare_yoy_pct":          float64(3.2),
		"advance_purchase_days": "21",
		"load_factor_pct":       "",
		"search_index":          "87",
		"branding_mix":          "0.41",
	}, "f.csv", "csv")

	if row.AvgFareUSD == nil || *row.AvgFareUSD != 412.50 {
		t.Errorf("AvgFareUSD = %v, want 412.50", row.AvgFareUSD)
	}
	if row.PremiumFareUSD != nil {
		t.Errorf("PremiumFareUSD = %v, want omitted for un-coercible input", *row.PremiumFareUSD)
	}
	if row.FareYoYPct == nil || *row.FareYoYPct != 3.2 {
		t.Errorf("FareYoYPct = %v, want 3.2", row.FareYoYPct)
	}
	if row.AdvancePurchaseDays == nil || *row.AdvancePurchaseDays != 21 {
		t.Errorf("AdvancePurchaseDays = %v, want 21", row.AdvancePurchaseDays)
	}
	if row.LoadFactorPct != nil {
		t.Errorf("LoadFactorPct = %v, want omitted for empty input", *row.LoadFactorPct)
	}
	if row.SearchIndex == nil || *row.SearchIndex != 87 {
		t.Errorf("SearchIndex = %v, want 87", row.SearchIndex)
	}
	if row.BrandingMix == nil || *row.BrandingMix != 0.41 {
		t.Errorf("BrandingMix = %v, want 0.41", row.BrandingMix)
	}
}

func TestNormalize_NumericNeverDefaultsToZero(t *testing.T) {
	row := Normalize(map[string]any{"avg_fare_usd": "not a number"}, "f.csv", "csv")
	if row.AvgFareUSD != nil {
		t.Errorf("AvgFareUSD = %v, must be omitted, never zero", *row.AvgFareUSD)
	}
}

func TestNormalize_RegionAliases(t *testing.T) {
	for _, key := range []string{"region", "region_name", "geo"} {
		row := Normalize(map[string]any{key: "EMEA"}, "f.csv", "csv")
		if row.Region != "EMEA" {
			t.Errorf("Region via %q = %q, want EMEA", key, row.Region)
		}
	}
}

func TestNormalize_RouteWithoutDash(t *testing.T) {
	row := Normalize(map[string]any{"route": "TRANSCON"}, "f.csv", "csv")
	if row.Route != "TRANSCON" {
		t.Errorf("Route = %q", row.Route)
	}
	if row.OriginAirport != "" || row.DestinationAirport != "" {
		t.Error("airports should not be derived without a dash")
	}
}
