package dataset

// Row is the canonical record every supported vendor file format is
// normalized into. Query, Date, SnapshotDate, Region, SourceFile, and
// SourceFormat are always populated; Query is never empty (it falls
// back through the alias chain and ends at the source file name).
// Rows are created fresh per load and not mutated afterwards.
type Row struct {
	Query        string `json:"query"`
	Date         string `json:"date"`
	SnapshotDate string `json:"snapshot_date"`
	Region       string `json:"region"`
	SourceFile   string `json:"source_file"`
	SourceFormat string `json:"source_format"`

	SearchIndex  *int     `json:"search_index,omitempty"`
	BrandingMix  *float64 `json:"branding_mix,omitempty"`
	NotableEvent string   `json:"notable_event,omitempty"`

	Route               string   `json:"route,omitempty"`
	OriginAirport       string   `json:"origin_airport,omitempty"`
	DestinationAirport  string   `json:"destination_airport,omitempty"`
	Airline             string   `json:"airline,omitempty"`
	Season              string   `json:"season,omitempty"`
	AvgFareUSD          *float64 `json:"avg_fare_usd,omitempty"`
	PremiumFareUSD      *float64 `json:"premium_fare_usd,omitempty"`
	FareYoYPct          *float64 `json:"fare_yoy_pct,omitempty"`
	AdvancePurchaseDays *int     `json:"advance_purchase_days,omitempty"`
	LoadFactorPct       *float64 `json:"load_factor_pct,omitempty"`
	AncillaryRevenuePct *float64 `json:"ancillary_revenue_pct,omitempty"`
	NotableDriver       string   `json:"notable_driver,omitempty"`

	// Vendor metadata passed through verbatim when present.
	LinkedTickers    any `json:"linked_tickers,omitempty"`
	Provider         any `json:"provider,omitempty"`
	CollectionWindow any `json:"collection_window,omitempty"`
	QueryCount       any `json:"query_count,omitempty"`
	WeekID           any `json:"week_id,omitempty"`
}
