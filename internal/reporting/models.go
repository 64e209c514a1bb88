package reporting

// LeadStats summarizes the lead book.
type LeadStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	BySource   map[string]int `json:"by_source"`
}

// CallStats summarizes call activity. Durations are seconds.
type CallStats struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	ByOutcome   map[string]int `json:"by_outcome"`
	BySentiment map[string]int `json:"by_sentiment"`

	// AvgDuration only averages calls with a positive duration.
	AvgDuration float64 `json:"avg_duration"`

	// ConnectionRate is completed calls over all calls; ConversionRate is
	// booked appointments over all calls.
	ConnectionRate float64 `json:"connection_rate"`
	ConversionRate float64 `json:"conversion_rate"`
}
