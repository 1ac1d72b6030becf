package schema

// SeriesSummary condenses a daily series for headers and page captions.
type SeriesSummary struct {
	Days         int     `json:"days" yaml:"days"`                   // Entries in the series
	TotalCommits int     `json:"total_commits" yaml:"total_commits"` // Sum of all counts
	PeakDate     string  `json:"peak_date" yaml:"peak_date"`         // Earliest date with the highest count
	PeakCount    int     `json:"peak_count" yaml:"peak_count"`
	MeanPerDay   float64 `json:"mean_per_day" yaml:"mean_per_day"` // Mean over the entries present
}

// SeriesResult is what the series command, web API and MCP tool hand out.
type SeriesResult struct {
	Repo    RepoRef       `json:"repo" yaml:"repo"`
	Source  SourceKind    `json:"source" yaml:"source"`
	Order   OrderPolicy   `json:"order" yaml:"order"`
	Start   string        `json:"start,omitempty" yaml:"start,omitempty"` // Inclusive lower bound, empty if unbounded
	End     string        `json:"end,omitempty" yaml:"end,omitempty"`     // Inclusive upper bound, empty if unbounded
	Window  int           `json:"window,omitempty" yaml:"window,omitempty"`
	Records int           `json:"records" yaml:"records"` // Records read from the source
	Skipped int           `json:"skipped" yaml:"skipped"` // Records rejected for malformed timestamps
	Points  []DailyCount  `json:"points" yaml:"points"`
	Summary SeriesSummary `json:"summary" yaml:"summary"`
}
