package schema

import "time"

// AnalyticsRequest is the body posted to the analytics endpoint.
type AnalyticsRequest struct {
	Message string `json:"message" validate:"required"`
	Owner   string `json:"owner" validate:"required"`
	Repo    string `json:"repo" validate:"required"`
}

// AnalyticsResponse is the analytics endpoint reply. Only Explanation is rendered.
type AnalyticsResponse struct {
	Explanation    string `json:"explanation"`
	TypescriptCode string `json:"typescript_code,omitempty"`
}

// AskResult pairs an analytics response with how long the request was pending.
type AskResult struct {
	Request  AnalyticsRequest  `json:"request"`
	Response AnalyticsResponse `json:"response"`
	Elapsed  time.Duration     `json:"elapsed"`
}

// HistoryRecord is one analytics request as tracked by the history store.
type HistoryRecord struct {
	RunID             int64      `json:"run_id"`
	Owner             string     `json:"owner"`
	Repo              string     `json:"repo"`
	Message           string     `json:"message"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	DurationMs        *int64     `json:"duration_ms,omitempty"`
	Succeeded         bool       `json:"succeeded"`
	ExplanationLength int        `json:"explanation_length"`
}
