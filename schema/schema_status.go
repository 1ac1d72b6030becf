package schema

import "time"

// StoreStatus represents the status of a key/value store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Table           string    `json:"table"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the analytics history store.
type HistoryStatus struct {
	Backend       string    `json:"backend"`
	Connected     bool      `json:"connected"`
	TotalRuns     int       `json:"total_runs"`
	FailedRuns    int       `json:"failed_runs"`
	LastRunID     int64     `json:"last_run_id"`
	LastRunTime   time.Time `json:"last_run_time"`
	OldestRunTime time.Time `json:"oldest_run_time"`
}
