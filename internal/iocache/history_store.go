package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// historyRunsTable holds one row per analytics request.
const historyRunsTable = "repopulse_history_runs"

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a HistoryStore and migrates its schema to the latest version.
// An empty SQLite connStr uses the default history file in the home directory.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	switch backend {
	case schema.NoneBackend:
		return &HistoryStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported history backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	db, err := openSQL(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	m, err := newMigrator(db, backend)
	if err == nil {
		_, err = runMigration(m, -1)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func (hs *HistoryStoreImpl) table() string {
	return quoteTableName(historyRunsTable, hs.backend)
}

// BeginRun records a pending request and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(repo schema.RepoRef, message string, startTime time.Time) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	var runID int64
	var err error
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (owner, repo, message, start_time) VALUES ($1, $2, $3, $4) RETURNING run_id`, hs.table())
		err = hs.db.QueryRow(query, repo.Owner, repo.Repo, message, startTime).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (owner, repo, message, start_time) VALUES (?, ?, ?, ?)`, hs.table())
		var result sql.Result
		result, err = hs.db.Exec(query, repo.Owner, repo.Repo, message, formatTime(startTime, hs.backend))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert history run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, succeeded bool, explanationLength int) error {
	if hs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, hs.table(), placeholder(hs.backend, 1))
	startTime, err := scanTime(hs.db.QueryRow(query, runID), hs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, succeeded = %s, explanation_length = %s WHERE run_id = %s`,
		hs.table(),
		placeholder(hs.backend, 1), placeholder(hs.backend, 2), placeholder(hs.backend, 3),
		placeholder(hs.backend, 4), placeholder(hs.backend, 5))
	if _, err := hs.db.Exec(update, formatTime(endTime, hs.backend), durationMs, succeeded, explanationLength, runID); err != nil {
		return fmt.Errorf("failed to update history run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means all runs.
func (hs *HistoryStoreImpl) ListRuns(limit int) ([]schema.HistoryRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, owner, repo, message, start_time, end_time, run_duration_ms, succeeded, explanation_length
		FROM %s ORDER BY run_id DESC`, hs.table())
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query history runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.HistoryRecord
	for rows.Next() {
		record, err := hs.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history runs: %w", err)
	}
	return results, nil
}

func (hs *HistoryStoreImpl) scanRecord(rows *sql.Rows) (schema.HistoryRecord, error) {
	var record schema.HistoryRecord
	var durationMs sql.NullInt64

	switch hs.backend {
	case schema.SQLiteBackend:
		var startStr string
		var endStr sql.NullString
		if err := rows.Scan(&record.RunID, &record.Owner, &record.Repo, &record.Message,
			&startStr, &endStr, &durationMs, &record.Succeeded, &record.ExplanationLength); err != nil {
			return record, fmt.Errorf("failed to scan history run: %w", err)
		}
		start, err := time.Parse(time.RFC3339Nano, startStr)
		if err != nil {
			return record, fmt.Errorf("failed to parse start_time: %w", err)
		}
		record.StartTime = start
		if endStr.Valid {
			end, err := time.Parse(time.RFC3339Nano, endStr.String)
			if err != nil {
				return record, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &end
		}
	default: // MySQL and PostgreSQL store native datetimes
		var end sql.NullTime
		if err := rows.Scan(&record.RunID, &record.Owner, &record.Repo, &record.Message,
			&record.StartTime, &end, &durationMs, &record.Succeeded, &record.ExplanationLength); err != nil {
			return record, fmt.Errorf("failed to scan history run: %w", err)
		}
		if end.Valid {
			record.EndTime = &end.Time
		}
	}
	if durationMs.Valid {
		record.DurationMs = &durationMs.Int64
	}
	return record, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:   string(hs.backend),
		Connected: hs.db != nil,
	}
	if hs.db == nil {
		return status, nil
	}

	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table()))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	if status.TotalRuns == 0 {
		return status, nil
	}

	// Pending runs have no end_time and do not count as failures
	row = hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE end_time IS NOT NULL AND succeeded = %s",
		hs.table(), placeholder(hs.backend, 1)), false)
	if err := row.Scan(&status.FailedRuns); err != nil {
		return status, fmt.Errorf("failed to get failed runs: %w", err)
	}

	row = hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", hs.table()))
	lastRunID, lastRunTime, err := scanIDAndTime(row, hs.backend)
	if err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	status.LastRunID = lastRunID
	status.LastRunTime = lastRunTime

	row = hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id ASC LIMIT 1", hs.table()))
	_, oldestRunTime, err := scanIDAndTime(row, hs.backend)
	if err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.OldestRunTime = oldestRunTime
	return status, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads a single time column written by formatTime.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend == schema.SQLiteBackend {
		var raw string
		if err := row.Scan(&raw); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, raw)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

func scanIDAndTime(row *sql.Row, backend schema.DatabaseBackend) (int64, time.Time, error) {
	var id int64
	if backend == schema.SQLiteBackend {
		var raw string
		if err := row.Scan(&id, &raw); err != nil {
			return 0, time.Time{}, err
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		return id, t, err
	}
	var t time.Time
	err := row.Scan(&id, &t)
	return id, t, err
}
