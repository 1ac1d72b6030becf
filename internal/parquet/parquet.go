// Package parquet provides data structures and functions for exporting repopulse
// series and history data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/repopulse/schema"
)

// HistoryRun represents a single analytics request.
// This struct maps to the repopulse_history_runs database table.
type HistoryRun struct {
	// RunID is the unique identifier for this request
	RunID int64 `parquet:"run_id,snappy"`

	Owner   string `parquet:"owner,snappy,dict"`
	Repo    string `parquet:"repo,snappy,dict"`
	Message string `parquet:"message,snappy"`

	// StartTime is when the request was sent (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the reply arrived (nullable while the request is pending)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// DurationMs is the request duration in milliseconds (nullable)
	DurationMs *int64 `parquet:"duration_ms,optional,snappy"`

	Succeeded         bool  `parquet:"succeeded"`
	ExplanationLength int32 `parquet:"explanation_length,snappy"`
}

// DailyPoint is one day of a repository's commit series.
type DailyPoint struct {
	Owner string `parquet:"owner,snappy,dict"`
	Repo  string `parquet:"repo,snappy,dict"`
	Date  string `parquet:"date,snappy"`
	Count int64  `parquet:"count,snappy"`
}

// WriteHistoryRunsParquet writes a slice of HistoryRun structs to a Parquet file.
func WriteHistoryRunsParquet(data []HistoryRun, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return writeRows(file, data)
}

// WriteDailyPoints writes the daily series to w.
func WriteDailyPoints(w io.Writer, data []DailyPoint) error {
	return writeRows(w, data)
}

// writeRows infers the schema from T's struct tags and writes every row.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertHistoryRecords converts schema.HistoryRecord to HistoryRun for Parquet export.
func ConvertHistoryRecords(records []schema.HistoryRecord) []HistoryRun {
	result := make([]HistoryRun, len(records))
	for i, record := range records {
		result[i] = HistoryRun{
			RunID:             record.RunID,
			Owner:             record.Owner,
			Repo:              record.Repo,
			Message:           record.Message,
			StartTime:         record.StartTime,
			EndTime:           record.EndTime,
			DurationMs:        record.DurationMs,
			Succeeded:         record.Succeeded,
			ExplanationLength: int32(record.ExplanationLength),
		}
	}
	return result
}

// ConvertDailyCounts tags each day of the series with its repository.
func ConvertDailyCounts(repo schema.RepoRef, points []schema.DailyCount) []DailyPoint {
	result := make([]DailyPoint, len(points))
	for i, dc := range points {
		result[i] = DailyPoint{Owner: repo.Owner, Repo: repo.Repo, Date: dc.Date, Count: int64(dc.Count)}
	}
	return result
}
