package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/parquet"
)

// ErrNoHistory is returned when there is nothing to export.
var ErrNoHistory = errors.New("no analytics history found to export")

// ExportHistory writes every history run to outputFile as Parquet and returns the run count.
func ExportHistory(store contract.HistoryStore, outputFile string) (int, error) {
	if outputFile == "" {
		return 0, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return 0, errors.New("history store is not initialized")
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve history runs: %w", err)
	}
	if len(runs) == 0 {
		return 0, ErrNoHistory
	}

	rows := parquet.ConvertHistoryRecords(runs)
	if err := parquet.WriteHistoryRunsParquet(rows, outputFile); err != nil {
		return 0, fmt.Errorf("failed to write history runs: %w", err)
	}
	return len(rows), nil
}
