package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/internal/outwriter"
	"github.com/huangsam/repopulse/schema"
)

// recentRunsShown is how many runs 'history status' lists.
const recentRunsShown = 10

// historyBackendFromViper reads and validates the history backend settings.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("history-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok || backend == schema.RedisBackend {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no cache for history commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyDBFilePath is the SQLite file of the history store.
func historyDBFilePath() string {
	if cfg.HistoryDBConnect != "" {
		return cfg.HistoryDBConnect
	}
	return contract.GetHistoryDBFilePath()
}

// historyCmd focused on analytics history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by the other commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the analytics request history and exports",
	Long: `Manage the record of questions sent to the analytics service.

When enabled with --history-backend, every 'ask' and web submit stores:
- The repository and the question
- Start and end time, and the request duration
- Whether it succeeded and the length of the explanation

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics and the most recent requests
  export  - Export the history to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Check history status
  repopulse history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  repopulse history export --history-backend sqlite --output-file history.parquet`,
}

// historyClearCmd clears the history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all analytics request history",
	Long: `Delete all stored analytics requests.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  repopulse history export --output-file backup.parquet
  repopulse history clear`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, historyDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and the most recent requests",
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := storeManager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("history store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		recent, err := store.ListRuns(recentRunsShown)
		if err != nil {
			contract.LogFatal("Failed to list recent runs", err)
		}
		if err := outwriter.NewOutWriter().WriteHistoryStatus(status, recent); err != nil {
			contract.LogFatal("Failed to print history status", err)
		}
	},
}

// historyExportCmd exports the history to a Parquet file.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analytics request history to a Parquet file",
	Long: `Write every stored analytics request to a Parquet file.

Examples:
  repopulse history export --history-backend sqlite --output-file history.parquet`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		n, err := iocache.ExportHistory(storeManager.GetHistoryStore(), cfg.OutputFile)
		if errors.Is(err, iocache.ErrNoHistory) {
			fmt.Println("No analytics history found to export.")
			return
		}
		if err != nil {
			contract.LogFatal("Failed to export history", err)
		}
		fmt.Printf("Exported %d runs to %s\n", n, cfg.OutputFile)
	},
}

// historyMigrateCmd runs the history schema migrations.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run history database schema migrations",
	Long: `Migrate the history schema up to the latest version or to --target-version.

Examples:
  # Migrate to the latest version
  repopulse history migrate --history-backend postgresql --history-db-connect "host=... dbname=..."

  # Roll back everything
  repopulse history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		result, err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, viper.GetInt("target-version"))
		if err != nil {
			contract.LogFatal("Failed to migrate history", err)
		}
		if !result.Changed {
			fmt.Printf("History schema already at version %d.\n", result.ToVersion)
			return
		}
		fmt.Printf("Migrated history schema from version %d to %d.\n", result.FromVersion, result.ToVersion)
	},
}
