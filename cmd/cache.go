package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/internal/iocache"
	"github.com/huangsam/repopulse/internal/outwriter"
	"github.com/huangsam/repopulse/schema"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	connStr := viper.GetString("cache-db-connect")
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no history tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheDBFilePath is the SQLite file of the cache.
func cacheDBFilePath() string {
	if cfg.CacheDBConnect != "" {
		return cfg.CacheDBConnect
	}
	return contract.GetCacheDBFilePath()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by the other commands. This avoids source
// resolution and complex config processing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the commit cache and stored preferences",
	Long: `Manage the key/value backend that holds fetched commit records and view preferences.

Repopulse caches the commit records of each repository and source so repeated
series and chart requests do not hit the source again until the TTL expires.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data and preferences

Examples:
  # Check cache status
  repopulse cache status

  # Clear cache after a feed was regenerated
  repopulse cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached commits and stored preferences",
	Long: `Delete all cached commit records and preferences from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache and preferences tables
For Redis: Deletes the keys of both tables

Examples:
  # Clear SQLite cache (default)
  repopulse cache clear

  # Clear a redis cache
  REPOPULSE_CACHE_BACKEND=redis REPOPULSE_CACHE_DB_CONNECT="localhost:6379" repopulse cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearStore(cfg.CacheBackend, cacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the commit cache and preference store.

Displays:
- Backend type and connection status
- Total number of entries per table
- Last and oldest entry timestamps
- Table size

Examples:
  # Check cache status
  repopulse cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		var statuses []schema.StoreStatus
		for _, store := range []contract.KVStore{storeManager.GetCommitStore(), storeManager.GetPrefStore()} {
			if store == nil {
				continue
			}
			status, err := store.GetStatus()
			if err != nil {
				contract.LogFatal("Failed to get cache status", err)
			}
			statuses = append(statuses, status)
		}
		if err := outwriter.NewOutWriter().WriteStoreStatus(statuses...); err != nil {
			contract.LogFatal("Failed to print cache status", err)
		}
	},
}
