package iocache

import (
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/repopulse/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManagerImpl{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the cache and history stores.
// An empty backend leaves that store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		mgr, err := NewStoreManager(cacheBackend, cacheConnStr, historyBackend, historyConnStr)
		if err != nil {
			initErr = err
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.commits = mgr.commits
		Manager.prefs = mgr.prefs
		Manager.history = mgr.history
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		_ = Manager.Close()
	})
}

// ClearStore clears the commit cache and preferences for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tables.
// For Redis, it deletes the keys of both tables.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return dropSQLTables(backend, connStr, commitCacheTable, preferencesTable)
	case schema.RedisBackend:
		return clearRedisTables(connStr, commitCacheTable, preferencesTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// ClearHistory clears the analytics history for the specified backend.
// The migrations table is dropped too so the schema is rebuilt on next use.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return removeSQLiteFile(dbFilePath)
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return dropSQLTables(backend, connStr, historyRunsTable, historyMigrationsTable)
	case schema.NoneBackend:
		return nil
	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", backend)
	}
}

// removeSQLiteFile deletes a SQLite database file; a missing file is not an error.
func removeSQLiteFile(dbFilePath string) error {
	if dbFilePath == "" {
		return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
	}
	if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
	}
	return nil
}
