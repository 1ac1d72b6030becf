package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

// KVStoreImpl handles durable key/value storage on a SQL backend.
type KVStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.KVStore = &KVStoreImpl{} // Compile-time check

// NewKVStore initializes and returns a KVStore for tableName on the given backend.
// An empty SQLite connStr uses the default cache file in the home directory.
func NewKVStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.KVStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	switch backend {
	case schema.NoneBackend:
		return &KVStoreImpl{tableName: tableName, backend: backend}, nil
	case schema.RedisBackend:
		rs, err := NewRedisStore(tableName, connStr)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, redis, or none", backend)
	}

	db, err := openSQL(backend, connStr, contract.GetCacheDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &KVStoreImpl{db: db, tableName: tableName, backend: backend, connStr: connStr}, nil
}

// getCreateTableQuery returns the CREATE TABLE query for the given backend.
func getCreateTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				entry_key VARCHAR(255) PRIMARY KEY,
				entry_value LONGBLOB NOT NULL,
				entry_version INT NOT NULL,
				entry_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				entry_key TEXT PRIMARY KEY,
				entry_value BYTEA NOT NULL,
				entry_version INTEGER NOT NULL,
				entry_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				entry_key TEXT PRIMARY KEY,
				entry_value BLOB NOT NULL,
				entry_version INTEGER NOT NULL,
				entry_timestamp INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// getUpsertQuery returns the UPSERT query for the backend.
func getUpsertQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (entry_key, entry_value, entry_version, entry_timestamp) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE entry_value = new.entry_value, entry_version = new.entry_version, entry_timestamp = new.entry_timestamp`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (entry_key, entry_value, entry_version, entry_timestamp) VALUES ($1, $2, $3, $4)
			ON CONFLICT (entry_key) DO UPDATE SET entry_value = EXCLUDED.entry_value, entry_version = EXCLUDED.entry_version, entry_timestamp = EXCLUDED.entry_timestamp`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (entry_key, entry_value, entry_version, entry_timestamp) VALUES (?, ?, ?, ?)`, quotedTableName)
	}
}

// Get retrieves a value by key from the store. A missing key yields a nil value.
func (ks *KVStoreImpl) Get(key string) ([]byte, int, int64, error) {
	if ks.db == nil {
		return nil, 0, 0, nil
	}

	var value []byte
	var version int
	var ts int64

	query := fmt.Sprintf(`SELECT entry_value, entry_version, entry_timestamp FROM %s WHERE entry_key = %s`,
		quoteTableName(ks.tableName, ks.backend), placeholder(ks.backend, 1))
	if err := ks.db.QueryRow(query, key).Scan(&value, &version, &ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, 0, nil
		}
		return nil, 0, 0, fmt.Errorf("failed to read %s entry: %w", ks.tableName, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (ks *KVStoreImpl) Set(key string, value []byte, version int, timestamp int64) error {
	if ks.db == nil {
		return nil
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := ks.db.Exec(getUpsertQuery(ks.tableName, ks.backend), key, value, version, timestamp); err != nil {
		return fmt.Errorf("failed to write %s entry: %w", ks.tableName, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (ks *KVStoreImpl) Delete(key string) error {
	if ks.db == nil {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE entry_key = %s`,
		quoteTableName(ks.tableName, ks.backend), placeholder(ks.backend, 1))
	if _, err := ks.db.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete %s entry: %w", ks.tableName, err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (ks *KVStoreImpl) Close() error {
	if ks.db != nil {
		return ks.db.Close()
	}
	return nil
}

// GetStatus returns status information about the store.
func (ks *KVStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(ks.backend),
		Table:     ks.tableName,
		Connected: ks.db != nil,
	}
	if ks.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(ks.tableName, ks.backend)

	row := ks.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName))
	if err := row.Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	row = ks.db.QueryRow(fmt.Sprintf("SELECT MAX(entry_timestamp), MIN(entry_timestamp) FROM %s", quotedTableName))
	if err := row.Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get entry times: %w", err)
	}
	status.LastEntryTime = time.Unix(lastTs, 0)
	status.OldestEntryTime = time.Unix(oldestTs, 0)

	status.TableSizeBytes = ks.tableSize(int64(status.TotalEntries))
	return status, nil
}

// tableSize asks the backend for the table size and falls back to a rough estimate.
func (ks *KVStoreImpl) tableSize(entries int64) int64 {
	estimate := entries * 1000
	var size int64

	switch ks.backend {
	case schema.SQLiteBackend:
		// Whole database file, shared with the other tables
		row := ks.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return 0
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(ks.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		row := ks.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, ks.tableName)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
	case schema.PostgreSQLBackend:
		row := ks.db.QueryRow("SELECT pg_total_relation_size($1)", ks.tableName)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
	default:
		return estimate
	}
	return size
}
