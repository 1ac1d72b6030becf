package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// historyMigrationsTable tracks the applied history schema version.
const historyMigrationsTable = "repopulse_schema_migrations"

// MigrationResult reports what a migration run did.
type MigrationResult struct {
	FromVersion uint
	ToVersion   uint
	Changed     bool
}

// migrationsDir returns the embedded migrations directory of a backend.
func migrationsDir(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "migrations/sqlite", nil
	case schema.MySQLBackend:
		return "migrations/mysql", nil
	case schema.PostgreSQLBackend:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("migrations are not supported for %s backend", backend)
	}
}

// newMigrator wraps an open database in a migrate instance.
// Closing the migrator closes db, so callers close db themselves instead.
func newMigrator(db *sql.DB, backend schema.DatabaseBackend) (*migrate.Migrate, error) {
	dir, err := migrationsDir(backend)
	if err != nil {
		return nil, err
	}

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: historyMigrationsTable})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: historyMigrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: historyMigrationsTable})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "repopulse", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// runMigration moves m to targetVersion.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
func runMigration(m *migrate.Migrate, targetVersion int) (MigrationResult, error) {
	var result MigrationResult

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}
	result.FromVersion = currentVersion

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return result, fmt.Errorf("failed to migrate from version %d: %w", currentVersion, err)
	}
	result.Changed = err == nil

	newVersion, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to read migrated version: %w", err)
	}
	result.ToVersion = newVersion
	return result, nil
}

// MigrateHistory runs the history schema migrations up or down to targetVersion.
// See runMigration for the meaning of targetVersion.
func MigrateHistory(backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	if backend == schema.NoneBackend || backend == schema.RedisBackend {
		return MigrationResult{}, fmt.Errorf("migrations are not supported for %s backend", backend)
	}

	db, err := openSQL(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return MigrationResult{}, err
	}
	defer func() { _ = db.Close() }()

	m, err := newMigrator(db, backend)
	if err != nil {
		return MigrationResult{}, err
	}
	return runMigration(m, targetVersion)
}
