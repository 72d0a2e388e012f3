package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lherron/tosum/internal/domain"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// DB wraps a database connection together with its dialect.
type DB struct {
	*sqlx.DB
	driver string
	dsn    string
}

// Open opens the record store described by driver and dsn, verifies it is
// reachable and applies dialect pragmas. The location is resolved once by the
// caller; failures are returned as a StoreError and never retried elsewhere.
func Open(driver, dsn string) (*DB, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if dsn == "" {
		return nil, &domain.StoreError{Op: "open", Err: fmt.Errorf("no database location configured")}
	}

	switch driver {
	case DriverSQLite:
		// Ensure parent directory exists
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, &domain.StoreError{Op: "open", Err: fmt.Errorf("failed to create database directory: %w", err)}
			}
		}
	case DriverPostgres:
	default:
		return nil, &domain.StoreError{Op: "open", Err: fmt.Errorf("unsupported driver %q", driver)}
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, &domain.StoreError{Op: "open", Err: err}
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, &domain.StoreError{Op: "connect", Err: err}
	}

	if driver == DriverSQLite {
		// Apply pragmas
		pragmas := []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA synchronous = NORMAL",
		}

		for _, pragma := range pragmas {
			if _, err := conn.Exec(pragma); err != nil {
				conn.Close()
				return nil, &domain.StoreError{Op: "open", Err: fmt.Errorf("failed to apply pragma %q: %w", pragma, err)}
			}
		}
	}

	return &DB{DB: conn, driver: driver, dsn: dsn}, nil
}

// Wrap adopts an already open connection, e.g. one created by sqlmock.
func Wrap(conn *sql.DB, driver string) *DB {
	return &DB{DB: sqlx.NewDb(conn, driver), driver: driver}
}

// Driver returns the database/sql driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Path returns the data source the connection was opened with.
func (db *DB) Path() string {
	return db.dsn
}

// IsPostgres reports whether the connection speaks the Postgres dialect.
func (db *DB) IsPostgres() bool {
	return db.driver == DriverPostgres
}

// BeginTx starts a new transaction.
func (db *DB) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return db.BeginTxx(ctx, nil)
}

func (db *DB) migrationDir() string {
	if db.IsPostgres() {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

// migrationFiles returns the embedded migrations for this dialect in order.
func (db *DB) migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir(db.migrationDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)
	return migrations, nil
}

func (db *DB) ensureMigrationsTable() error {
	ddl := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		)
	`
	if db.IsPostgres() {
		ddl = `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version TEXT PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`
	}
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

// Migrate runs all pending migrations.
func (db *DB) Migrate() error {
	_, err := db.MigrateWithInfo()
	return err
}

// MigrateWithInfo runs all pending migrations and returns the list of applied migrations.
func (db *DB) MigrateWithInfo() ([]string, error) {
	migrations, err := db.migrationFiles()
	if err != nil {
		return nil, err
	}

	if err := db.ensureMigrationsTable(); err != nil {
		return nil, err
	}

	var applied []string

	for _, migration := range migrations {
		// Check if already applied
		var count int
		err := db.QueryRow(db.Rebind("SELECT COUNT(*) FROM schema_migrations WHERE version = ?"), migration).Scan(&count)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status for %s: %w", migration, err)
		}

		if count > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile(path.Join(db.migrationDir(), migration))
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", migration, err)
		}

		// Execute migration in a transaction
		tx, err := db.Begin()
		if err != nil {
			return applied, fmt.Errorf("failed to begin transaction for %s: %w", migration, err)
		}

		_, err = tx.Exec(string(content))
		if err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("failed to execute migration %s: %w", migration, err)
		}

		// Record migration as applied
		_, err = tx.Exec(db.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), migration)
		if err != nil {
			tx.Rollback()
			return applied, fmt.Errorf("failed to record migration %s: %w", migration, err)
		}

		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("failed to commit migration %s: %w", migration, err)
		}

		applied = append(applied, migration)
	}

	return applied, nil
}

// MigrationStatus returns lists of applied and pending migrations.
func (db *DB) MigrationStatus() (applied []string, pending []string, err error) {
	allMigrations, err := db.migrationFiles()
	if err != nil {
		return nil, nil, err
	}

	exists, err := db.tableExists("schema_migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check for schema_migrations table: %w", err)
	}
	if !exists {
		// No migrations applied yet
		return nil, allMigrations, nil
	}

	appliedSet := make(map[string]bool)
	if err := db.Select(&applied, "SELECT version FROM schema_migrations ORDER BY version"); err != nil {
		return nil, nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	for _, version := range applied {
		appliedSet[version] = true
	}

	for _, m := range allMigrations {
		if !appliedSet[m] {
			pending = append(pending, m)
		}
	}

	return applied, pending, nil
}

func (db *DB) tableExists(name string) (bool, error) {
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?"
	if db.IsPostgres() {
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	}
	var count int
	if err := db.QueryRow(db.Rebind(query), name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// RequiresMigrationError checks if the database has pending migrations and returns
// a descriptive error including the database location and current schema version.
// Returns nil if no migrations are pending.
func (db *DB) RequiresMigrationError() error {
	applied, pending, err := db.MigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	currentVersion := "none"
	if len(applied) > 0 {
		currentVersion = applied[len(applied)-1]
	}

	return fmt.Errorf("database at %s (version: %s) requires migration: %d pending migration(s). Run 'tosumadm migrate' to update",
		db.dsn, currentVersion, len(pending))
}
