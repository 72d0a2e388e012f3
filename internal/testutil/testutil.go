// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lherron/tosum/internal/db"
	"github.com/lherron/tosum/internal/store"
)

// TempDB creates a migrated SQLite database in a temporary directory and
// returns it with its path. It is closed when the test ends.
func TempDB(t *testing.T) (*db.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "tosum.db")
	database, err := db.Open(db.DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return database, dbPath
}

// TempStore returns a store over a fresh TempDB.
func TempStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	database, _ := TempDB(t)
	return store.New(database, opts...)
}

// WriteFile writes content to a file in dir and returns its path.
func WriteFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}
