package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lherron/tosum/internal/db"
	"github.com/lherron/tosum/internal/domain"
)

func TestOpenRejectsMissingLocation(t *testing.T) {
	_, err := db.Open(db.DriverSQLite, "")
	require.Error(t, err)
	require.True(t, domain.IsStoreError(err))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := db.Open("oracle", "somewhere")
	require.Error(t, err)
	require.True(t, domain.IsStoreError(err))
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "tosum.db")

	database, err := db.Open("", dbPath)
	require.NoError(t, err)
	defer database.Close()

	require.Equal(t, db.DriverSQLite, database.Driver())
	require.Equal(t, dbPath, database.Path())
	require.False(t, database.IsPostgres())

	var fk int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	require.Equal(t, 1, fk)
}

func TestMigrationStatus(t *testing.T) {
	database, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	applied, pending, err := database.MigrationStatus()
	require.NoError(t, err)
	require.Empty(t, applied)
	require.Equal(t, []string{"000001_baseline.sql", "000002_event_type_index.sql"}, pending)

	require.NoError(t, database.Migrate())

	applied, pending, err = database.MigrationStatus()
	require.NoError(t, err)
	require.Len(t, applied, 2)
	require.Empty(t, pending)

	for _, table := range []string{"projects", "imported_projects", "coverage_reports", "version_control", "task_index_seq", "event_log"} {
		var count int
		require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&count))
		require.Equal(t, 1, count, "table %s", table)
	}
}
