package appctx

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/lherron/tosum/internal/db"
)

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("db", "", "Database path")
	cmd.Flags().String("driver", "", "Database driver")
	cmd.Flags().String("format", "", "Output format")
	cmd.Flags().Bool("strict-orphans", false, "Include orphans")
	return cmd
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOSUM_DSN", "")
	t.Setenv("TOSUM_DRIVER", "")
	t.Setenv("TOSUM_OUTPUT", "")
	t.Setenv("TOSUM_STRICT_ORPHANS", "")
}

func TestBootstrap_ConfigOnly(t *testing.T) {
	isolate(t)
	t.Setenv("TOSUM_DSN", filepath.Join(t.TempDir(), "test.db"))

	app, err := Bootstrap(testCommand(), Options{})
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Config)
	require.NotNil(t, app.Logger)
	require.Nil(t, app.DB)
	require.Nil(t, app.Service)
}

func TestBootstrap_WithDB(t *testing.T) {
	isolate(t)
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.Open(db.DriverSQLite, dbPath)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	database.Close()

	cmd := testCommand()
	require.NoError(t, cmd.Flags().Set("db", dbPath))
	require.NoError(t, cmd.Flags().Set("format", "json"))
	require.NoError(t, cmd.Flags().Set("strict-orphans", "true"))

	app, err := Bootstrap(cmd, DefaultOptions())
	require.NoError(t, err)
	defer app.Close()

	require.Equal(t, dbPath, app.Config.DSN)
	require.Equal(t, "json", app.Config.Output)
	require.True(t, app.Config.StrictOrphans)
	require.NotNil(t, app.DB)
	require.NotNil(t, app.Store)
	require.NotNil(t, app.Service)
}

func TestBootstrap_PendingMigrations(t *testing.T) {
	isolate(t)
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	t.Setenv("TOSUM_DSN", dbPath)

	_, err := Bootstrap(testCommand(), DefaultOptions())
	require.ErrorContains(t, err, "tosumadm migrate")

	app, err := Bootstrap(testCommand(), Options{NeedsDB: true, AllowPending: true})
	require.NoError(t, err)
	app.Close()
}

func TestApp_CloseTwice(t *testing.T) {
	isolate(t)
	t.Setenv("TOSUM_DSN", filepath.Join(t.TempDir(), "test.db"))

	app, err := Bootstrap(testCommand(), Options{NeedsDB: true, AllowPending: true})
	require.NoError(t, err)
	app.Close()
	app.Close()
	require.Nil(t, app.DB)
}
