package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/cli/appctx"
)

var initAdmCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the tosum database",
	Long: `Initialize creates the database (for SQLite, including its parent
directory) and applies every migration. Running it against an existing
database only applies pending migrations.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.Options{NeedsDB: true, AllowPending: true}, runInitAdm),
}

func init() {
	rootAdmCmd.AddCommand(initAdmCmd)
}

func runInitAdm(app *appctx.App, cmd *cobra.Command, args []string) error {
	applied, err := app.DB.MigrateWithInfo()
	if err != nil {
		return exitError(1, fmt.Errorf("failed to run migrations: %w", err))
	}

	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintf(out, "Database already initialized: %s\n", app.DB.Path())
		return nil
	}
	fmt.Fprintf(out, "✓ Initialized %s database: %s\n", app.DB.Driver(), app.DB.Path())
	fmt.Fprintf(out, "  Applied %d migration(s)\n", len(applied))
	return nil
}
