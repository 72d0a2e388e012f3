package cli

import (
	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/cli/appctx"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the snapshot from the local projects table",
	Long: `Sync imports every IT-domain project from the local projects table into
the snapshot, the same way 'tosum projects export' followed by 'tosum import'
would. Use it when both domains share one database.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runSync),
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(app *appctx.App, cmd *cobra.Command, args []string) error {
	report, err := app.Store.Snapshot.SyncFromProjects(cmd.Context())
	if err != nil {
		return err
	}
	return printReport(app, cmd, report)
}
