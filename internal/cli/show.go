package cli

import (
	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/cli/appctx"
	"github.com/lherron/tosum/internal/selectors"
)

var showCmd = &cobra.Command{
	Use:   "show <identifier>",
	Short: "Show one project of the TO summary",
	Long: `Show prints every field of one summary row.

The identifier is matched in this order:
  - a number is tried as the snapshot id
  - otherwise, or when no id matches, the exact project name or task index

Use --by id or --by key to force one interpretation. The identifier itself is
never parsed for prefixes, so a project named "id:alpha" is found as written.
Matching is exact and case-sensitive. Exits with status 3 when nothing matches.

Examples:
  tosum show 12
  tosum show usb_phy
  tosum show TASK007
  tosum show --by key 2024      # Task index or name "2024", not id 2024`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runShow),
}

var showBy string

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showBy, "by", "auto", "Lookup type: auto, id or key")
}

func runShow(app *appctx.App, cmd *cobra.Command, args []string) error {
	typ, err := selectors.ParseType(showBy)
	if err != nil {
		return exitError(2, err)
	}

	view, err := app.Service.LookupProject(cmd.Context(), typ, args[0])
	if err != nil {
		return err
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	return r.RenderDetail(view)
}
