package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lherron/tosum/internal/cli/appctx"
	"github.com/lherron/tosum/internal/selectors"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the merged TO summary",
	Long: `Summary lists every project known to the imported snapshot or the coverage
reports, joined with its coverage and version control data, ordered by project
name.

Projects that only appear in version control are left out unless
--strict-orphans (or TOSUM_STRICT_ORPHANS) is set; their names are reported
on stderr.

Examples:
  tosum summary                  # Condensed table with coverage badges
  tosum summary -o csv > to.csv  # Every column, RFC 4180 CSV
  tosum summary -o xlsx > to.xlsx
  tosum summary --match 'usb*'   # Only projects named usb*`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runSummary),
}

var summaryMatch []string

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringSliceVar(&summaryMatch, "match", nil, "Only rows whose project name or task index matches a glob (repeatable)")
}

func runSummary(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	for _, p := range summaryMatch {
		if err := selectors.ValidatePattern(p); err != nil {
			return exitError(2, err)
		}
	}

	views, err := app.Service.GetMergedView(ctx)
	if err != nil {
		return err
	}

	if !app.Config.StrictOrphans {
		orphans, err := app.Service.Orphans(ctx)
		if err != nil {
			return err
		}
		if len(orphans) > 0 {
			app.Logger.Warn("projects only in version control omitted", zap.Strings("projects", orphans))
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %d project(s) only in version control omitted: %s\n",
				len(orphans), strings.Join(orphans, ", "))
		}
	}

	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	return r.RenderSummary(selectors.FilterViews(views, summaryMatch))
}
