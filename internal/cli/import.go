package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/cli/appctx"
	"github.com/lherron/tosum/internal/ingest"
	"github.com/lherron/tosum/internal/render"
	"github.com/lherron/tosum/internal/tosum"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import IT-domain project records into the snapshot",
	Long: `Import reads a CSV or XLSX file whose first row names the project columns
and upserts each data row into the imported snapshot, keyed by project_name.

Rows that fail validation are reported and skipped; the remaining rows are
still imported. Importing the same file twice leaves the snapshot unchanged.
Use "-" to read CSV from stdin.

Exit status: 0 all rows imported, 5 partial success, 1 nothing imported.

Examples:
  tosum import projects.csv
  tosum import projects.xlsx --sheet "IT export"
  tosum import projects.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runImport),
}

var (
	importSheet  string
	importDryRun bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Worksheet to read from an XLSX file (default: first sheet)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would change without writing")
}

func runImport(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	fromStdin := path == "-"
	var records [][]string
	if fromStdin {
		var err error
		records, err = ingest.ReadCSV(cmd.InOrStdin())
		if err != nil {
			return exitError(1, err)
		}
	}

	if importDryRun {
		var (
			preview *tosum.Preview
			err     error
		)
		if fromStdin {
			preview, err = app.Service.PreviewBatch(ctx, records)
		} else {
			preview, err = app.Service.PreviewFile(ctx, path, importSheet)
		}
		if err != nil {
			return exitError(1, err)
		}
		return printPreview(app, cmd, preview)
	}

	var report *bulk.Report
	if fromStdin {
		report = app.Service.ImportBatch(ctx, records)
	} else {
		report = app.Service.ImportFile(ctx, path, importSheet)
	}
	return printReport(app, cmd, report)
}

// printReport renders a report in structured formats, or as the human
// summary otherwise, and returns the matching exit status.
func printReport(app *appctx.App, cmd *cobra.Command, report *bulk.Report) error {
	r, err := newRenderer(app, cmd)
	if err != nil {
		return err
	}
	switch app.Config.Output {
	case string(render.FormatJSON):
		if err := r.RenderJSON(report); err != nil {
			return err
		}
	case string(render.FormatYAML):
		if err := r.RenderYAML(report); err != nil {
			return err
		}
	default:
		return finishReport(cmd.OutOrStdout(), report)
	}
	if code := report.ExitCode(); code != 0 {
		return exitError(code, fmt.Errorf("%d of %d rows failed", report.ErrorCount, report.TotalItems))
	}
	return nil
}

func printPreview(app *appctx.App, cmd *cobra.Command, preview *tosum.Preview) error {
	switch app.Config.Output {
	case string(render.FormatJSON), string(render.FormatYAML):
		r, err := newRenderer(app, cmd)
		if err != nil {
			return err
		}
		if app.Config.Output == string(render.FormatJSON) {
			return r.RenderJSON(preview)
		}
		return r.RenderYAML(preview)
	}

	out := cmd.OutOrStdout()
	for _, row := range preview.Rows {
		fmt.Fprintf(out, "%-9s %s\n", row.Action, row.ProjectName)
		if row.Diff != "" {
			fmt.Fprint(out, row.Diff)
		}
	}
	created, updated, unchanged := preview.Counts()
	fmt.Fprintf(out, "\nDry run: %d to create, %d to update, %d unchanged, %d rejected\n",
		created, updated, unchanged, preview.Report.ErrorCount)
	for _, e := range preview.Report.Errors {
		fmt.Fprintf(out, "  %s\n", e)
	}
	return nil
}
