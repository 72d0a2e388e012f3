package cli

import (
	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/cli/appctx"
)

var nxLoadAdmCmd = &cobra.Command{
	Use:   "nx-load",
	Short: "Load NX-domain coverage or version control feeds",
	Long: `nx-load upserts the NX-domain records produced by the coverage and
version control collectors, keyed by project_name. Invalid rows are reported
and skipped.

Exit status: 0 all rows loaded, 5 partial success, 1 nothing loaded.`,
}

var nxLoadCoverageCmd = &cobra.Command{
	Use:   "coverage <file>",
	Short: "Load coverage reports",
	Long: `Loads coverage rows: project_name, line_coverage, fsm_coverage,
interface_toggle_coverage, toggle_coverage (0-100, a trailing % is accepted),
coverage_report_path, to_date, rtl_last_update, to_report_creation.`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runNXLoadCoverage),
}

var nxLoadVCSCmd = &cobra.Command{
	Use:   "vcs <file>",
	Short: "Load version control records",
	Long: `Loads version control rows: project_name, sanity_svn, sanity_svn_ver,
release_svn, release_svn_ver, git_path, git_version (a 40 character hash or a
7-10 character short hash), golden_checklist, golden_checklist_version.`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runNXLoadVCS),
}

var nxLoadSheet string

func init() {
	rootAdmCmd.AddCommand(nxLoadAdmCmd)
	nxLoadAdmCmd.AddCommand(nxLoadCoverageCmd, nxLoadVCSCmd)
	nxLoadAdmCmd.PersistentFlags().StringVar(&nxLoadSheet, "sheet", "", "Worksheet to read from an XLSX file (default: first sheet)")
}

func runNXLoadCoverage(app *appctx.App, cmd *cobra.Command, args []string) error {
	return finishReport(cmd.OutOrStdout(), app.Service.LoadCoverage(cmd.Context(), args[0], nxLoadSheet))
}

func runNXLoadVCS(app *appctx.App, cmd *cobra.Command, args []string) error {
	return finishReport(cmd.OutOrStdout(), app.Service.LoadVersionControl(cmd.Context(), args[0], nxLoadSheet))
}
