package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/tosum/internal/cli/appctx"
	"github.com/lherron/tosum/internal/db"
	"github.com/lherron/tosum/internal/render"
)

var doctorAdmCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database health and data consistency",
	Long: `Doctor checks the schema version, SQLite integrity, the task index counter,
and projects that only appear in version control (which the summary omits
unless strict orphan handling is on).

Use --fix to advance a task index counter that has fallen behind indexes
written by imports.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.Options{NeedsDB: true, AllowPending: true}, runDoctorAdm),
}

var (
	doctorAdmJSON    bool
	doctorAdmFix     bool
	doctorAdmVerbose bool
)

const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

type checkResult struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

type doctorReport struct {
	Version       string        `json:"version"`
	Driver        string        `json:"driver"`
	Database      string        `json:"database"`
	Checks        []checkResult `json:"checks"`
	Fixes         []string      `json:"fixes,omitempty"`
	Warnings      int           `json:"warnings"`
	Errors        int           `json:"errors"`
	OverallStatus string        `json:"overall_status"`
}

func init() {
	rootAdmCmd.AddCommand(doctorAdmCmd)
	doctorAdmCmd.Flags().BoolVar(&doctorAdmJSON, "json", false, "Output JSON")
	doctorAdmCmd.Flags().BoolVar(&doctorAdmFix, "fix", false, "Auto-repair issues")
	doctorAdmCmd.Flags().BoolVar(&doctorAdmVerbose, "verbose", false, "Verbose output")
}

func runDoctorAdm(app *appctx.App, cmd *cobra.Command, args []string) error {
	report := &doctorReport{
		Version:       Version,
		Driver:        app.DB.Driver(),
		Database:      app.DB.Path(),
		Checks:        []checkResult{},
		OverallStatus: statusOK,
	}

	schemaCheck := checkSchema(app.DB)
	report.Checks = append(report.Checks, schemaCheck)
	if !app.DB.IsPostgres() {
		report.Checks = append(report.Checks, checkIntegrity(app.DB))
	}
	// The remaining checks query tables a pending migration may not have created.
	if schemaCheck.Status == statusOK {
		report.Checks = append(report.Checks, checkSequenceDrift(app.DB), checkOrphans(app, cmd))
	}

	if doctorAdmFix && schemaCheck.Status == statusOK {
		report.Fixes = applyFixes(app.DB)
		// Re-check so the report reflects the repaired state.
		for i, c := range report.Checks {
			if c.Name == "sequence_drift" {
				report.Checks[i] = checkSequenceDrift(app.DB)
			}
		}
	}

	for _, check := range report.Checks {
		switch check.Status {
		case statusWarning:
			report.Warnings++
		case statusError:
			report.Errors++
			report.OverallStatus = statusError
		}
	}
	if report.Warnings > 0 && report.OverallStatus == statusOK {
		report.OverallStatus = statusWarning
	}

	if doctorAdmJSON {
		if err := render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatJSON}).RenderJSON(report); err != nil {
			return err
		}
	} else {
		printDoctorReport(cmd, report)
	}

	if report.Errors > 0 {
		return exitError(1, fmt.Errorf("%d check(s) failed", report.Errors))
	}
	return nil
}

func checkSchema(database *db.DB) checkResult {
	applied, pending, err := database.MigrationStatus()
	if err != nil {
		return checkResult{Name: "schema_version", Status: statusError, Message: fmt.Sprintf("Failed to read migration status: %v", err)}
	}
	if len(pending) > 0 {
		return checkResult{
			Name:    "schema_version",
			Status:  statusError,
			Message: fmt.Sprintf("%d pending migration(s); run 'tosumadm migrate'", len(pending)),
			Details: pending,
		}
	}
	return checkResult{Name: "schema_version", Status: statusOK, Message: fmt.Sprintf("Schema up to date (%d migration(s))", len(applied))}
}

func checkIntegrity(database *db.DB) checkResult {
	var result string
	if err := database.Get(&result, "PRAGMA integrity_check"); err != nil {
		return checkResult{Name: "integrity_check", Status: statusError, Message: fmt.Sprintf("Integrity check failed: %v", err)}
	}
	if result != "ok" {
		return checkResult{Name: "integrity_check", Status: statusError, Message: "Database integrity check failed", Details: []string{result}}
	}
	return checkResult{Name: "integrity_check", Status: statusOK, Message: "Database integrity check passed"}
}

func checkSequenceDrift(database *db.DB) checkResult {
	drifts, err := database.SequenceDrifts(db.DefaultSequenceSpecs())
	if err != nil {
		return checkResult{Name: "sequence_drift", Status: statusError, Message: fmt.Sprintf("Failed to check task index counter: %v", err)}
	}
	if len(drifts) == 0 {
		return checkResult{Name: "sequence_drift", Status: statusOK, Message: "Task index counter is in sync"}
	}

	details := make([]string, 0, len(drifts))
	for _, drift := range drifts {
		details = append(details, fmt.Sprintf("%s: counter=%d, max_existing=%d", drift.SeqTable, drift.SeqValue, drift.MaxID))
	}
	return checkResult{
		Name:    "sequence_drift",
		Status:  statusError,
		Message: fmt.Sprintf("Task index counter behind existing indexes (%d counter(s)); run with --fix", len(drifts)),
		Details: details,
	}
}

func checkOrphans(app *appctx.App, cmd *cobra.Command) checkResult {
	orphans, err := app.Service.Orphans(cmd.Context())
	if err != nil {
		return checkResult{Name: "vcs_orphans", Status: statusError, Message: fmt.Sprintf("Failed to check orphans: %v", err)}
	}
	if len(orphans) == 0 {
		return checkResult{Name: "vcs_orphans", Status: statusOK, Message: "No projects only in version control"}
	}
	status, verb := statusWarning, "omitted from"
	if app.Config.StrictOrphans {
		status, verb = statusOK, "included in"
	}
	return checkResult{
		Name:    "vcs_orphans",
		Status:  status,
		Message: fmt.Sprintf("%d project(s) only in version control, %s the summary", len(orphans), verb),
		Details: orphans,
	}
}

func applyFixes(database *db.DB) []string {
	drifts, err := database.FixSequenceDrifts(db.DefaultSequenceSpecs())
	switch {
	case err != nil:
		return []string{fmt.Sprintf("Task index counter repair failed: %v", err)}
	case len(drifts) > 0:
		return []string{fmt.Sprintf("Advanced %d task index counter(s)", len(drifts))}
	default:
		return []string{"No task index counter drift detected"}
	}
}

func printDoctorReport(cmd *cobra.Command, report *doctorReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tosumadm doctor %s\n\n", report.Version)
	fmt.Fprintf(out, "Database: %s (%s)\n\n", report.Database, report.Driver)

	for _, check := range report.Checks {
		icon := "✓"
		if check.Status == statusWarning {
			icon = "⚠"
		} else if check.Status == statusError {
			icon = "✗"
		}
		fmt.Fprintf(out, "  %s %s\n", icon, check.Message)

		if doctorAdmVerbose || check.Status != statusOK {
			for _, detail := range check.Details {
				fmt.Fprintf(out, "      %s\n", detail)
			}
		}
	}

	if len(report.Fixes) > 0 {
		fmt.Fprintln(out, "\n--fix results")
		for _, f := range report.Fixes {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}

	fmt.Fprintln(out)
	switch {
	case report.Errors > 0:
		fmt.Fprintf(out, "Summary: %d error(s), %d warning(s)\n", report.Errors, report.Warnings)
	case report.Warnings > 0:
		fmt.Fprintf(out, "Summary: %d warning(s)\n", report.Warnings)
	default:
		fmt.Fprintln(out, "Summary: All checks passed ✓")
	}
}
