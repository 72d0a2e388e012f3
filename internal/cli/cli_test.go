package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lherron/tosum/internal/cli/appctx"
	"github.com/lherron/tosum/internal/config"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/ingest"
	"github.com/lherron/tosum/internal/store"
	"github.com/lherron/tosum/internal/testutil"
	"github.com/lherron/tosum/internal/tosum"
)

// createTestApp builds an App over a fresh migrated database.
func createTestApp(t *testing.T, output string) *appctx.App {
	t.Helper()
	database, dbPath := testutil.TempDB(t)
	logger := zap.NewNop()
	st := store.New(database, store.WithLogger(logger))
	return &appctx.App{
		Config:  &config.Config{Driver: "sqlite3", DSN: dbPath, Output: output},
		Logger:  logger,
		DB:      database,
		Store:   st,
		Service: tosum.New(st, logger),
	}
}

func testCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetContext(context.Background())
	return cmd, stdout, stderr
}

const importCSV = `project_name,ip,task_index,dv_engineer,business_unit,wiki_url
alpha,usb,TASK001,jane,CN,https://wiki.example.com/alpha
beta,pcie,TASK002,john,PC,
gamma,ddr,TASK003,kim,XX,
`

func TestImportCommand_PartialSuccess(t *testing.T) {
	app := createTestApp(t, "table")
	path := testutil.WriteFile(t, t.TempDir(), "projects.csv", importCSV)

	cmd, stdout, _ := testCmd()
	err := runImport(app, cmd, []string{path})

	require.Error(t, err)
	require.Equal(t, 5, ExitCode(err))
	require.Contains(t, stdout.String(), "Partial success: 2 imported, 1 failed (out of 3)")
	require.Contains(t, stdout.String(), "row 3")
}

func TestImportCommand_JSONReport(t *testing.T) {
	app := createTestApp(t, "json")
	path := testutil.WriteFile(t, t.TempDir(), "projects.csv", "project_name\nalpha\nbeta\n")

	cmd, stdout, _ := testCmd()
	require.NoError(t, runImport(app, cmd, []string{path}))

	var report struct {
		BatchID      string   `json:"batch_id"`
		SuccessCount int      `json:"success_count"`
		ErrorCount   int      `json:"error_count"`
		Errors       []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.NotEmpty(t, report.BatchID)
	require.Equal(t, 2, report.SuccessCount)
	require.Zero(t, report.ErrorCount)
	require.Empty(t, report.Errors)
}

func TestImportCommand_Stdin(t *testing.T) {
	app := createTestApp(t, "table")

	cmd, stdout, _ := testCmd()
	cmd.SetIn(strings.NewReader("project_name,ip\n\"alpha, rev 2\",usb\n"))
	require.NoError(t, runImport(app, cmd, []string{"-"}))
	require.Contains(t, stdout.String(), "All 1 rows imported")

	view, err := app.Service.GetProjectByID(context.Background(), "alpha, rev 2")
	require.NoError(t, err)
	require.Equal(t, "usb", *view.IP)
}

func TestImportCommand_Malformed(t *testing.T) {
	app := createTestApp(t, "table")
	path := testutil.WriteFile(t, t.TempDir(), "empty.csv", "project_name,ip\n")

	cmd, _, _ := testCmd()
	err := runImport(app, cmd, []string{path})
	require.Equal(t, 1, ExitCode(err))
	var malformed *domain.MalformedInputError
	require.ErrorAs(t, err, &malformed)
}

func TestImportCommand_DryRun(t *testing.T) {
	app := createTestApp(t, "table")
	path := testutil.WriteFile(t, t.TempDir(), "projects.csv", importCSV)

	importDryRun = true
	defer func() { importDryRun = false }()

	cmd, stdout, _ := testCmd()
	require.NoError(t, runImport(app, cmd, []string{path}))
	require.Contains(t, stdout.String(), "create    alpha")
	require.Contains(t, stdout.String(), "+dv_engineer: jane")
	require.Contains(t, stdout.String(), "Dry run: 2 to create, 0 to update, 0 unchanged, 1 rejected")

	count, err := app.Store.Snapshot.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSummaryCommand_CSVRoundTrip(t *testing.T) {
	app := createTestApp(t, "csv")
	ctx := context.Background()
	require.NoError(t, app.Service.ImportBatch(ctx, [][]string{
		{"project_name", "alternative_name"},
		{"beta", `PCIe "gen 4", x16`},
		{"alpha", ""},
	}).Err)

	cmd, stdout, stderr := testCmd()
	require.NoError(t, runSummary(app, cmd, nil))
	require.Empty(t, stderr.String())

	records, err := ingest.ReadCSV(stdout)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "project_name", records[0][2])
	require.Equal(t, "alpha", records[1][2])
	require.Equal(t, "beta", records[2][2])
	require.Contains(t, records[2], `PCIe "gen 4", x16`)
}

func TestSummaryCommand_WarnsAboutOrphans(t *testing.T) {
	app := createTestApp(t, "table")
	ctx := context.Background()
	report := app.Store.VersionControl.Upsert(ctx, []domain.VersionControlRecord{{ProjectName: "vcs-only"}})
	require.NoError(t, report.Err)

	cmd, _, stderr := testCmd()
	require.NoError(t, runSummary(app, cmd, nil))
	require.Contains(t, stderr.String(), "vcs-only")
}

func TestSummaryCommand_Match(t *testing.T) {
	app := createTestApp(t, "csv")
	ctx := context.Background()
	require.NoError(t, app.Service.ImportBatch(ctx, [][]string{
		{"project_name", "task_index"},
		{"usb_ctrl", "TASK001"},
		{"usb_phy", "TASK002"},
		{"pcie", "TASK003"},
	}).Err)

	summaryMatch = []string{"usb*"}
	defer func() { summaryMatch = nil }()

	cmd, stdout, _ := testCmd()
	require.NoError(t, runSummary(app, cmd, nil))
	records, err := ingest.ReadCSV(stdout)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "usb_ctrl", records[1][2])
	require.Equal(t, "usb_phy", records[2][2])

	summaryMatch = []string{"[usb"}
	cmd, _, _ = testCmd()
	err = runSummary(app, cmd, nil)
	require.Error(t, err)
	require.Equal(t, 2, ExitCode(err))
}

func TestShowCommand(t *testing.T) {
	app := createTestApp(t, "json")
	ctx := context.Background()
	require.NoError(t, app.Service.ImportBatch(ctx, [][]string{{"project_name", "task_index"}, {"alpha", "TASK007"}}).Err)

	cmd, stdout, _ := testCmd()
	require.NoError(t, runShow(app, cmd, []string{"TASK007"}))

	var view map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &view))
	require.Equal(t, "alpha", view["project_name"])
	require.Nil(t, view["line_coverage"])

	cmd, _, _ = testCmd()
	err := runShow(app, cmd, []string{"nope"})
	require.True(t, domain.IsNotFound(err))
	require.Equal(t, 3, ExitCode(err))
}

func TestShowCommand_By(t *testing.T) {
	app := createTestApp(t, "json")
	ctx := context.Background()
	require.NoError(t, app.Service.ImportBatch(ctx, [][]string{
		{"project_name", "task_index"},
		{"id:alpha", "TASK001"},
		{"beta", "1"},
	}).Err)
	defer func() { showBy = "auto" }()

	cmd, stdout, _ := testCmd()
	require.NoError(t, runShow(app, cmd, []string{"id:alpha"}))
	var view map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &view))
	require.Equal(t, "id:alpha", view["project_name"])

	// Surrogate id 1 belongs to id:alpha; --by key reaches beta's task index
	showBy = "key"
	cmd, stdout, _ = testCmd()
	require.NoError(t, runShow(app, cmd, []string{"1"}))
	view = nil
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &view))
	require.Equal(t, "beta", view["project_name"])

	showBy = "name"
	cmd, _, _ = testCmd()
	err := runShow(app, cmd, []string{"beta"})
	require.Equal(t, 2, ExitCode(err))
}

func TestProjectsCommands(t *testing.T) {
	app := createTestApp(t, "json")
	defer func() { projectsSet = nil }()

	projectsSet = []string{"ip=usb", "business_unit=CN"}
	cmd, stdout, _ := testCmd()
	require.NoError(t, runProjectsAdd(app, cmd, []string{"alpha"}))
	require.Contains(t, stdout.String(), "Created project alpha")
	require.Contains(t, stdout.String(), "TASK001")

	projectsSet = []string{"bogus=1"}
	cmd, _, _ = testCmd()
	err := runProjectsAdd(app, cmd, []string{"beta"})
	require.Equal(t, 2, ExitCode(err))

	projectsSet = []string{"dv_engineer=kim"}
	cmd, stdout, _ = testCmd()
	require.NoError(t, runProjectsUpdate(app, cmd, []string{"1"}))
	require.Contains(t, stdout.String(), "Updated project alpha")

	projectsSet = []string{"business_unit=XX"}
	cmd, _, _ = testCmd()
	err = runProjectsUpdate(app, cmd, []string{"1"})
	require.True(t, domain.IsValidation(err))

	cmd, stdout, _ = testCmd()
	require.NoError(t, runProjectsList(app, cmd, nil))
	var projects []domain.ProjectRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &projects))
	require.Len(t, projects, 1)
	require.Equal(t, "kim", projects[0].DVEngineer)
	require.Equal(t, domain.DefaultIPSubtype, projects[0].IPSubtype)
}

func TestProjectsExportFeedsImport(t *testing.T) {
	app := createTestApp(t, "table")
	ctx := context.Background()
	for _, name := range []string{"alpha", "beta"} {
		_, err := app.Store.Projects.Create(ctx, domain.ProjectRecord{ProjectName: name, SpecPath: "/specs/" + name + ",v2"})
		require.NoError(t, err)
	}

	cmd, stdout, _ := testCmd()
	require.NoError(t, runProjectsExport(app, cmd, nil))

	records, err := ingest.ReadCSV(stdout)
	require.NoError(t, err)
	report := app.Service.ImportBatch(ctx, records)
	require.NoError(t, report.Err)
	require.Equal(t, 2, report.SuccessCount)

	snap, err := app.Store.Snapshot.Get(ctx, "beta")
	require.NoError(t, err)
	require.Equal(t, "/specs/beta,v2", snap.SpecPath)
	require.Equal(t, "TASK002", snap.TaskIndex)
}

func TestSyncCommand(t *testing.T) {
	app := createTestApp(t, "table")
	ctx := context.Background()
	_, err := app.Store.Projects.Create(ctx, domain.ProjectRecord{ProjectName: "alpha"})
	require.NoError(t, err)

	cmd, stdout, _ := testCmd()
	require.NoError(t, runSync(app, cmd, nil))
	require.Contains(t, stdout.String(), "All 1 rows imported")

	views, err := app.Service.GetMergedView(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
}

func TestParseSetFlags(t *testing.T) {
	fields, err := parseSetFlags([]string{"IP=usb", "spec_path=/a=b"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"ip": "usb", "spec_path": "/a=b"}, fields)

	_, err = parseSetFlags([]string{"novalue"})
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 5, ExitCode(exitError(5, errors.New("partial"))))
	require.Equal(t, 3, ExitCode(&domain.NotFoundError{Identifier: "x"}))
	require.Equal(t, 1, ExitCode(errors.New("boom")))
}
