package tosum

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/selectors"
	"github.com/lherron/tosum/internal/store"
	"github.com/lherron/tosum/internal/testutil"
	"github.com/lherron/tosum/internal/webhooks"
)

const projectsCSV = `project_name,ip,task_index,dv_engineer,business_unit
alpha,usb,TASK001,jane,CN
beta,pcie,TASK002,john,PC
gamma,ddr,TASK003,kim,XX
`

func setupService(t *testing.T, opts ...store.Option) *Service {
	t.Helper()
	return New(testutil.TempStore(t, opts...), nil)
}

func TestImportFileAggregatesRowErrors(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)
	path := testutil.WriteFile(t, t.TempDir(), "projects.csv", projectsCSV)

	report := svc.ImportFile(ctx, path, "")
	require.NoError(t, report.Err)
	require.Equal(t, 3, report.TotalItems)
	require.Equal(t, 2, report.SuccessCount)
	require.Equal(t, 1, report.ErrorCount)
	require.Len(t, report.Errors, 1)
	require.Contains(t, report.Errors[0], "row 3")
	require.Contains(t, report.Errors[0], "business_unit")
	require.Equal(t, 5, report.ExitCode())

	views, err := svc.GetMergedView(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "alpha", views[0].ProjectName)
	require.Equal(t, "beta", views[1].ProjectName)
}

func TestImportBatchMalformed(t *testing.T) {
	svc := setupService(t)

	report := svc.ImportBatch(context.Background(), [][]string{{"project_name", "ip"}})
	var malformed *domain.MalformedInputError
	require.ErrorAs(t, report.Err, &malformed)
	require.Zero(t, report.SuccessCount)
	require.Equal(t, 1, report.ExitCode())
}

func TestImportFileMissing(t *testing.T) {
	svc := setupService(t)
	report := svc.ImportFile(context.Background(), "/nonexistent/projects.csv", "")
	require.Error(t, report.Err)
	require.Equal(t, 1, report.ExitCode())
}

func TestGetProjectByID(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)
	require.NoError(t, svc.ImportBatch(ctx, [][]string{
		{"project_name", "task_index"},
		{"alpha", "TASK001"},
		{"beta", "TASK002"},
		{"id:alpha", ""},
		{"key:beta", ""},
	}).Err)

	views, err := svc.GetMergedView(ctx)
	require.NoError(t, err)
	betaID := *views[1].ID

	tests := []struct {
		identifier string
		want       string
	}{
		{"alpha", "alpha"},
		{" alpha ", "alpha"},
		{"TASK002", "beta"},
		{"id:alpha", "id:alpha"},
		{"key:beta", "key:beta"},
	}
	for _, tt := range tests {
		view, err := svc.GetProjectByID(ctx, tt.identifier)
		require.NoError(t, err, tt.identifier)
		require.Equal(t, tt.want, view.ProjectName)
	}

	view, err := svc.GetProjectByID(ctx, formatID(betaID))
	require.NoError(t, err)
	require.Equal(t, "beta", view.ProjectName)

	_, err = svc.GetProjectByID(ctx, "ALPHA")
	require.True(t, domain.IsNotFound(err))

	_, err = svc.GetProjectByID(ctx, "")
	require.True(t, domain.IsNotFound(err))

	_, err = svc.GetProjectByID(ctx, "key:TASK001")
	require.True(t, domain.IsNotFound(err), "prefixes are part of the identifier")
}

func TestLookupProjectTyped(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)
	require.NoError(t, svc.ImportBatch(ctx, [][]string{
		{"project_name", "task_index"},
		{"alpha", "1"},
		{"beta", "TASK002"},
	}).Err)

	views, err := svc.GetMergedView(ctx)
	require.NoError(t, err)
	betaID := *views[1].ID

	view, err := svc.LookupProject(ctx, selectors.TypeID, formatID(betaID))
	require.NoError(t, err)
	require.Equal(t, "beta", view.ProjectName)

	_, err = svc.LookupProject(ctx, selectors.TypeID, "alpha")
	require.True(t, domain.IsNotFound(err))

	view, err = svc.LookupProject(ctx, selectors.TypeKey, "1")
	require.NoError(t, err)
	require.Equal(t, "alpha", view.ProjectName)
}

func TestLoadNXFilesJoinSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)
	dir := t.TempDir()

	require.NoError(t, svc.ImportBatch(ctx, [][]string{{"project_name"}, {"alpha"}}).Err)

	coverage := testutil.WriteFile(t, dir, "coverage.csv",
		"project_name,line_coverage,fsm_coverage,to_date\nalpha,95.5%,,2024-03-01\ncov-only,80,,\nbad,101,,\n")
	report := svc.LoadCoverage(ctx, coverage, "")
	require.NoError(t, report.Err)
	require.Equal(t, 2, report.SuccessCount)
	require.Equal(t, 1, report.ErrorCount)

	vcs := testutil.WriteFile(t, dir, "vcs.csv",
		"project_name,git_version\nalpha,0123456789abcdef0123456789abcdef01234567\nvcs-only,abc1234\n")
	report = svc.LoadVersionControl(ctx, vcs, "")
	require.NoError(t, report.Err)
	require.Equal(t, 2, report.SuccessCount)

	views, err := svc.GetMergedView(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "alpha", views[0].ProjectName)
	require.Equal(t, 95.5, *views[0].LineCoverage)
	require.Equal(t, "0123456789abcdef0123456789abcdef01234567", *views[0].GitVersion)
	require.Equal(t, "cov-only", views[1].ProjectName)
	require.Nil(t, views[1].ID)

	orphans, err := svc.Orphans(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"vcs-only"}, orphans)
}

func TestStrictOrphansIncluded(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t, store.WithStrictOrphans(true))
	vcs := testutil.WriteFile(t, t.TempDir(), "vcs.csv", "project_name,git_path\nvcs-only,git@host:vcs-only.git\n")

	require.NoError(t, svc.LoadVersionControl(ctx, vcs, "").Err)

	views, err := svc.GetMergedView(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "vcs-only", views[0].ProjectName)
	require.Nil(t, views[0].LineCoverage)
}

func TestImportNotifiesWebhooks(t *testing.T) {
	payloads := make(chan webhooks.Payload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p webhooks.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)
		payloads <- p
	}))
	defer server.Close()

	svc := New(testutil.TempStore(t), nil, WithWebhooks(webhooks.NewDispatcher([]string{server.URL}, nil)))
	report := svc.ImportBatch(context.Background(), [][]string{
		{"project_name", "reuse_ip"},
		{"alpha", "Y"},
		{"beta", "maybe"},
	})

	p := <-payloads
	require.Equal(t, report.BatchID, p.BatchID)
	require.Equal(t, "snapshot", p.Kind)
	require.Equal(t, 1, p.SuccessCount)
	require.Equal(t, 1, p.ErrorCount)
	require.False(t, p.RolledBack)
}
