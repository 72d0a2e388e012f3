package tosum

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func formatID(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestPreviewDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	svc := setupService(t)
	require.NoError(t, svc.ImportBatch(ctx, [][]string{
		{"project_name", "dv_engineer"},
		{"alpha", "jane"},
		{"beta", "john"},
	}).Err)

	preview, err := svc.PreviewBatch(ctx, [][]string{
		{"project_name", "dv_engineer", "business_unit"},
		{"alpha", "kim", ""},
		{"beta", "john", ""},
		{"gamma", "lee", ""},
		{"delta", "", "XX"},
	})
	require.NoError(t, err)
	require.Len(t, preview.Rows, 3)
	require.Equal(t, 1, preview.Report.ErrorCount)

	created, updated, unchanged := preview.Counts()
	require.Equal(t, 1, created)
	require.Equal(t, 1, updated)
	require.Equal(t, 1, unchanged)

	alpha := preview.Rows[0]
	require.Equal(t, ActionUpdate, alpha.Action)
	require.Contains(t, alpha.Diff, "--- snapshot/alpha")
	require.Contains(t, alpha.Diff, "-dv_engineer: jane")
	require.Contains(t, alpha.Diff, "+dv_engineer: kim")

	require.Equal(t, ActionUnchanged, preview.Rows[1].Action)
	require.Empty(t, preview.Rows[1].Diff)

	require.Equal(t, ActionCreate, preview.Rows[2].Action)
	require.Contains(t, preview.Rows[2].Diff, "+project_name: gamma")

	snapshot, err := svc.Store().Snapshot.Get(ctx, "alpha")
	require.NoError(t, err)
	require.Equal(t, "jane", snapshot.DVEngineer)

	_, err = svc.Store().Snapshot.Get(ctx, "gamma")
	require.Error(t, err)
}

func TestPreviewDuplicateRows(t *testing.T) {
	svc := setupService(t)

	preview, err := svc.PreviewBatch(context.Background(), [][]string{
		{"project_name", "ip"},
		{"alpha", "usb"},
		{"alpha", "usb"},
		{"alpha", "pcie"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{ActionCreate, ActionUnchanged, ActionUpdate},
		[]string{preview.Rows[0].Action, preview.Rows[1].Action, preview.Rows[2].Action})
}
