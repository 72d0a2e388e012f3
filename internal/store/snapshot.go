package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/events"
)

// SnapshotStore manages the imported snapshot: the NX-side copy of the
// IT-domain project records.
type SnapshotStore struct {
	store *Store
}

var snapshotColumns = append(append([]string{}, domain.ProjectColumns...), "import_date", "import_batch")

// ImportBatch upserts records into the snapshot keyed by project_name. A
// record that fails validation or a constraint is reported and skipped; the
// other records are still applied. Importing the same records again leaves
// the snapshot with the same rows and values; only the import metadata moves.
func (ss *SnapshotStore) ImportBatch(ctx context.Context, records []domain.ProjectRecord) *bulk.Report {
	batchID := uuid.NewString()
	importedAt := time.Now().UTC()
	query := ss.store.db.Rebind(upsertSQL("imported_projects", snapshotColumns))

	label := func(i int) string {
		return fmt.Sprintf("project %q", records[i].ProjectName)
	}

	return ss.store.runBatch(ctx, batchID, "snapshot", len(records), label,
		func(ctx context.Context, tx *sqlx.Tx, ew *events.Writer, i int) error {
			rec := records[i]
			rec.ProjectName = rec.Key().String()
			if err := domain.ValidateProject(&rec); err != nil {
				return err
			}

			args := append(projectArgs(&rec), importedAt, batchID)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert failed: %w", err)
			}
			return ew.LogProjectImported(ctx, tx, batchID, &rec)
		})
}

// SyncFromProjects materializes the IT-domain projects table into the
// snapshot through the same upsert path as a file import.
func (ss *SnapshotStore) SyncFromProjects(ctx context.Context) (*bulk.Report, error) {
	projects, err := ss.store.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]domain.ProjectRecord, len(projects))
	for i, p := range projects {
		records[i] = *p
		records[i].ID = 0
	}
	return ss.ImportBatch(ctx, records), nil
}

// List returns all snapshot rows ordered by project name.
func (ss *SnapshotStore) List(ctx context.Context) ([]*domain.SnapshotRecord, error) {
	query := fmt.Sprintf("SELECT id, %s FROM imported_projects ORDER BY project_name", strings.Join(snapshotColumns, ", "))
	var rows []*domain.SnapshotRecord
	if err := ss.store.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, &domain.StoreError{Op: "list snapshot", Err: err}
	}
	return rows, nil
}

// Get returns the snapshot row for a project name.
func (ss *SnapshotStore) Get(ctx context.Context, projectName string) (*domain.SnapshotRecord, error) {
	key := domain.NormalizeKey(projectName)
	query := fmt.Sprintf("SELECT id, %s FROM imported_projects WHERE project_name = ?", strings.Join(snapshotColumns, ", "))

	var rec domain.SnapshotRecord
	err := ss.store.db.GetContext(ctx, &rec, ss.store.db.Rebind(query), key.String())
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Identifier: projectName}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get snapshot", Err: err}
	}
	return &rec, nil
}

// Count returns the number of snapshot rows.
func (ss *SnapshotStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := ss.store.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM imported_projects"); err != nil {
		return 0, &domain.StoreError{Op: "count snapshot", Err: err}
	}
	return n, nil
}
