package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/events"
)

// VersionControlStore manages NX-domain SVN/git provenance records.
type VersionControlStore struct {
	store *Store
}

var versionControlColumns = []string{
	"project_name", "sanity_svn", "sanity_svn_ver", "release_svn", "release_svn_ver",
	"git_path", "git_version", "golden_checklist", "golden_checklist_version",
}

func versionControlArgs(vc *domain.VersionControlRecord) []any {
	return []any{
		vc.ProjectName, vc.SanitySVN, vc.SanitySVNVer, vc.ReleaseSVN, vc.ReleaseSVNVer,
		vc.GitPath, vc.GitVersion, vc.GoldenChecklist, vc.GoldenChecklistVersion,
	}
}

// Upsert inserts or replaces version control records keyed by project_name.
func (vs *VersionControlStore) Upsert(ctx context.Context, records []domain.VersionControlRecord) *bulk.Report {
	query := vs.store.db.Rebind(upsertSQL("version_control", versionControlColumns, "updated_at = CURRENT_TIMESTAMP"))
	label := func(i int) string {
		return fmt.Sprintf("version control %q", records[i].ProjectName)
	}

	return vs.store.runBatch(ctx, "", "version_control", len(records), label,
		func(ctx context.Context, tx *sqlx.Tx, ew *events.Writer, i int) error {
			rec := records[i]
			rec.ProjectName = domain.NormalizeKey(rec.ProjectName).String()
			if err := domain.ValidateVersionControl(&rec); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, versionControlArgs(&rec)...); err != nil {
				return fmt.Errorf("upsert failed: %w", err)
			}
			return ew.LogNXLoaded(ctx, tx, events.VCSLoaded, rec.ProjectName)
		})
}

// Get returns the version control record of a project.
func (vs *VersionControlStore) Get(ctx context.Context, projectName string) (*domain.VersionControlRecord, error) {
	query := fmt.Sprintf("SELECT id, %s FROM version_control WHERE project_name = ?", strings.Join(versionControlColumns, ", "))
	var rec domain.VersionControlRecord
	err := vs.store.db.GetContext(ctx, &rec, vs.store.db.Rebind(query), domain.NormalizeKey(projectName).String())
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Identifier: projectName}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get version control", Err: err}
	}
	return &rec, nil
}

// List returns all version control records ordered by project name.
func (vs *VersionControlStore) List(ctx context.Context) ([]*domain.VersionControlRecord, error) {
	query := fmt.Sprintf("SELECT id, %s FROM version_control ORDER BY project_name", strings.Join(versionControlColumns, ", "))
	var recs []*domain.VersionControlRecord
	if err := vs.store.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, &domain.StoreError{Op: "list version control", Err: err}
	}
	return recs, nil
}
