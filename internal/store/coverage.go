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

// CoverageStore manages NX-domain coverage records. They are written by the
// external coverage ingestion and are read-only to the summary.
type CoverageStore struct {
	store *Store
}

var coverageColumns = []string{
	"project_name", "line_coverage", "fsm_coverage", "interface_toggle_coverage", "toggle_coverage",
	"coverage_report_path", "to_date", "rtl_last_update", "to_report_creation",
}

func coverageArgs(c *domain.CoverageRecord) []any {
	return []any{
		c.ProjectName, c.LineCoverage, c.FSMCoverage, c.InterfaceToggleCoverage, c.ToggleCoverage,
		c.CoverageReportPath, c.TODate, c.RTLLastUpdate, c.TOReportCreation,
	}
}

// Upsert inserts or replaces coverage records keyed by project_name.
func (cs *CoverageStore) Upsert(ctx context.Context, records []domain.CoverageRecord) *bulk.Report {
	query := cs.store.db.Rebind(upsertSQL("coverage_reports", coverageColumns, "updated_at = CURRENT_TIMESTAMP"))
	label := func(i int) string {
		return fmt.Sprintf("coverage %q", records[i].ProjectName)
	}

	return cs.store.runBatch(ctx, "", "coverage", len(records), label,
		func(ctx context.Context, tx *sqlx.Tx, ew *events.Writer, i int) error {
			rec := records[i]
			rec.ProjectName = domain.NormalizeKey(rec.ProjectName).String()
			if err := domain.ValidateCoverage(&rec); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, coverageArgs(&rec)...); err != nil {
				return fmt.Errorf("upsert failed: %w", err)
			}
			return ew.LogNXLoaded(ctx, tx, events.CoverageLoaded, rec.ProjectName)
		})
}

// Get returns the coverage record of a project.
func (cs *CoverageStore) Get(ctx context.Context, projectName string) (*domain.CoverageRecord, error) {
	query := fmt.Sprintf("SELECT id, %s FROM coverage_reports WHERE project_name = ?", strings.Join(coverageColumns, ", "))
	var rec domain.CoverageRecord
	err := cs.store.db.GetContext(ctx, &rec, cs.store.db.Rebind(query), domain.NormalizeKey(projectName).String())
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Identifier: projectName}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get coverage", Err: err}
	}
	return &rec, nil
}

// List returns all coverage records ordered by project name.
func (cs *CoverageStore) List(ctx context.Context) ([]*domain.CoverageRecord, error) {
	query := fmt.Sprintf("SELECT id, %s FROM coverage_reports ORDER BY project_name", strings.Join(coverageColumns, ", "))
	var recs []*domain.CoverageRecord
	if err := cs.store.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, &domain.StoreError{Op: "list coverage", Err: err}
	}
	return recs, nil
}
