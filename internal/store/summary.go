package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lherron/tosum/internal/domain"
)

// SummaryStore computes the TO summary: the merged view over the imported
// snapshot, coverage and version control records. It is never persisted.
type SummaryStore struct {
	store *Store
}

// source identifies which table feeds a merged-view row.
type source int

const (
	fromSnapshot source = iota
	fromCoverage
	fromVersionControl
)

var (
	itOnlyColumns       = columnSet(domain.ProjectColumns...)
	coverageOnlyColumns = columnSet(coverageColumns[1:]...)
	vcsOnlyColumns      = columnSet(versionControlColumns[1:]...)
)

func columnSet(cols ...string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// selectList renders the merged columns for one query shape. Columns the
// shape's sources do not have are forced to NULL.
func selectList(src source) string {
	exprs := make([]string, 0, len(domain.MergedColumns))
	for _, col := range domain.MergedColumns {
		var expr string
		switch {
		case col == "id":
			expr = "NULL"
			if src == fromSnapshot {
				expr = "i.id"
			}
		case col == "project_name":
			expr = [...]string{"i.project_name", "c.project_name", "v.project_name"}[src]
		case itOnlyColumns[col]:
			expr = "NULL"
			if src == fromSnapshot {
				expr = "i." + col
			}
		case coverageOnlyColumns[col]:
			expr = "NULL"
			if src != fromVersionControl {
				expr = "c." + col
			}
		case vcsOnlyColumns[col]:
			expr = "v." + col
		default:
			panic(fmt.Sprintf("merged column %q has no source", col))
		}
		exprs = append(exprs, expr+" AS "+col)
	}
	return strings.Join(exprs, ", ")
}

// mergedQuery builds the union of the query shapes:
//
//   - every snapshot row, left-joined to coverage and version control;
//   - every coverage row without a snapshot row, left-joined to version control;
//   - with includeOrphans, every version control row with neither.
//
// The shapes have disjoint keys, so the union needs no deduplication.
func mergedQuery(includeOrphans bool) string {
	shapes := []string{
		"SELECT " + selectList(fromSnapshot) + `
		FROM imported_projects i
		LEFT JOIN coverage_reports c ON c.project_name = i.project_name
		LEFT JOIN version_control v ON v.project_name = i.project_name`,

		"SELECT " + selectList(fromCoverage) + `
		FROM coverage_reports c
		LEFT JOIN version_control v ON v.project_name = c.project_name
		WHERE NOT EXISTS (SELECT 1 FROM imported_projects i WHERE i.project_name = c.project_name)`,
	}
	if includeOrphans {
		shapes = append(shapes, "SELECT "+selectList(fromVersionControl)+`
		FROM version_control v
		WHERE NOT EXISTS (SELECT 1 FROM imported_projects i WHERE i.project_name = v.project_name)
		  AND NOT EXISTS (SELECT 1 FROM coverage_reports c WHERE c.project_name = v.project_name)`)
	}
	return strings.Join(shapes, "\nUNION ALL\n")
}

func (ss *SummaryStore) query(ctx context.Context, where string, args ...any) ([]*domain.MergedProjectView, error) {
	query := "SELECT * FROM (" + mergedQuery(ss.store.strictOrphans) + ") merged"
	if where != "" {
		query += " WHERE " + where
	}

	var rows []*domain.MergedProjectView
	if err := ss.store.db.SelectContext(ctx, &rows, ss.store.db.Rebind(query), args...); err != nil {
		return nil, &domain.StoreError{Op: "merge", Err: err}
	}
	SortViews(rows)
	return rows, nil
}

// SortViews orders merged rows by project key, byte-wise and case-sensitive,
// with empty keys first. Rows with equal keys keep their relative order.
func SortViews(rows []*domain.MergedProjectView) {
	sort.SliceStable(rows, func(a, b int) bool {
		return domain.CompareKeys(rows[a].ProjectName, rows[b].ProjectName) < 0
	})
}

// List returns the merged view, one row per project, ordered by project key.
// Projects known only to version control are omitted unless the store was
// opened with WithStrictOrphans; see Orphans.
func (ss *SummaryStore) List(ctx context.Context) ([]*domain.MergedProjectView, error) {
	return ss.query(ctx, "")
}

// FindByID returns the merged row whose snapshot surrogate id is id.
func (ss *SummaryStore) FindByID(ctx context.Context, id int64) (*domain.MergedProjectView, error) {
	rows, err := ss.query(ctx, "merged.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.NotFoundError{Identifier: fmt.Sprintf("%d", id)}
	}
	return rows[0], nil
}

// FindByNaturalKey returns the first merged row, in view order, whose project
// name or task index equals key exactly.
func (ss *SummaryStore) FindByNaturalKey(ctx context.Context, key string) (*domain.MergedProjectView, error) {
	k := domain.NormalizeKey(key)
	if k.IsZero() {
		return nil, &domain.NotFoundError{Identifier: key}
	}
	rows, err := ss.query(ctx, "merged.project_name = ? OR merged.task_index = ?", k.String(), k.String())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.NotFoundError{Identifier: key}
	}
	return rows[0], nil
}

// Orphans returns the names of projects present only in version control.
// The default merged view drops them.
func (ss *SummaryStore) Orphans(ctx context.Context) ([]string, error) {
	var names []string
	err := ss.store.db.SelectContext(ctx, &names, `
		SELECT v.project_name FROM version_control v
		WHERE NOT EXISTS (SELECT 1 FROM imported_projects i WHERE i.project_name = v.project_name)
		  AND NOT EXISTS (SELECT 1 FROM coverage_reports c WHERE c.project_name = v.project_name)
		ORDER BY v.project_name
	`)
	if err != nil {
		return nil, &domain.StoreError{Op: "orphans", Err: err}
	}
	return names, nil
}
