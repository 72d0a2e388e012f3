package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/lherron/tosum/internal/cursor"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/events"
	"github.com/lherron/tosum/internal/id"
)

// ProjectStore handles IT-domain project persistence. Projects are created
// and updated but never deleted.
type ProjectStore struct {
	store *Store
}

var projectSelect = fmt.Sprintf("SELECT id, %s FROM projects", strings.Join(domain.ProjectColumns, ", "))

// Create validates and inserts a project. An empty task index is allocated
// from the task index counter. Returns the stored record.
func (ps *ProjectStore) Create(ctx context.Context, p domain.ProjectRecord) (*domain.ProjectRecord, error) {
	for _, dst := range projectFields(&p) {
		*dst = strings.TrimSpace(*dst)
	}
	p.ProjectName = p.Key().String()
	if p.IPSubtype == "" {
		p.IPSubtype = domain.DefaultIPSubtype
	}
	if err := domain.ValidateProject(&p); err != nil {
		return nil, err
	}

	err := ps.store.withTx(ctx, func(tx *sqlx.Tx, ew *events.Writer) error {
		if err := ensureUnique(ctx, tx, p.ProjectName, 0); err != nil {
			return err
		}

		if p.TaskIndex == "" {
			next, err := nextTaskIndex(ctx, tx)
			if err != nil {
				return err
			}
			p.TaskIndex = next
		}

		query := fmt.Sprintf("INSERT INTO projects (%s) VALUES (%s) RETURNING id",
			strings.Join(domain.ProjectColumns, ", "), placeholders(len(domain.ProjectColumns)))
		if err := tx.QueryRowxContext(ctx, tx.Rebind(query), projectArgs(&p)...).Scan(&p.ID); err != nil {
			return &domain.StoreError{Op: "create project", Err: err}
		}

		if err := ew.LogProjectCreated(ctx, tx, &p); err != nil {
			return &domain.StoreError{Op: "log event", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies field changes to the project with the given id. Keys of
// fields are column names; unknown columns are rejected.
func (ps *ProjectStore) Update(ctx context.Context, projectID int64, fields map[string]string) (*domain.ProjectRecord, error) {
	var updated *domain.ProjectRecord

	err := ps.store.withTx(ctx, func(tx *sqlx.Tx, ew *events.Writer) error {
		var current domain.ProjectRecord
		err := tx.GetContext(ctx, &current, tx.Rebind(projectSelect+" WHERE id = ?"), projectID)
		if err == sql.ErrNoRows {
			return &domain.NotFoundError{Identifier: fmt.Sprintf("%d", projectID)}
		}
		if err != nil {
			return &domain.StoreError{Op: "get project", Err: err}
		}

		next, changes, err := applyFields(current, fields)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			updated = &current
			return nil
		}
		if err := domain.ValidateProject(&next); err != nil {
			return err
		}
		if next.ProjectName != current.ProjectName {
			if err := ensureUnique(ctx, tx, next.ProjectName, projectID); err != nil {
				return err
			}
		}

		columns := make([]string, 0, len(changes))
		for col := range changes {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		var setClauses []string
		var args []any
		for _, col := range columns {
			setClauses = append(setClauses, col+" = ?")
			args = append(args, changes[col])
		}
		setClauses = append(setClauses, "updated_at = CURRENT_TIMESTAMP")
		args = append(args, projectID)

		query := fmt.Sprintf("UPDATE projects SET %s WHERE id = ?", strings.Join(setClauses, ", "))
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return &domain.StoreError{Op: "update project", Err: err}
		}

		changed := make(map[string]any, len(changes))
		for k, v := range changes {
			changed[k] = v
		}
		if err := ew.LogProjectUpdated(ctx, tx, &next, changed); err != nil {
			return &domain.StoreError{Op: "log event", Err: err}
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns the project with the given id.
func (ps *ProjectStore) Get(ctx context.Context, projectID int64) (*domain.ProjectRecord, error) {
	var p domain.ProjectRecord
	err := ps.store.db.GetContext(ctx, &p, ps.store.db.Rebind(projectSelect+" WHERE id = ?"), projectID)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Identifier: fmt.Sprintf("%d", projectID)}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get project", Err: err}
	}
	return &p, nil
}

// GetByName returns the project with the given name.
func (ps *ProjectStore) GetByName(ctx context.Context, name string) (*domain.ProjectRecord, error) {
	var p domain.ProjectRecord
	err := ps.store.db.GetContext(ctx, &p, ps.store.db.Rebind(projectSelect+" WHERE project_name = ?"), domain.NormalizeKey(name).String())
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Identifier: name}
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get project", Err: err}
	}
	return &p, nil
}

// List returns all projects ordered by project name.
func (ps *ProjectStore) List(ctx context.Context) ([]*domain.ProjectRecord, error) {
	var projects []*domain.ProjectRecord
	if err := ps.store.db.SelectContext(ctx, &projects, projectSelect+" ORDER BY project_name"); err != nil {
		return nil, &domain.StoreError{Op: "list projects", Err: err}
	}
	return projects, nil
}

// ListPage returns up to limit projects after the position encoded in
// pageCursor (empty for the first page), ordered by project name. next is
// empty when there are no more rows.
func (ps *ProjectStore) ListPage(ctx context.Context, limit int, pageCursor string) (projects []*domain.ProjectRecord, next string, err error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("page limit must be positive")
	}

	query := projectSelect
	var args []any
	if pageCursor != "" {
		c, err := cursor.Decode(pageCursor)
		if err != nil {
			return nil, "", err
		}
		where, params := c.WhereClause()
		query += " WHERE " + where
		args = params
	}
	// One extra row tells whether another page follows.
	query += " ORDER BY project_name, id LIMIT ?"
	args = append(args, limit+1)

	if err := ps.store.db.SelectContext(ctx, &projects, ps.store.db.Rebind(query), args...); err != nil {
		return nil, "", &domain.StoreError{Op: "list projects", Err: err}
	}
	if len(projects) <= limit {
		return projects, "", nil
	}

	projects = projects[:limit]
	last := projects[limit-1]
	c, err := cursor.New(last.ProjectName, last.ID)
	if err != nil {
		return nil, "", err
	}
	next, err = c.Encode()
	if err != nil {
		return nil, "", err
	}
	return projects, next, nil
}

// NextTaskIndex allocates a task index outside of a project insert.
func (ps *ProjectStore) NextTaskIndex(ctx context.Context) (string, error) {
	var next string
	err := ps.store.withTx(ctx, func(tx *sqlx.Tx, _ *events.Writer) error {
		var err error
		next, err = nextTaskIndex(ctx, tx)
		return err
	})
	return next, err
}

// nextTaskIndex draws from the task index counter. The counter is a single
// atomic insert, so concurrent writers never receive the same index; values
// drawn by rolled back transactions leave gaps.
func nextTaskIndex(ctx context.Context, tx *sqlx.Tx) (string, error) {
	var n int64
	if err := tx.QueryRowxContext(ctx, "INSERT INTO task_index_seq DEFAULT VALUES RETURNING n").Scan(&n); err != nil {
		return "", &domain.StoreError{Op: "allocate task index", Err: err}
	}
	return id.FormatTaskIndex(n), nil
}

func ensureUnique(ctx context.Context, tx *sqlx.Tx, name string, exceptID int64) error {
	var count int
	err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM projects WHERE project_name = ? AND id <> ?"), name, exceptID)
	if err != nil {
		return &domain.StoreError{Op: "check project name", Err: err}
	}
	if count > 0 {
		return domain.ValidationErrors{{Field: "project_name", Value: name, Reason: "project already exists"}}
	}
	return nil
}

// ProjectFromFields builds a record from column/value pairs, rejecting
// unknown columns the same way Update does.
func ProjectFromFields(fields map[string]string) (domain.ProjectRecord, error) {
	p, _, err := applyFields(domain.ProjectRecord{}, fields)
	return p, err
}

// projectFields maps column names to the text fields of p.
func projectFields(p *domain.ProjectRecord) map[string]*string {
	return map[string]*string{
		"project_name":     &p.ProjectName,
		"spip_ip":          &p.SpipIP,
		"ip":               &p.IP,
		"ip_postfix":       &p.IPPostfix,
		"ip_subtype":       &p.IPSubtype,
		"alternative_name": &p.AlternativeName,
		"task_index":       &p.TaskIndex,
		"dv_engineer":      &p.DVEngineer,
		"digital_designer": &p.DigitalDesigner,
		"business_unit":    &p.BusinessUnit,
		"analog_designer":  &p.AnalogDesigner,
		"inherit_from_ip":  &p.InheritFromIP,
		"reuse_ip":         &p.ReuseIP,
		"spip_url":         &p.SpipURL,
		"wiki_url":         &p.WikiURL,
		"spec_version":     &p.SpecVersion,
		"spec_path":        &p.SpecPath,
	}
}

// applyFields returns p with fields applied and the effective changes.
func applyFields(p domain.ProjectRecord, fields map[string]string) (domain.ProjectRecord, map[string]string, error) {
	targets := projectFields(&p)

	changes := make(map[string]string)
	for col, value := range fields {
		dst, ok := targets[col]
		if !ok {
			return p, nil, domain.ValidationErrors{{Field: col, Reason: "unknown field"}}
		}
		value = strings.TrimSpace(value)
		if col == "project_name" {
			value = domain.NormalizeKey(value).String()
		}
		if *dst != value {
			*dst = value
			changes[col] = value
		}
	}
	return p, changes, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
