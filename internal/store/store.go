// Package store provides the record store adapter: the IT-domain projects,
// the imported snapshot, the NX-domain coverage and version control records
// and the merged TO summary computed over them.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lherron/tosum/internal/db"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/events"
)

// Store is the root store that provides access to domain-specific stores.
type Store struct {
	db            *db.DB
	logger        *zap.Logger
	strictOrphans bool

	// Domain-specific stores
	Projects       *ProjectStore
	Snapshot       *SnapshotStore
	Coverage       *CoverageStore
	VersionControl *VersionControlStore
	Summary        *SummaryStore
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for import activity.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrictOrphans makes the merged view include projects known only to
// version control instead of dropping them.
func WithStrictOrphans(strict bool) Option {
	return func(s *Store) {
		s.strictOrphans = strict
	}
}

// New creates a new Store wrapping the given database connection.
func New(database *db.DB, opts ...Option) *Store {
	s := &Store{db: database, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.Projects = &ProjectStore{store: s}
	s.Snapshot = &SnapshotStore{store: s}
	s.Coverage = &CoverageStore{store: s}
	s.VersionControl = &VersionControlStore{store: s}
	s.Summary = &SummaryStore{store: s}
	return s
}

// DB returns the underlying database connection (for read-only queries).
func (s *Store) DB() *db.DB {
	return s.db
}

// withTx executes fn within a transaction. If fn returns nil, the transaction
// is committed; otherwise it is rolled back. Begin and commit failures are
// returned as StoreError.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx, ew *events.Writer) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return &domain.StoreError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	ew := events.NewWriter(s.db)
	if err := fn(tx, ew); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// upsertSQL builds a single-statement insert-or-update keyed on project_name.
// Both SQLite and Postgres accept ON CONFLICT ... DO UPDATE with excluded.
func upsertSQL(table string, columns []string, extra ...string) string {
	placeholders := make([]string, len(columns))
	var sets []string
	for i, col := range columns {
		placeholders[i] = "?"
		if col != "project_name" {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}
	sets = append(sets, extra...)
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(project_name) DO UPDATE SET %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "),
	)
}

// projectArgs returns the column values of p in domain.ProjectColumns order.
func projectArgs(p *domain.ProjectRecord) []any {
	values := p.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
