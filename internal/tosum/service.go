// Package tosum is the query interface used by the CLI: it composes the
// ingest normalizer, the record store and the lookup resolver.
package tosum

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/ingest"
	"github.com/lherron/tosum/internal/selectors"
	"github.com/lherron/tosum/internal/store"
	"github.com/lherron/tosum/internal/webhooks"
)

// Service exposes the TO summary operations.
type Service struct {
	store    *store.Store
	logger   *zap.Logger
	webhooks *webhooks.Dispatcher
}

// Option configures a Service.
type Option func(*Service)

// WithWebhooks notifies d whenever an import or feed load finishes.
func WithWebhooks(d *webhooks.Dispatcher) Option {
	return func(s *Service) {
		s.webhooks = d
	}
}

// New creates a service over st. A nil logger disables logging.
func New(st *store.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: st, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying record store.
func (s *Service) Store() *store.Store {
	return s.store
}

// GetMergedView returns the full TO summary in display order.
func (s *Service) GetMergedView(ctx context.Context) ([]*domain.MergedProjectView, error) {
	return s.store.Summary.List(ctx)
}

// GetProjectByID resolves an identifier (surrogate id, project name or task
// index) to one summary row. The identifier is matched as given. A miss is a
// *domain.NotFoundError.
func (s *Service) GetProjectByID(ctx context.Context, identifier string) (*domain.MergedProjectView, error) {
	return selectors.ResolveProject(ctx, s.store.Summary, identifier)
}

// LookupProject is GetProjectByID restricted to surrogate ids or natural keys.
func (s *Service) LookupProject(ctx context.Context, typ selectors.Type, identifier string) (*domain.MergedProjectView, error) {
	return selectors.Resolve(ctx, s.store.Summary, typ, identifier)
}

// ImportBatch normalizes raw records (header row first) and upserts the
// accepted rows into the imported snapshot. It never returns an error: a
// malformed input or a failed transaction is carried in the report's Err.
func (s *Service) ImportBatch(ctx context.Context, records [][]string) *bulk.Report {
	result, err := ingest.Normalize(records)
	if err != nil {
		return rejected(err)
	}

	report := s.store.Snapshot.ImportBatch(ctx, result.Projects())
	report.Merge(result.Report())
	s.finish(ctx, "snapshot", report)
	return report
}

// ImportFile reads a CSV or XLSX file and imports it. sheet selects the
// worksheet of an XLSX file; empty means the first one.
func (s *Service) ImportFile(ctx context.Context, path, sheet string) *bulk.Report {
	records, err := readFile(path, sheet)
	if err != nil {
		return rejected(err)
	}
	return s.ImportBatch(ctx, records)
}

// LoadCoverage reads an NX-domain coverage file and upserts it.
func (s *Service) LoadCoverage(ctx context.Context, path, sheet string) *bulk.Report {
	result, err := normalizeFile(path, sheet, ingest.CoverageSchema)
	if err != nil {
		return rejected(err)
	}

	records := make([]domain.CoverageRecord, 0, len(result.AcceptedRows))
	for _, row := range result.AcceptedRows {
		// Already parsed once by the schema check.
		rec, _ := row.Coverage()
		records = append(records, rec)
	}
	report := s.store.Coverage.Upsert(ctx, records)
	report.Merge(result.Report())
	s.finish(ctx, "coverage", report)
	return report
}

// LoadVersionControl reads an NX-domain version control file and upserts it.
func (s *Service) LoadVersionControl(ctx context.Context, path, sheet string) *bulk.Report {
	result, err := normalizeFile(path, sheet, ingest.VersionControlSchema)
	if err != nil {
		return rejected(err)
	}

	records := make([]domain.VersionControlRecord, 0, len(result.AcceptedRows))
	for _, row := range result.AcceptedRows {
		records = append(records, row.VersionControl())
	}
	report := s.store.VersionControl.Upsert(ctx, records)
	report.Merge(result.Report())
	s.finish(ctx, "version_control", report)
	return report
}

// Orphans returns projects known only to version control. They are left out
// of the summary unless strict orphan handling is enabled.
func (s *Service) Orphans(ctx context.Context) ([]string, error) {
	return s.store.Summary.Orphans(ctx)
}

// finish logs the merged outcome of a batch and sends notifications.
func (s *Service) finish(ctx context.Context, kind string, report *bulk.Report) {
	s.logger.Info("batch finished",
		zap.String("kind", kind),
		zap.String("batch", report.BatchID),
		zap.Int("success_count", report.SuccessCount),
		zap.Int("error_count", report.ErrorCount))
	if s.webhooks != nil {
		s.webhooks.Dispatch(ctx, webhooks.NewPayload(kind, report))
	}
}

func rejected(err error) *bulk.Report {
	report := bulk.NewReport("")
	report.Abort(err)
	return report
}

func readFile(path, sheet string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return ingest.Read(f, ingest.DetectFormat(path), sheet)
}

func normalizeFile(path, sheet string, schema ingest.Schema) (*ingest.Result, error) {
	records, err := readFile(path, sheet)
	if err != nil {
		return nil, err
	}
	return ingest.NormalizeWith(schema, records)
}
