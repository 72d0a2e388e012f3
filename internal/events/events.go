package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lherron/tosum/internal/domain"
)

// Resource types and event names written to the event log.
const (
	ResourceProject = "project"
	ResourceBatch   = "batch"

	ProjectCreated  = "project.created"
	ProjectUpdated  = "project.updated"
	ProjectImported = "project.imported"
	CoverageLoaded  = "coverage.loaded"
	VCSLoaded       = "version_control.loaded"
	BatchCompleted  = "batch.completed"
)

// Execer is satisfied by *sqlx.DB and *sqlx.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// Writer handles writing events to the event log.
type Writer struct {
	db Execer
}

// NewWriter creates a new event writer.
func NewWriter(db Execer) *Writer {
	return &Writer{db: db}
}

// LogEvent writes an event to the event log. When tx is non-nil the event
// commits or rolls back together with the change it describes.
func (w *Writer) LogEvent(ctx context.Context, tx Execer, event *domain.Event) error {
	query := `
		INSERT INTO event_log (batch_uuid, resource_type, resource_key, event_type, payload)
		VALUES (?, ?, ?, ?, ?)
	`

	executor := w.getExecutor(tx)
	_, err := executor.ExecContext(ctx, executor.Rebind(query), event.BatchUUID, event.ResourceType, event.ResourceKey, event.EventType, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogProjectCreated logs a direct-entry project creation.
func (w *Writer) LogProjectCreated(ctx context.Context, tx Execer, project *domain.ProjectRecord) error {
	return w.logProject(ctx, tx, nil, ProjectCreated, project.ProjectName, map[string]any{
		"id":         project.ID,
		"task_index": project.TaskIndex,
	})
}

// LogProjectUpdated logs a direct-entry project update with the changed fields.
func (w *Writer) LogProjectUpdated(ctx context.Context, tx Execer, project *domain.ProjectRecord, changes map[string]any) error {
	return w.logProject(ctx, tx, nil, ProjectUpdated, project.ProjectName, changes)
}

// LogProjectImported logs one upserted snapshot row.
func (w *Writer) LogProjectImported(ctx context.Context, tx Execer, batchID string, project *domain.ProjectRecord) error {
	return w.logProject(ctx, tx, &batchID, ProjectImported, project.ProjectName, map[string]any{
		"task_index": project.TaskIndex,
	})
}

// LogNXLoaded logs a coverage or version control record loaded by the NX ingest.
func (w *Writer) LogNXLoaded(ctx context.Context, tx Execer, eventType, projectName string) error {
	return w.logProject(ctx, tx, nil, eventType, projectName, nil)
}

// LogBatchCompleted logs the aggregate outcome of an import batch.
func (w *Writer) LogBatchCompleted(ctx context.Context, tx Execer, batchID string, successCount, errorCount int) error {
	payload, err := json.Marshal(map[string]any{
		"success_count": successCount,
		"error_count":   errorCount,
	})
	if err != nil {
		return err
	}

	payloadStr := string(payload)
	event := &domain.Event{
		BatchUUID:    &batchID,
		ResourceType: ResourceBatch,
		ResourceKey:  &batchID,
		EventType:    BatchCompleted,
		Payload:      &payloadStr,
	}

	return w.LogEvent(ctx, tx, event)
}

func (w *Writer) logProject(ctx context.Context, tx Execer, batchID *string, eventType, projectName string, fields map[string]any) error {
	var payloadPtr *string
	if len(fields) > 0 {
		payload, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		payloadStr := string(payload)
		payloadPtr = &payloadStr
	}

	event := &domain.Event{
		BatchUUID:    batchID,
		ResourceType: ResourceProject,
		ResourceKey:  &projectName,
		EventType:    eventType,
		Payload:      payloadPtr,
	}

	return w.LogEvent(ctx, tx, event)
}

func (w *Writer) getExecutor(tx Execer) Execer {
	if tx != nil {
		return tx
	}
	return w.db
}
