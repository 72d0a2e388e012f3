package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lherron/tosum/internal/bulk"
	"github.com/lherron/tosum/internal/domain"
	"github.com/lherron/tosum/internal/events"
)

const rowSavepoint = "batch_row"

// rowFunc applies item i of a batch. A returned error rejects that item only.
type rowFunc func(ctx context.Context, tx *sqlx.Tx, ew *events.Writer, i int) error

// runBatch applies n items inside one transaction. Every item runs under its
// own savepoint, so a failing item is undone and counted without aborting
// its siblings. Failing to begin or commit the transaction, or to manage a
// savepoint, rolls back the whole batch and the report carries a StoreError.
func (s *Store) runBatch(ctx context.Context, batchID, kind string, n int, label func(i int) string, apply rowFunc) *bulk.Report {
	report := bulk.NewReport(batchID)
	log := s.logger.With(zap.String("batch", batchID), zap.String("kind", kind))

	err := s.withTx(ctx, func(tx *sqlx.Tx, ew *events.Writer) error {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return &domain.StoreError{Op: "import", Err: err}
			}

			if _, err := tx.ExecContext(ctx, "SAVEPOINT "+rowSavepoint); err != nil {
				return &domain.StoreError{Op: "savepoint", Err: err}
			}

			rowErr := apply(ctx, tx, ew, i)
			if rowErr != nil {
				if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+rowSavepoint); err != nil {
					return &domain.StoreError{Op: "rollback to savepoint", Err: err}
				}
			}
			if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+rowSavepoint); err != nil {
				return &domain.StoreError{Op: "release savepoint", Err: err}
			}

			if rowErr != nil {
				report.Fail(labelError(label(i), rowErr))
				log.Debug("row rejected", zap.String("item", label(i)), zap.Error(rowErr))
				continue
			}
			report.Succeed()
			log.Debug("row applied", zap.String("item", label(i)))
		}

		if batchID == "" {
			return nil
		}
		if err := ew.LogBatchCompleted(ctx, tx, batchID, report.SuccessCount, report.ErrorCount); err != nil {
			return &domain.StoreError{Op: "log batch", Err: err}
		}
		return nil
	})
	if err != nil {
		if !domain.IsStoreError(err) {
			err = &domain.StoreError{Op: "import", Err: err}
		}
		report.Abort(err)
		log.Error("batch rolled back", zap.Error(err))
		return report
	}

	log.Info("batch completed",
		zap.Int("success_count", report.SuccessCount),
		zap.Int("error_count", report.ErrorCount))
	return report
}

// labelError prefixes a row error with the item it belongs to unless the
// error already names its row.
func labelError(label string, err error) error {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Row > 0 {
		return err
	}
	return fmt.Errorf("%s: %w", label, err)
}
