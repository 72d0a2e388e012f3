package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/lherron/tosum/internal/db"
	"github.com/lherron/tosum/internal/domain"
)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(db.Wrap(conn, db.DriverSQLite)), mock
}

func TestImportBatchBeginFailure(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	report := s.Snapshot.ImportBatch(context.Background(), []domain.ProjectRecord{project("alpha", ""), project("beta", "")})

	require.Error(t, report.Err)
	var storeErr *domain.StoreError
	require.ErrorAs(t, report.Err, &storeErr)
	require.Equal(t, "begin", storeErr.Op)
	require.Zero(t, report.SuccessCount)
	require.Equal(t, 1, report.ExitCode())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBatchCommitFailure(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectExec("^SAVEPOINT batch_row$").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO imported_projects").WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
		mock.ExpectExec("INSERT INTO event_log").WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
		mock.ExpectExec("^RELEASE SAVEPOINT batch_row$").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("INSERT INTO event_log").WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	report := s.Snapshot.ImportBatch(context.Background(), []domain.ProjectRecord{project("alpha", ""), project("beta", "")})

	var storeErr *domain.StoreError
	require.ErrorAs(t, report.Err, &storeErr)
	require.Equal(t, "commit", storeErr.Op)
	require.Zero(t, report.SuccessCount)
	require.Equal(t, 2, report.ErrorCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportBatchSavepointFailureRollsBack(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("^SAVEPOINT batch_row$").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	report := s.Snapshot.ImportBatch(context.Background(), []domain.ProjectRecord{project("alpha", "")})

	require.True(t, domain.IsStoreError(report.Err))
	require.Zero(t, report.SuccessCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryStoreError(t *testing.T) {
	s, mock := setupMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM").WillReturnError(errors.New("no such table: imported_projects"))

	_, err := s.Summary.List(context.Background())
	require.True(t, domain.IsStoreError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
