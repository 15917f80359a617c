package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"who-dashboard/models"
)

func newMockRecorder(t *testing.T) (*GormRecorder, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormRecorder(db, zap.NewNop()), mock
}

func TestGormRecorder_Record(t *testing.T) {
	rec, mock := newMockRecorder(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "operation_runs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := rec.Record(context.Background(), models.OperationRun{
		SessionID: "s-1", Operation: "op2", Input: "0.5", Outcome: OutcomeSuccess, DurationMS: 12,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecorder_Recent(t *testing.T) {
	rec, mock := newMockRecorder(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at", "session_id", "operation", "input", "outcome", "duration_ms", "error"}).
		AddRow(2, now, "s-1", "op3", "1", OutcomeFailure, 30, "boom").
		AddRow(1, now.Add(-time.Minute), "s-1", "op2", "1.0", OutcomeSuccess, 10, "")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "operation_runs" ORDER BY created_at desc LIMIT $1`)).
		WillReturnRows(rows)

	runs, err := rec.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "op3", runs[0].Operation)
	require.Equal(t, "boom", runs[0].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}
