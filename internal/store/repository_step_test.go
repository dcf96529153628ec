package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		driver:  "pgx",
		logger:  logger.Nop(),
	}
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

const (
	touchRecordSQL   = `UPDATE onboarding_records SET updated_at = \$1 WHERE record_id = \$2`
	casUpdateSQL     = `UPDATE onboarding_steps SET data = \$1, version = version \+ 1, updated_at = \$2 WHERE record_id = \$3 AND step_number = \$4 AND version = \$5`
	selectVersionSQL = `SELECT version FROM onboarding_steps WHERE record_id = \$1 AND step_number = \$2`
	insertStepSQL    = `INSERT INTO onboarding_steps \(record_id,step_number,data,version,updated_at\)`
	upsertStatusSQL  = `INSERT INTO onboarding_step_progress \(record_id,step_number,status,updated_at\)`
)

func saveRequest(step int, version int64) models.StepSaveRequest {
	return models.StepSaveRequest{
		StepNumber:      step,
		Data:            models.StepData{"villa_name": "Casa Azul"},
		Version:         version,
		OperationID:     "op-1",
		ClientTimestamp: time.Now(),
	}
}

func TestSaveStep_AcceptedExistingRow(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(touchRecordSQL).
		WithArgs(sqlmock.AnyArg(), "rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(casUpdateSQL).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "rec-1", 1, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertStatusSQL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	version, err := repo.SaveStep(testContext(), "rec-1", saveRequest(1, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(5), version, "the new version is the sent version plus one")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStep_FirstSaveInsertsAtVersionOne(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(touchRecordSQL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(casUpdateSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectVersionSQL).
		WithArgs("rec-1", 1).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(insertStepSQL).
		WithArgs("rec-1", 1, sqlmock.AnyArg(), 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertStatusSQL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	version, err := repo.SaveStep(testContext(), "rec-1", saveRequest(1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStep_VersionMismatchIsConflict(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(touchRecordSQL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(casUpdateSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectVersionSQL).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(7)))
	mock.ExpectRollback()

	_, err := repo.SaveStep(testContext(), "rec-1", saveRequest(1, 4))
	assert.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStep_NonZeroVersionForMissingRowIsConflict(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(touchRecordSQL).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(casUpdateSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectVersionSQL).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.SaveStep(testContext(), "rec-1", saveRequest(1, 3))
	assert.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStep_UnknownRecord(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	mock.ExpectBegin()
	mock.ExpectExec(touchRecordSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.SaveStep(testContext(), "rec-missing", saveRequest(1, 0))
	assert.ErrorIs(t, err, ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStep_RejectsInvalidStepNumber(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	_, err := repo.SaveStep(testContext(), "rec-1", saveRequest(models.StepCount+1, 0))
	assert.Error(t, err)
}

func TestGetSteps_DecodesPayloads(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	now := time.Now().Truncate(time.Millisecond)
	rows := sqlmock.NewRows([]string{"step_number", "data", "version", "updated_at"}).
		AddRow(1, []byte(`{"villa_name":"Casa Azul"}`), int64(3), now).
		AddRow(5, []byte(`{"channels":[{"name":"direct","active":true}]}`), int64(1), now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT step_number, data, version, updated_at FROM onboarding_steps WHERE record_id = $1 ORDER BY step_number`)).
		WithArgs("rec-1").
		WillReturnRows(rows)

	steps, err := repo.GetSteps(testContext(), "rec-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, int64(3), steps[1].Version)
	assert.Equal(t, "Casa Azul", steps[1].Data["villa_name"])
	assert.Equal(t, int64(1), steps[5].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatuses(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewStepRepository(newDBFromSQL(db), logger.Nop())

	rows := sqlmock.NewRows([]string{"step_number", "status"}).
		AddRow(1, "COMPLETED").
		AddRow(2, "IN_PROGRESS")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT step_number, status FROM onboarding_step_progress WHERE record_id = $1 ORDER BY step_number`)).
		WithArgs("rec-1").
		WillReturnRows(rows)

	statuses, err := repo.GetStatuses(testContext(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, statuses[1])
	assert.Equal(t, models.StepInProgress, statuses[2])
	_, ok := statuses[3]
	assert.False(t, ok, "untouched steps have no status row")
	require.NoError(t, mock.ExpectationsWereMet())
}
