package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/models"
)

// stepRepository is the database/sql-backed implementation of
// [StepRepository], operating on the "onboarding_steps" and
// "onboarding_step_progress" tables.
type stepRepository struct {
	*DB
	logger *logger.Logger
}

// NewStepRepository constructs a [StepRepository] backed by the provided
// database connection and logger.
func NewStepRepository(db *DB, logger *logger.Logger) StepRepository {
	return &stepRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveStep implements [StepRepository]. The save is one transaction:
//
//  1. touch the record summary row (also proves the record exists),
//  2. compare-and-swap the step row: UPDATE … SET version = version + 1
//     WHERE version = sent; zero rows with an existing row is a conflict,
//     zero rows with no row and sent version 0 inserts at version 1, and a
//     non-zero sent version for a missing row is a conflict too,
//  3. bump the step-status row from NOT_STARTED to IN_PROGRESS.
//
// The returned version is the authoritative new value the client must echo
// on its next save of the step.
func (r *stepRepository) SaveStep(ctx context.Context, recordID string, req models.StepSaveRequest) (int64, error) {
	log := logger.FromContext(ctx)

	if !models.ValidStep(req.StepNumber) {
		return 0, fmt.Errorf("invalid step number %d", req.StepNumber)
	}

	payload, err := json.Marshal(req.Data)
	if err != nil {
		return 0, fmt.Errorf("encode step data: %w", err)
	}
	now := time.Now()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "stepRepository.SaveStep").
			Str("record_id", recordID).
			Msg("failed to begin transaction")
		return 0, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err := r.touchRecord(ctx, tx, recordID, now); err != nil {
		return 0, err
	}

	newVersion, err := r.casStep(ctx, tx, recordID, req, payload, now)
	if err != nil {
		return 0, err
	}

	if err := upsertStepStatus(ctx, tx, r.builder, recordID, req.StepNumber, models.StepInProgress, now, true); err != nil {
		log.Err(err).
			Str("func", "stepRepository.SaveStep").
			Str("record_id", recordID).
			Int("step", req.StepNumber).
			Msg("failed to upsert step status")
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "stepRepository.SaveStep").
			Str("record_id", recordID).
			Msg("failed to commit transaction")
		return 0, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Debug().
		Str("func", "stepRepository.SaveStep").
		Str("record_id", recordID).
		Int("step", req.StepNumber).
		Int64("version", newVersion).
		Str("operation_id", req.OperationID).
		Msg("step saved")
	return newVersion, nil
}

// touchRecord bumps the record summary row's updated_at inside the save
// transaction, returning [ErrRecordNotFound] when no such record exists.
func (r *stepRepository) touchRecord(ctx context.Context, tx *sql.Tx, recordID string, now time.Time) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Update("onboarding_records").
		Set("updated_at", now).
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "stepRepository.touchRecord").
			Str("record_id", recordID).
			Msg("failed to touch onboarding record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		log.Warn().
			Str("func", "stepRepository.touchRecord").
			Str("record_id", recordID).
			Msg("record not found")
		return ErrRecordNotFound
	}

	return nil
}

// casStep runs the optimistic-concurrency write for one step and returns
// the new version.
func (r *stepRepository) casStep(ctx context.Context, tx *sql.Tx, recordID string, req models.StepSaveRequest, payload []byte, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Update("onboarding_steps").
		Set("data", payload).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", now).
		Where(sq.Eq{"record_id": recordID}).
		Where(sq.Eq{"step_number": req.StepNumber}).
		Where(sq.Eq{"version": req.Version}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "stepRepository.casStep").
			Str("record_id", recordID).
			Int("step", req.StepNumber).
			Msg("failed to execute step update")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected, _ := res.RowsAffected(); affected == 1 {
		return req.Version + 1, nil
	}

	// the guarded update matched nothing: either the row exists at another
	// version, or there is no row yet
	query, args, err = r.builder.
		Select("version").
		From("onboarding_steps").
		Where(sq.Eq{"record_id": recordID}).
		Where(sq.Eq{"step_number": req.StepNumber}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var dbVersion int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&dbVersion)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if req.Version != 0 {
			log.Warn().
				Str("func", "stepRepository.casStep").
				Str("record_id", recordID).
				Int("step", req.StepNumber).
				Int64("provided_version", req.Version).
				Msg("non-zero version sent for a step with no stored row")
			return 0, ErrVersionConflict
		}
		return r.insertStep(ctx, tx, recordID, req.StepNumber, payload, now)

	case err != nil:
		log.Err(err).
			Str("func", "stepRepository.casStep").
			Str("record_id", recordID).
			Int("step", req.StepNumber).
			Msg("failed to read current step version")
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)

	default:
		log.Warn().
			Str("func", "stepRepository.casStep").
			Str("record_id", recordID).
			Int("step", req.StepNumber).
			Int64("db_version", dbVersion).
			Int64("provided_version", req.Version).
			Msg("optimistic lock failed: version mismatch")
		return 0, ErrVersionConflict
	}
}

// insertStep creates the step row at version 1 for a first-ever save. A
// unique violation here means a concurrent first save won the race, which is
// a conflict like any other.
func (r *stepRepository) insertStep(ctx context.Context, tx *sql.Tx, recordID string, step int, payload []byte, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Insert("onboarding_steps").
		Columns("record_id", "step_number", "data", "version", "updated_at").
		Values(recordID, step, payload, 1, now).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			log.Warn().
				Str("func", "stepRepository.insertStep").
				Str("record_id", recordID).
				Int("step", step).
				Msg("concurrent first save won the insert race")
			return 0, ErrVersionConflict
		}
		log.Err(err).
			Str("func", "stepRepository.insertStep").
			Str("record_id", recordID).
			Int("step", step).
			Msg("failed to insert step row")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return 1, nil
}

// GetSteps implements [StepRepository].
func (r *stepRepository) GetSteps(ctx context.Context, recordID string) (map[int]models.StepState, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("step_number", "data", "version", "updated_at").
		From("onboarding_steps").
		Where(sq.Eq{"record_id": recordID}).
		OrderBy("step_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "stepRepository.GetSteps").
			Str("record_id", recordID).
			Msg("failed to query step rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	steps := make(map[int]models.StepState, models.StepCount)
	for rows.Next() {
		var st models.StepState
		var payload []byte
		var updatedAt time.Time

		if err := rows.Scan(&st.StepNumber, &payload, &st.Version, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &st.Data); err != nil {
				log.Err(err).
					Str("func", "stepRepository.GetSteps").
					Str("record_id", recordID).
					Int("step", st.StepNumber).
					Msg("failed to decode step data")
				return nil, fmt.Errorf("decode step %d data: %w", st.StepNumber, err)
			}
		}
		st.UpdatedAt = &updatedAt
		steps[st.StepNumber] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return steps, nil
}

// GetStatuses implements [StepRepository].
func (r *stepRepository) GetStatuses(ctx context.Context, recordID string) (map[int]models.StepStatus, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("step_number", "status").
		From("onboarding_step_progress").
		Where(sq.Eq{"record_id": recordID}).
		OrderBy("step_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "stepRepository.GetStatuses").
			Str("record_id", recordID).
			Msg("failed to query step status rows")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	statuses := make(map[int]models.StepStatus, models.StepCount)
	for rows.Next() {
		var step int
		var status models.StepStatus
		if err := rows.Scan(&step, &status); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		statuses[step] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return statuses, nil
}

// upsertStepStatus writes the per-step status row. With onlyIfNotStarted the
// update fires only when the stored status is NOT_STARTED, so the save path
// never downgrades a COMPLETED step; the completion path overwrites
// unconditionally.
func upsertStepStatus(ctx context.Context, tx *sql.Tx, builder sq.StatementBuilderType, recordID string, step int, status models.StepStatus, now time.Time, onlyIfNotStarted bool) error {
	q := builder.
		Insert("onboarding_step_progress").
		Columns("record_id", "step_number", "status", "updated_at").
		Values(recordID, step, status, now)

	if onlyIfNotStarted {
		q = q.Suffix(
			"ON CONFLICT (record_id, step_number) DO UPDATE SET status = ?, updated_at = ? WHERE onboarding_step_progress.status = ?",
			status, now, models.StepNotStarted,
		)
	} else {
		q = q.Suffix(
			"ON CONFLICT (record_id, step_number) DO UPDATE SET status = ?, updated_at = ?",
			status, now,
		)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}
