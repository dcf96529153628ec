package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/models"
)

// legacyFlagColumns maps a step number to its legacy completion-flag column
// on the record summary row. The flags predate the step-status table and are
// still written by the completion path; the consistency auditor cross-checks
// them against the other progress representations.
var legacyFlagColumns = [models.StepCount + 1]string{
	models.StepVillaInfo:  "villa_info_completed",
	models.StepOwner:      "owner_completed",
	models.StepContract:   "contract_completed",
	models.StepBanking:    "banking_completed",
	models.StepChannels:   "channels_completed",
	models.StepDocuments:  "documents_completed",
	models.StepStaff:      "staff_completed",
	models.StepFacilities: "facilities_completed",
	models.StepPhotos:     "photos_completed",
	models.StepReview:     "review_completed",
}

// recordRepository is the database/sql-backed implementation of
// [RecordRepository], operating on the "onboarding_records" and
// "onboarding_step_progress" tables.
type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository constructs a [RecordRepository] backed by the provided
// database connection and logger.
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateRecord implements [RecordRepository]. All legacy flags start false
// via the column defaults; the counter starts at zero.
func (r *recordRepository) CreateRecord(ctx context.Context, recordID, ownerLogin string) error {
	log := logger.FromContext(ctx)

	now := time.Now()
	query, args, err := r.builder.
		Insert("onboarding_records").
		Columns("record_id", "owner_login", "steps_completed", "submitted", "created_at", "updated_at").
		Values(recordID, ownerLogin, 0, false, now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			log.Warn().
				Str("func", "recordRepository.CreateRecord").
				Str("record_id", recordID).
				Msg("record id already taken")
			return ErrRecordAlreadyExists
		}
		log.Err(err).
			Str("func", "recordRepository.CreateRecord").
			Str("record_id", recordID).
			Msg("failed to insert onboarding record")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "recordRepository.CreateRecord").
		Str("record_id", recordID).
		Str("owner_login", ownerLogin).
		Msg("created onboarding record")
	return nil
}

// GetRecord implements [RecordRepository].
func (r *recordRepository) GetRecord(ctx context.Context, recordID string) (models.RecordState, error) {
	log := logger.FromContext(ctx)

	columns := []string{"record_id", "owner_login", "steps_completed", "submitted"}
	for step := 1; step <= models.StepCount; step++ {
		columns = append(columns, legacyFlagColumns[step])
	}
	columns = append(columns, "created_at", "updated_at")

	query, args, err := r.builder.
		Select(columns...).
		From("onboarding_records").
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return models.RecordState{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	record := models.RecordState{LegacyFlags: make(map[int]bool, models.StepCount)}
	flags := make([]bool, models.StepCount)

	dest := []any{&record.RecordID, &record.OwnerLogin, &record.StepsCompleted, &record.Submitted}
	for i := range flags {
		dest = append(dest, &flags[i])
	}
	dest = append(dest, &record.CreatedAt, &record.UpdatedAt)

	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().
				Str("func", "recordRepository.GetRecord").
				Str("record_id", recordID).
				Msg("record not found")
			return models.RecordState{}, ErrRecordNotFound
		}
		log.Err(err).
			Str("func", "recordRepository.GetRecord").
			Str("record_id", recordID).
			Msg("failed to query onboarding record")
		return models.RecordState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	for step := 1; step <= models.StepCount; step++ {
		record.LegacyFlags[step] = flags[step-1]
	}

	return record, nil
}

// ListRecordIDs implements [RecordRepository]. Filters are applied
// dynamically; an empty filter enumerates every record, oldest first.
func (r *recordRepository) ListRecordIDs(ctx context.Context, filter RecordFilter) ([]string, error) {
	log := logger.FromContext(ctx)

	q := r.builder.
		Select("record_id").
		From("onboarding_records")
	if filter.OwnerLogin != "" {
		q = q.Where(sq.Eq{"owner_login": filter.OwnerLogin})
	}
	if filter.SubmittedOnly {
		q = q.Where(sq.Eq{"submitted": true})
	}
	q = q.OrderBy("created_at")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.ListRecordIDs").
			Msg("failed to enumerate onboarding records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ids := make([]string, 0, 50)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return ids, nil
}

// CompleteStep implements [RecordRepository]. The legacy flag, the counter,
// and the status row are written in one transaction so a crash cannot leave
// the completion half-applied; divergence between the representations comes
// from the separate save path, not from torn completions.
func (r *recordRepository) CompleteStep(ctx context.Context, recordID string, step int) error {
	log := logger.FromContext(ctx)

	if !models.ValidStep(step) {
		return fmt.Errorf("invalid step number %d", step)
	}
	now := time.Now()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.CompleteStep").
			Str("record_id", recordID).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, err := r.builder.
		Update("onboarding_records").
		Set(legacyFlagColumns[step], true).
		Set("steps_completed", sq.Expr("steps_completed + 1")).
		Set("updated_at", now).
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.CompleteStep").
			Str("record_id", recordID).
			Int("step", step).
			Msg("failed to update record completion flags")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		log.Warn().
			Str("func", "recordRepository.CompleteStep").
			Str("record_id", recordID).
			Msg("record not found")
		return ErrRecordNotFound
	}

	if err := upsertStepStatus(ctx, tx, r.builder, recordID, step, models.StepCompleted, now, false); err != nil {
		log.Err(err).
			Str("func", "recordRepository.CompleteStep").
			Str("record_id", recordID).
			Int("step", step).
			Msg("failed to upsert step status")
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "recordRepository.CompleteStep").
			Str("record_id", recordID).
			Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	log.Info().
		Str("func", "recordRepository.CompleteStep").
		Str("record_id", recordID).
		Int("step", step).
		Msg("step completion recorded")
	return nil
}

// MarkSubmitted implements [RecordRepository]. Submitting twice is
// idempotent.
func (r *recordRepository) MarkSubmitted(ctx context.Context, recordID string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Update("onboarding_records").
		Set("submitted", true).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.MarkSubmitted").
			Str("record_id", recordID).
			Msg("failed to mark record submitted")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrRecordNotFound
	}

	log.Info().
		Str("func", "recordRepository.MarkSubmitted").
		Str("record_id", recordID).
		Msg("record submitted")
	return nil
}
