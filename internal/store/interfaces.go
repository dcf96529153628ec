package store

import (
	"context"

	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/models"
)

// RecordFilter narrows record enumeration, used by the consistency auditor.
// Zero-valued fields apply no filtering.
type RecordFilter struct {
	// OwnerLogin restricts results to records owned by one user.
	OwnerLogin string

	// SubmittedOnly restricts results to terminally submitted records.
	SubmittedOnly bool
}

// RecordRepository persists the onboarding record summary rows: ownership,
// the legacy per-step completion flags, the session counter, and the
// submitted marker.
type RecordRepository interface {
	// CreateRecord inserts a fresh record owned by ownerLogin with all flags
	// false and a zero counter. Returns [ErrRecordAlreadyExists] when the id
	// is taken.
	CreateRecord(ctx context.Context, recordID, ownerLogin string) error

	// GetRecord returns the record summary row (no step data). Returns
	// [ErrRecordNotFound] when the record does not exist.
	GetRecord(ctx context.Context, recordID string) (models.RecordState, error)

	// ListRecordIDs enumerates record identifiers matching filter, oldest
	// first.
	ListRecordIDs(ctx context.Context, filter RecordFilter) ([]string, error)

	// CompleteStep performs the step-completion write path: it sets the
	// step's legacy flag, increments the steps_completed counter, and marks
	// the step-status row COMPLETED, all in one transaction.
	CompleteStep(ctx context.Context, recordID string, step int) error

	// MarkSubmitted sets the record's terminal submitted marker.
	MarkSubmitted(ctx context.Context, recordID string) error
}

// StepRepository persists the versioned step payloads and the per-step
// status rows.
type StepRepository interface {
	// SaveStep performs one optimistic-concurrency save and returns the
	// step's new version. A version mismatch (including a non-zero sent
	// version for a step with no stored row) returns [ErrVersionConflict].
	// An accepted save also bumps the step-status row from NOT_STARTED to
	// IN_PROGRESS.
	SaveStep(ctx context.Context, recordID string, req models.StepSaveRequest) (int64, error)

	// GetSteps returns every stored step of the record keyed by step number.
	// Status is not populated here; it lives in the progress table.
	GetSteps(ctx context.Context, recordID string) (map[int]models.StepState, error)

	// GetStatuses returns the per-step status rows keyed by step number.
	// Steps without a row have never been touched and read as NOT_STARTED.
	GetStatuses(ctx context.Context, recordID string) (map[int]models.StepStatus, error)
}

// Repositories groups the server-side repositories behind one constructor.
type Repositories struct {
	RecordRepository RecordRepository
	StepRepository   StepRepository
}

func NewRepositories(db *DB, log *logger.Logger) *Repositories {
	return &Repositories{
		RecordRepository: NewRecordRepository(db, log),
		StepRepository:   NewStepRepository(db, log),
	}
}
