package service

import (
	"context"
	"fmt"

	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/store"
	"github.com/staylio/villa-onboard/internal/utils"
	"github.com/staylio/villa-onboard/models"
)

// onboardingService is the concrete implementation of [OnboardingService].
type onboardingService struct {
	records   store.RecordRepository
	steps     store.StepRepository
	validator *stepValidator
	ids       *utils.UUIDGenerator
	logger    *logger.Logger
}

// NewOnboardingService constructs an [OnboardingService] over the given
// repositories.
func NewOnboardingService(repos *store.Repositories, logger *logger.Logger) OnboardingService {
	return &onboardingService{
		records:   repos.RecordRepository,
		steps:     repos.StepRepository,
		validator: newStepValidator(),
		ids:       utils.NewUUIDGenerator(),
		logger:    logger,
	}
}

// CreateRecord implements [OnboardingService].
func (s *onboardingService) CreateRecord(ctx context.Context, ownerLogin string) (string, error) {
	log := logger.FromContext(ctx)

	if ownerLogin == "" {
		return "", fmt.Errorf("%w: empty owner login", ErrInvalidDataProvided)
	}

	recordID := s.ids.Generate()
	if err := s.records.CreateRecord(ctx, recordID, ownerLogin); err != nil {
		log.Err(err).
			Str("owner_login", ownerLogin).
			Msg("record creation ended with error")
		return "", fmt.Errorf("record creation ended with error: %w", err)
	}

	return recordID, nil
}

// SaveStep implements [OnboardingService]. Validation runs before the write:
// a payload rejected here never reaches the database and never bumps the
// step version.
func (s *onboardingService) SaveStep(ctx context.Context, recordID string, req models.StepSaveRequest) (int64, error) {
	log := logger.FromContext(ctx)

	if recordID == "" {
		return 0, fmt.Errorf("%w: empty record id", ErrInvalidDataProvided)
	}
	if !models.ValidStep(req.StepNumber) {
		return 0, fmt.Errorf("%w: invalid step number %d", ErrInvalidDataProvided, req.StepNumber)
	}
	if req.Version < 0 {
		return 0, fmt.Errorf("%w: negative version", ErrInvalidDataProvided)
	}

	if fields := s.validator.ValidateStep(req.StepNumber, req.Data); len(fields) > 0 {
		log.Info().
			Str("record_id", recordID).
			Int("step", req.StepNumber).
			Int("fields", len(fields)).
			Str("operation_id", req.OperationID).
			Msg("step payload rejected by validation")
		return 0, &ValidationError{Fields: fields}
	}

	version, err := s.steps.SaveStep(ctx, recordID, req)
	if err != nil {
		return 0, fmt.Errorf("step save ended with error: %w", err)
	}

	return version, nil
}

// CompleteStep implements [OnboardingService].
func (s *onboardingService) CompleteStep(ctx context.Context, recordID string, step int) error {
	if recordID == "" {
		return fmt.Errorf("%w: empty record id", ErrInvalidDataProvided)
	}
	if !models.ValidStep(step) {
		return fmt.Errorf("%w: invalid step number %d", ErrInvalidDataProvided, step)
	}

	if err := s.records.CompleteStep(ctx, recordID, step); err != nil {
		return fmt.Errorf("step completion ended with error: %w", err)
	}

	return nil
}

// GetProgress implements [OnboardingService]. The aggregate always carries
// an entry for every wizard step: steps without a stored row read as
// version 0, NOT_STARTED, nil data, which is exactly what a client needs to
// seed its ledger.
func (s *onboardingService) GetProgress(ctx context.Context, recordID string) (models.RecordState, error) {
	if recordID == "" {
		return models.RecordState{}, fmt.Errorf("%w: empty record id", ErrInvalidDataProvided)
	}

	record, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		return models.RecordState{}, fmt.Errorf("record lookup ended with error: %w", err)
	}

	steps, err := s.steps.GetSteps(ctx, recordID)
	if err != nil {
		return models.RecordState{}, fmt.Errorf("step lookup ended with error: %w", err)
	}

	statuses, err := s.steps.GetStatuses(ctx, recordID)
	if err != nil {
		return models.RecordState{}, fmt.Errorf("status lookup ended with error: %w", err)
	}

	record.Steps = make(map[int]models.StepState, models.StepCount)
	for step := 1; step <= models.StepCount; step++ {
		st, ok := steps[step]
		if !ok {
			st = models.StepState{StepNumber: step}
		}
		st.Status = models.StepNotStarted
		if status, ok := statuses[step]; ok {
			st.Status = status
		}
		record.Steps[step] = st
	}

	return record, nil
}

// Submit implements [OnboardingService].
func (s *onboardingService) Submit(ctx context.Context, recordID string) error {
	log := logger.FromContext(ctx)

	if recordID == "" {
		return fmt.Errorf("%w: empty record id", ErrInvalidDataProvided)
	}

	if err := s.records.MarkSubmitted(ctx, recordID); err != nil {
		return fmt.Errorf("record submission ended with error: %w", err)
	}

	log.Info().Str("record_id", recordID).Msg("record submitted")
	return nil
}
