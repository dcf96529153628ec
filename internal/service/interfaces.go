package service

import (
	"context"

	"github.com/staylio/villa-onboard/models"
)

// OnboardingService is the server-side application layer over the record and
// step repositories. It owns payload validation and the composition of the
// full record state out of the three progress representations.
type OnboardingService interface {
	// CreateRecord creates a fresh onboarding record owned by ownerLogin and
	// returns its identifier.
	CreateRecord(ctx context.Context, ownerLogin string) (string, error)

	// SaveStep validates the step payload and performs the
	// optimistic-concurrency write, returning the step's new version.
	// Invalid payloads return a *ValidationError; version mismatches
	// surface store.ErrVersionConflict.
	SaveStep(ctx context.Context, recordID string, req models.StepSaveRequest) (int64, error)

	// CompleteStep records a step completion through the legacy write path:
	// flag, counter, and status row.
	CompleteStep(ctx context.Context, recordID string, step int) error

	// GetProgress returns the full authoritative record state: summary row,
	// every step's version and data, and the per-step statuses.
	GetProgress(ctx context.Context, recordID string) (models.RecordState, error)

	// Submit performs the terminal submission of the record.
	Submit(ctx context.Context, recordID string) error
}

// AuthService validates bearer tokens presented to the onboarding server.
// Token issuance lives in the identity service; only parsing happens here.
type AuthService interface {
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
