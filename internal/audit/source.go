package audit

import (
	"context"

	"github.com/staylio/villa-onboard/internal/service"
	"github.com/staylio/villa-onboard/internal/store"
	"github.com/staylio/villa-onboard/models"
)

// storeSource reads audit input straight from the server-side application
// layer, reusing the same progress composition the HTTP API serves.
type storeSource struct {
	onboarding service.OnboardingService
	records    store.RecordRepository
}

// NewStoreSource builds a Source over the onboarding service and the record
// repository.
func NewStoreSource(onboarding service.OnboardingService, records store.RecordRepository) Source {
	return &storeSource{onboarding: onboarding, records: records}
}

func (s *storeSource) FetchRecord(ctx context.Context, recordID string) (models.RecordState, error) {
	return s.onboarding.GetProgress(ctx, recordID)
}

func (s *storeSource) ListRecordIDs(ctx context.Context) ([]string, error) {
	return s.records.ListRecordIDs(ctx, store.RecordFilter{})
}
