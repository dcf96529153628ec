package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyRecord returns a record where all three representations agree on
// "nothing happened yet".
func emptyRecord(recordID string) models.RecordState {
	return models.RecordState{
		RecordID:    recordID,
		LegacyFlags: map[int]bool{},
		Steps:       map[int]models.StepState{},
	}
}

func TestEvaluate_AgreementProducesNoIssues(t *testing.T) {
	report := Evaluate(emptyRecord("rec-1"))

	assert.Equal(t, models.AuditConsistent, report.OverallStatus)
	assert.Zero(t, report.TotalIssues)
	assert.Empty(t, report.Issues)
}

func TestEvaluate_DataWithoutFlagIsHighSeverity(t *testing.T) {
	state := emptyRecord("rec-1")
	state.Steps[models.StepContract] = models.StepState{
		StepNumber: models.StepContract,
		Status:     models.StepCompleted,
		Data:       models.StepData{"contract_type": "exclusive", "start_date": "2026-03-01"},
	}
	state.StepsCompleted = 1

	report := Evaluate(state)

	require.Len(t, report.Issues, 1, "steps where all representations agree must stay silent")
	issue := report.Issues[0]
	assert.Equal(t, models.IssueDataExistsFlagFalse, issue.Type)
	assert.Equal(t, models.SeverityHigh, issue.Severity)
	assert.Equal(t, models.StepContract, issue.Step)
	assert.Equal(t, models.AuditMajorIssues, report.OverallStatus)
}

func TestEvaluate_VillaInfoFlagDivergence(t *testing.T) {
	// all required villa fields populated, status COMPLETED, but the legacy
	// flag still reads false
	state := emptyRecord("rec-1")
	state.Steps[models.StepVillaInfo] = models.StepState{
		StepNumber: models.StepVillaInfo,
		Status:     models.StepCompleted,
		Data: models.StepData{
			"villa_name": "Casa Azul",
			"address":    "Jl. Pantai 7, Canggu",
		},
	}
	state.StepsCompleted = 1

	report := Evaluate(state)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, models.IssueDataExistsFlagFalse, report.Issues[0].Type)
	assert.Equal(t, models.SeverityHigh, report.Issues[0].Severity)
	for _, issue := range report.Issues {
		assert.NotEqual(t, models.IssueStepStatusMismatch, issue.Type)
	}
	assert.Equal(t, models.AuditMajorIssues, report.OverallStatus)
}

func TestEvaluate_FlagWithoutDataIsMedium(t *testing.T) {
	state := emptyRecord("rec-1")
	state.LegacyFlags[models.StepOwner] = true

	report := Evaluate(state)

	require.Len(t, report.Issues, 1)
	assert.Equal(t, models.IssueFlagTrueNoData, report.Issues[0].Type)
	assert.Equal(t, models.SeverityMedium, report.Issues[0].Severity)
	assert.Equal(t, models.AuditMinorIssues, report.OverallStatus)
}

func TestEvaluate_StatusMismatchBothDirections(t *testing.T) {
	state := emptyRecord("rec-1")

	// data present but status lagging behind
	state.LegacyFlags[models.StepBanking] = true
	state.Steps[models.StepBanking] = models.StepState{
		StepNumber: models.StepBanking,
		Status:     models.StepInProgress,
		Data:       models.StepData{"account_holder": "J. Doe", "iban": "DE89370400440532013000"},
	}

	// status claims completion with no data behind it
	state.Steps[models.StepPhotos] = models.StepState{
		StepNumber: models.StepPhotos,
		Status:     models.StepCompleted,
	}
	state.StepsCompleted = 1

	report := Evaluate(state)

	require.Len(t, report.Issues, 2)
	for _, issue := range report.Issues {
		assert.Equal(t, models.IssueStepStatusMismatch, issue.Type)
		assert.Equal(t, models.SeverityMedium, issue.Severity)
	}
	assert.Equal(t, models.AuditMinorIssues, report.OverallStatus)
}

func TestEvaluate_CounterMismatchIsLow(t *testing.T) {
	state := emptyRecord("rec-1")
	state.StepsCompleted = 3

	report := Evaluate(state)

	require.Len(t, report.Issues, 1)
	issue := report.Issues[0]
	assert.Equal(t, models.IssueSessionCounterMismatch, issue.Type)
	assert.Equal(t, models.SeverityLow, issue.Severity)
	assert.Zero(t, issue.Step)
	assert.Equal(t, models.AuditMinorIssues, report.OverallStatus)
}

func TestEvaluate_OneStepCanProduceSeveralIssues(t *testing.T) {
	state := emptyRecord("rec-1")
	state.Steps[models.StepStaff] = models.StepState{
		StepNumber: models.StepStaff,
		Status:     models.StepInProgress,
		Data:       models.StepData{"staff": []any{map[string]any{"name": "Made", "role": "manager"}}},
	}

	report := Evaluate(state)

	// flag false and status not COMPLETED while real data exists
	require.Len(t, report.Issues, 2)
	assert.Equal(t, models.IssueDataExistsFlagFalse, report.Issues[0].Type)
	assert.Equal(t, models.IssueStepStatusMismatch, report.Issues[1].Type)
}

// fakeSource serves canned record states to the auditor.
type fakeSource struct {
	records map[string]models.RecordState
	order   []string
	listErr error
}

func (f *fakeSource) FetchRecord(_ context.Context, recordID string) (models.RecordState, error) {
	state, ok := f.records[recordID]
	if !ok {
		return models.RecordState{}, errors.New("record not found")
	}
	return state, nil
}

func (f *fakeSource) ListRecordIDs(_ context.Context) ([]string, error) {
	return f.order, f.listErr
}

func TestAuditAll_AggregatesVerdicts(t *testing.T) {
	major := emptyRecord("rec-major")
	major.Steps[models.StepVillaInfo] = models.StepState{
		StepNumber: models.StepVillaInfo,
		Status:     models.StepCompleted,
		Data:       models.StepData{"villa_name": "Casa Azul", "address": "Jl. Pantai 7"},
	}
	major.StepsCompleted = 1

	minor := emptyRecord("rec-minor")
	minor.LegacyFlags[models.StepOwner] = true

	auditor := NewAuditor(&fakeSource{
		records: map[string]models.RecordState{
			"rec-ok":    emptyRecord("rec-ok"),
			"rec-minor": minor,
			"rec-major": major,
		},
		order: []string{"rec-ok", "rec-minor", "rec-major"},
	}, logger.Nop())

	summary, err := auditor.AuditAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, 1, summary.Consistent)
	assert.Equal(t, 1, summary.MinorIssues)
	assert.Equal(t, 1, summary.MajorIssues)
	require.Len(t, summary.Reports, 3)
	assert.Equal(t, "rec-ok", summary.Reports[0].RecordID)
}

func TestAuditAll_EnumerationFailureIsFatal(t *testing.T) {
	auditor := NewAuditor(&fakeSource{listErr: errors.New("db gone")}, logger.Nop())

	_, err := auditor.AuditAll(context.Background())
	assert.Error(t, err)
}

func TestAuditRecord_FetchFailure(t *testing.T) {
	auditor := NewAuditor(&fakeSource{}, logger.Nop())

	_, err := auditor.AuditRecord(context.Background(), "rec-missing")
	assert.Error(t, err)
}
