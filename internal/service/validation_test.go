package service

import (
	"testing"

	"github.com/staylio/villa-onboard/models"
	"github.com/stretchr/testify/assert"
)

func TestValidateStep(t *testing.T) {
	v := newStepValidator()

	tests := []struct {
		name       string
		step       int
		data       models.StepData
		wantFields []string
	}{
		{
			name: "valid partial villa info",
			step: models.StepVillaInfo,
			data: models.StepData{"villa_name": "Casa Azul"},
		},
		{
			name: "empty payload is acceptable",
			step: models.StepOwner,
			data: models.StepData{},
		},
		{
			name:       "too short villa name",
			step:       models.StepVillaInfo,
			data:       models.StepData{"villa_name": "X"},
			wantFields: []string{"villa_name"},
		},
		{
			name:       "wrong json type reported against the field",
			step:       models.StepVillaInfo,
			data:       models.StepData{"villa_name": 123},
			wantFields: []string{"villa_name"},
		},
		{
			name:       "invalid owner email",
			step:       models.StepOwner,
			data:       models.StepData{"owner_name": "J. Doe", "email": "not-an-email"},
			wantFields: []string{"email"},
		},
		{
			name:       "unknown contract type",
			step:       models.StepContract,
			data:       models.StepData{"contract_type": "handshake"},
			wantFields: []string{"contract_type"},
		},
		{
			name:       "bad contract date format",
			step:       models.StepContract,
			data:       models.StepData{"start_date": "01.02.2026"},
			wantFields: []string{"start_date"},
		},
		{
			name: "channel entry without a name",
			step: models.StepChannels,
			data: models.StepData{
				"channels": []any{map[string]any{"active": true}},
			},
			wantFields: []string{"channels[0].name"},
		},
		{
			name: "valid channel list",
			step: models.StepChannels,
			data: models.StepData{
				"channels": []any{map[string]any{"name": "direct", "active": true}},
			},
		},
		{
			name: "photo without url",
			step: models.StepPhotos,
			data: models.StepData{
				"photos": []any{map[string]any{"caption": "pool"}},
			},
			wantFields: []string{"photos[0].url"},
		},
		{
			name:       "several violations at once",
			step:       models.StepOwner,
			data:       models.StepData{"owner_name": "J", "email": "nope"},
			wantFields: []string{"owner_name", "email"},
		},
		{
			name: "extra unknown fields are tolerated",
			step: models.StepBanking,
			data: models.StepData{"account_holder": "J. Doe", "legacy_field": "ignored"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := v.ValidateStep(tt.step, tt.data)

			if len(tt.wantFields) == 0 {
				assert.Empty(t, fields)
				return
			}
			assert.Len(t, fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}
