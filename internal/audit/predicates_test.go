package audit

import (
	"testing"

	"github.com/staylio/villa-onboard/models"
	"github.com/stretchr/testify/assert"
)

func stateWithStep(step int, data models.StepData) models.RecordState {
	return models.RecordState{
		Steps: map[int]models.StepState{
			step: {StepNumber: step, Data: data},
		},
	}
}

func TestDataExistsPredicates(t *testing.T) {
	tests := []struct {
		name string
		step int
		data models.StepData
		want bool
	}{
		{
			name: "villa info with all required fields",
			step: models.StepVillaInfo,
			data: models.StepData{"villa_name": "Casa Azul", "address": "Jl. Pantai 7"},
			want: true,
		},
		{
			name: "villa info missing address",
			step: models.StepVillaInfo,
			data: models.StepData{"villa_name": "Casa Azul"},
			want: false,
		},
		{
			name: "villa info with blank name",
			step: models.StepVillaInfo,
			data: models.StepData{"villa_name": "   ", "address": "Jl. Pantai 7"},
			want: false,
		},
		{
			name: "no data at all",
			step: models.StepOwner,
			data: nil,
			want: false,
		},
		{
			name: "owner with required fields",
			step: models.StepOwner,
			data: models.StepData{"owner_name": "J. Doe", "email": "j@example.com"},
			want: true,
		},
		{
			name: "one active channel credential",
			step: models.StepChannels,
			data: models.StepData{"channels": []any{
				map[string]any{"name": "direct", "active": true},
			}},
			want: true,
		},
		{
			name: "only inactive channels",
			step: models.StepChannels,
			data: models.StepData{"channels": []any{
				map[string]any{"name": "direct", "active": false},
			}},
			want: false,
		},
		{
			name: "active channel without a name does not count",
			step: models.StepChannels,
			data: models.StepData{"channels": []any{
				map[string]any{"active": true},
			}},
			want: false,
		},
		{
			name: "one document entry",
			step: models.StepDocuments,
			data: models.StepData{"documents": []any{map[string]any{"kind": "deed"}}},
			want: true,
		},
		{
			name: "empty document list",
			step: models.StepDocuments,
			data: models.StepData{"documents": []any{}},
			want: false,
		},
		{
			name: "one photo entry",
			step: models.StepPhotos,
			data: models.StepData{"photos": []any{map[string]any{"url": "https://cdn/1.jpg"}}},
			want: true,
		},
		{
			name: "review confirmed",
			step: models.StepReview,
			data: models.StepData{"confirmed": true},
			want: true,
		},
		{
			name: "review not confirmed",
			step: models.StepReview,
			data: models.StepData{"confirmed": false, "notes": "looks fine"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := stateWithStep(tt.step, tt.data)
			assert.Equal(t, tt.want, dataExists[tt.step](state))
		})
	}
}
