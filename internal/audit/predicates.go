package audit

import (
	"strings"

	"github.com/staylio/villa-onboard/models"
)

// dataExists predicates, one pure function per wizard step. Each predicate
// inspects the actual stored step data and decides whether the step holds
// real, qualifying content. This is the only place step-specific domain
// knowledge enters the auditor.
var dataExists = [models.StepCount + 1]func(models.RecordState) bool{
	models.StepVillaInfo:  requiredFields(models.StepVillaInfo, "villa_name", "address"),
	models.StepOwner:      requiredFields(models.StepOwner, "owner_name", "email"),
	models.StepContract:   requiredFields(models.StepContract, "contract_type", "start_date"),
	models.StepBanking:    requiredFields(models.StepBanking, "account_holder", "iban"),
	models.StepChannels:   hasActiveChannel,
	models.StepDocuments:  hasEntries(models.StepDocuments, "documents"),
	models.StepStaff:      hasEntries(models.StepStaff, "staff"),
	models.StepFacilities: hasEntries(models.StepFacilities, "facilities"),
	models.StepPhotos:     hasEntries(models.StepPhotos, "photos"),
	models.StepReview:     reviewConfirmed,
}

// requiredFields builds a predicate that holds when every named field is
// present as a non-blank string in the step's data map.
func requiredFields(step int, fields ...string) func(models.RecordState) bool {
	return func(state models.RecordState) bool {
		data := state.Step(step).Data
		if len(data) == 0 {
			return false
		}
		for _, field := range fields {
			if !nonBlankString(data[field]) {
				return false
			}
		}
		return true
	}
}

// hasEntries builds a predicate that holds when the step's data carries at
// least one entry under the given list field.
func hasEntries(step int, field string) func(models.RecordState) bool {
	return func(state models.RecordState) bool {
		entries, _ := state.Step(step).Data[field].([]any)
		return len(entries) > 0
	}
}

// hasActiveChannel holds when at least one channel credential entry is
// marked active.
func hasActiveChannel(state models.RecordState) bool {
	entries, _ := state.Step(models.StepChannels).Data["channels"].([]any)
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if active, _ := entry["active"].(bool); active && nonBlankString(entry["name"]) {
			return true
		}
	}
	return false
}

// reviewConfirmed holds when the owner ticked the final confirmation box.
func reviewConfirmed(state models.RecordState) bool {
	confirmed, _ := state.Step(models.StepReview).Data["confirmed"].(bool)
	return confirmed
}

func nonBlankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}
