package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/staylio/villa-onboard/models"
)

// Per-step payload shapes used for save-time validation. Autosave sends
// partially filled forms, so almost every field is optional; format
// constraints apply only when a value is present. Required-field
// completeness is the consistency auditor's business, not the save path's.

type villaInfoPayload struct {
	VillaName string `json:"villa_name" validate:"omitempty,min=2,max=200"`
	Address   string `json:"address" validate:"omitempty,min=5,max=500"`
	Bedrooms  *int   `json:"bedrooms" validate:"omitempty,gte=0,lte=100"`
	Bathrooms *int   `json:"bathrooms" validate:"omitempty,gte=0,lte=100"`
}

type ownerPayload struct {
	OwnerName string `json:"owner_name" validate:"omitempty,min=2,max=200"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,e164"`
}

type contractPayload struct {
	ContractType   string   `json:"contract_type" validate:"omitempty,oneof=exclusive non_exclusive"`
	CommissionRate *float64 `json:"commission_rate" validate:"omitempty,gte=0,lte=100"`
	StartDate      string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type bankingPayload struct {
	AccountHolder string `json:"account_holder" validate:"omitempty,min=2,max=200"`
	IBAN          string `json:"iban" validate:"omitempty,min=15,max=34"`
	SwiftCode     string `json:"swift_code" validate:"omitempty,min=8,max=11"`
	Currency      string `json:"currency" validate:"omitempty,iso4217"`
}

type channelEntry struct {
	Name   string `json:"name" validate:"required,max=100"`
	Active bool   `json:"active"`
	APIKey string `json:"api_key" validate:"omitempty,min=8"`
}

type channelsPayload struct {
	Channels []channelEntry `json:"channels" validate:"omitempty,dive"`
}

type documentEntry struct {
	Kind string `json:"kind" validate:"required,oneof=deed license insurance tax other"`
	URL  string `json:"url" validate:"omitempty,url"`
}

type documentsPayload struct {
	Documents []documentEntry `json:"documents" validate:"omitempty,dive"`
}

type staffEntry struct {
	Name string `json:"name" validate:"required,max=200"`
	Role string `json:"role" validate:"omitempty,oneof=manager housekeeper gardener chef security other"`
}

type staffPayload struct {
	Staff []staffEntry `json:"staff" validate:"omitempty,dive"`
}

type facilitiesPayload struct {
	Facilities []string `json:"facilities" validate:"omitempty,dive,min=2,max=100"`
}

type photoEntry struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption" validate:"omitempty,max=300"`
}

type photosPayload struct {
	Photos []photoEntry `json:"photos" validate:"omitempty,dive"`
}

type reviewPayload struct {
	Confirmed *bool  `json:"confirmed"`
	Notes     string `json:"notes" validate:"omitempty,max=2000"`
}

// stepPayloads maps a step number to a constructor of its typed payload.
var stepPayloads = map[int]func() any{
	models.StepVillaInfo:  func() any { return &villaInfoPayload{} },
	models.StepOwner:      func() any { return &ownerPayload{} },
	models.StepContract:   func() any { return &contractPayload{} },
	models.StepBanking:    func() any { return &bankingPayload{} },
	models.StepChannels:   func() any { return &channelsPayload{} },
	models.StepDocuments:  func() any { return &documentsPayload{} },
	models.StepStaff:      func() any { return &staffPayload{} },
	models.StepFacilities: func() any { return &facilitiesPayload{} },
	models.StepPhotos:     func() any { return &photosPayload{} },
	models.StepReview:     func() any { return &reviewPayload{} },
}

// stepValidator validates opaque step payloads against the typed per-step
// rule structs above.
type stepValidator struct {
	validate *validator.Validate
}

func newStepValidator() *stepValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report violations under the json field name, not the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &stepValidator{validate: v}
}

// ValidateStep checks data against the step's rules and returns per-field
// messages, nil when the payload is acceptable. Unknown extra fields are
// tolerated; a field of the wrong JSON type is reported against that field.
func (v *stepValidator) ValidateStep(step int, data models.StepData) models.FieldErrors {
	newPayload, ok := stepPayloads[step]
	if !ok || len(data) == 0 {
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return models.FieldErrors{"_": "step payload is not serialisable"}
	}

	target := newPayload()
	if err := json.Unmarshal(raw, target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return models.FieldErrors{typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type)}
		}
		return models.FieldErrors{"_": "step payload has an invalid shape"}
	}

	if err := v.validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.FieldErrors{"_": "step payload failed validation"}
		}

		fields := make(models.FieldErrors, len(verrs))
		for _, fe := range verrs {
			fields[fieldKey(fe)] = messageForTag(fe)
		}
		return fields
	}

	return nil
}

// fieldKey strips the payload struct name from the violation namespace,
// leaving keys like "email" or "channels[0].name".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "e164":
		return "must be an international phone number (+countrycode...)"
	case "iso4217":
		return "must be a three-letter currency code"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "lte":
		return fmt.Sprintf("must be %s or less", fe.Param())
	default:
		return "is invalid"
	}
}
