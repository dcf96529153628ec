package service

import (
	"errors"
	"fmt"

	"github.com/staylio/villa-onboard/models"
)

var (
	// ErrInvalidDataProvided is returned when a request is structurally
	// unusable (unknown step number, empty record id).
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrTokenIsExpiredOrInvalid is the normalised auth failure: callers do
	// not need to distinguish expired, malformed, or mis-issued tokens.
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
)

// ValidationError carries the per-field messages of a rejected step payload.
// The handler layer turns it into a 422 response body; everything else
// treats it as an ordinary error.
type ValidationError struct {
	Fields models.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step payload validation failed (%d fields)", len(e.Fields))
}
