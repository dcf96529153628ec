// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package adapter

import "github.com/staylio/villa-onboard/models"

// OutcomeKind classifies the result of one step-save attempt. The four
// kinds are disjoint: every attempt produces exactly one.
type OutcomeKind int

const (
	// OutcomeSuccess means the server accepted the write and returned the
	// step's new version.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeValidationRejected means the server rejected the payload as
	// invalid user input (HTTP 422). The step should be blocked from
	// further autosave attempts until the user edits it again.
	OutcomeValidationRejected

	// OutcomeVersionConflict means the step's stored version no longer
	// matches what was sent: someone or something else wrote newer data.
	// The step must not be retried with the same payload; it is queued for
	// reconciliation instead.
	OutcomeVersionConflict

	// OutcomeTransientFailure covers network errors and any server
	// response that is neither an accept, a validation rejection, nor a
	// version conflict. The step stays dirty and is retried on the next
	// scheduled flush.
	OutcomeTransientFailure
)

// String returns a short label for logging.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationRejected:
		return "validation_rejected"
	case OutcomeVersionConflict:
		return "version_conflict"
	case OutcomeTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// SaveOutcome is the classified result of one step-save attempt.
type SaveOutcome struct {
	Kind OutcomeKind

	// Version is the new server-side version; set only on OutcomeSuccess.
	Version int64

	// FieldErrors carries per-field validation messages; set only on
	// OutcomeValidationRejected.
	FieldErrors models.FieldErrors

	// Err is the underlying cause; set only on OutcomeTransientFailure.
	// Callers can use errors.Is(Err, ErrUnauthorized) to log auth
	// unavailability distinctly from ordinary infrastructure failures.
	Err error
}

// Success constructs a success outcome carrying the new version.
func Success(version int64) SaveOutcome {
	return SaveOutcome{Kind: OutcomeSuccess, Version: version}
}

// ValidationRejected constructs a validation-rejection outcome.
func ValidationRejected(fields models.FieldErrors) SaveOutcome {
	return SaveOutcome{Kind: OutcomeValidationRejected, FieldErrors: fields}
}

// VersionConflict constructs a version-conflict outcome.
func VersionConflict() SaveOutcome {
	return SaveOutcome{Kind: OutcomeVersionConflict}
}

// TransientFailure constructs a transient-failure outcome wrapping cause.
func TransientFailure(cause error) SaveOutcome {
	return SaveOutcome{Kind: OutcomeTransientFailure, Err: cause}
}
