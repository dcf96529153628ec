// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package models

import "time"

// StepSaveRequest is one optimistic-concurrency save attempt for a single
// wizard step. Version carries the client's last-known accepted version for
// the step (0 for a step that has never been saved); the server compares it
// against its stored value and rejects the write on mismatch.
type StepSaveRequest struct {
	// StepNumber identifies the wizard step being saved (1..StepCount).
	StepNumber int `json:"step_number"`

	// Data is the step's full payload. Saves are whole-step replacements;
	// there is no field-level patching.
	Data StepData `json:"data"`

	// Version is the optimistic-concurrency token for the step. The client
	// must never guess or locally increment it; it only echoes the value
	// last returned by the server.
	Version int64 `json:"version"`

	// OperationID is a unique identifier for this save attempt, used for
	// log correlation only. The server performs no deduplication on it.
	OperationID string `json:"operation_id"`

	// ClientTimestamp is the client's wall-clock time when the attempt was
	// issued.
	ClientTimestamp time.Time `json:"client_timestamp"`
}

// StepSaveResponse is the success body of the step-save endpoint.
type StepSaveResponse struct {
	// Version is the new server-side version of the step after the accepted
	// write. It becomes the client's token for the next save attempt.
	Version int64 `json:"version"`
}

// FieldErrors maps field names to human-readable validation messages, as
// returned by the step-save endpoint with HTTP 422.
type FieldErrors map[string]string

// ValidationErrorResponse is the body of a 422 response from the step-save
// endpoint.
type ValidationErrorResponse struct {
	Errors FieldErrors `json:"errors"`
}

// CreateRecordResponse is the body returned when a new onboarding record is
// created.
type CreateRecordResponse struct {
	RecordID string `json:"record_id"`
}
