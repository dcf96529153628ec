// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package models

import "time"

// StepStatus is the tri-state completion status kept in the per-step
// progress table. It is one of three overlapping progress representations
// the system maintains (legacy flags, step status, actual data), an artifact
// of incremental schema evolution that the consistency auditor reconciles
// but never collapses.
type StepStatus string

const (
	StepNotStarted StepStatus = "NOT_STARTED"
	StepInProgress StepStatus = "IN_PROGRESS"
	StepCompleted  StepStatus = "COMPLETED"
)

// StepState is the authoritative server-side state of one wizard step as
// returned by the progress-fetch endpoint.
type StepState struct {
	StepNumber int        `json:"step_number"`
	Version    int64      `json:"version"`
	Status     StepStatus `json:"status"`
	Data       StepData   `json:"data"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// RecordState is the full authoritative state of an onboarding record:
// the summary row plus every step's state. It is consumed by the conflict
// reconciler, by the client at session start, and by the consistency
// auditor's dataExists predicates.
type RecordState struct {
	RecordID       string              `json:"record_id"`
	OwnerLogin     string              `json:"owner_login"`
	StepsCompleted int                 `json:"steps_completed"`
	Submitted      bool                `json:"submitted"`
	LegacyFlags    map[int]bool        `json:"legacy_flags"`
	Steps          map[int]StepState   `json:"steps"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Step returns the state for step, or a zero-valued StepState (version 0,
// NOT_STARTED, nil data) when the step has never been written.
func (r RecordState) Step(step int) StepState {
	if st, ok := r.Steps[step]; ok {
		return st
	}
	return StepState{StepNumber: step, Status: StepNotStarted}
}

// LegacyFlag returns the legacy boolean completion flag for step. Missing
// entries read as false, matching the historical default of the flag
// columns.
func (r RecordState) LegacyFlag(step int) bool {
	return r.LegacyFlags[step]
}
