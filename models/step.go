// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

// Package models defines the shared domain and wire types of the villa
// onboarding system: wizard steps, step-save requests and outcomes, progress
// snapshots, local backup snapshots, and consistency-audit reports.
//
// The types in this package are transport- and storage-agnostic; they carry
// JSON tags because both the HTTP API and the local backup store serialise
// them as JSON.
package models

// StepCount is the number of steps in the onboarding wizard.
// Step numbers are stable for the lifetime of a record and run 1..StepCount.
const StepCount = 10

// Wizard step numbers. The order is the order in which the client presents
// the steps; the sync core itself never depends on it.
const (
	StepVillaInfo = iota + 1
	StepOwner
	StepContract
	StepBanking
	StepChannels
	StepDocuments
	StepStaff
	StepFacilities
	StepPhotos
	StepReview
)

// stepNames maps step numbers to their human-readable names, used in audit
// reports and log output.
var stepNames = map[int]string{
	StepVillaInfo:  "Villa information",
	StepOwner:      "Owner details",
	StepContract:   "Contract terms",
	StepBanking:    "Banking details",
	StepChannels:   "Channel credentials",
	StepDocuments:  "Legal documents",
	StepStaff:      "Staff roster",
	StepFacilities: "Facilities",
	StepPhotos:     "Photos",
	StepReview:     "Review & submit",
}

// StepName returns the display name for step, or "Unknown step" when step is
// outside 1..StepCount.
func StepName(step int) string {
	if name, ok := stepNames[step]; ok {
		return name
	}
	return "Unknown step"
}

// ValidStep reports whether step is a valid wizard step number.
func ValidStep(step int) bool {
	return step >= 1 && step <= StepCount
}

// StepData is the opaque payload of one wizard step: a mapping of field name
// to value produced by the step's form. The sync core never inspects field
// semantics; only the server-side validators and the audit predicates do.
type StepData map[string]any

// Clone returns a shallow copy of d. Nested values are shared; callers that
// mutate nested structures must replace them wholesale, which is what the
// wizard forms do.
func (d StepData) Clone() StepData {
	if d == nil {
		return nil
	}
	out := make(StepData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
