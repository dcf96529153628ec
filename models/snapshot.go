// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package models

import "time"

// SnapshotFormatVersion is the embedded format tag of a serialised
// BackupSnapshot. Snapshots carrying an unknown tag are ignored by
// recovery.
const SnapshotFormatVersion = "1.0"

// BackupSnapshot is a durable point-in-time copy of the entire wizard's
// step data, written by the local backup store so that work survives
// reloads and offline periods. It is the only client-side state that must
// outlive a process restart.
type BackupSnapshot struct {
	// Format is the snapshot format tag, currently SnapshotFormatVersion.
	Format string `json:"format"`

	// SessionID identifies the editing session that produced the snapshot.
	SessionID string `json:"session_id"`

	// RecordID is the onboarding record being edited, empty until the
	// record has been created server-side.
	RecordID string `json:"record_id,omitempty"`

	// CurrentStep is the step the user was on when the snapshot was taken.
	CurrentStep int `json:"current_step"`

	// StepData holds every step's local data at snapshot time, keyed by
	// step number.
	StepData map[int]StepData `json:"step_data"`

	// SavedAt is when the snapshot was written. Recovery rejects snapshots
	// older than the configured freshness ceiling.
	SavedAt time.Time `json:"saved_at"`

	// ClientFingerprint loosely identifies the client installation that
	// wrote the snapshot (hostname and OS), for operator diagnostics.
	ClientFingerprint string `json:"client_fingerprint,omitempty"`
}
