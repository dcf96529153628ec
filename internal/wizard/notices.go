// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package wizard

import "github.com/staylio/villa-onboard/models"

// Notifier receives user-facing notices from the sync core. The TUI is the
// production implementation; tests use recording fakes.
//
// Callbacks are invoked outside the session lock, so implementations may call
// back into the [Session] accessors freely. They are invoked from the
// session's flush goroutine, never concurrently with each other.
type Notifier interface {
	// PartialSaveNotice reports a flush in which some steps were accepted
	// and others failed for infrastructure reasons. It is NOT emitted when
	// the only failures were validation rejections or version conflicts;
	// those produce their own dedicated notices.
	PartialSaveNotice(saved, failed []int)

	// ValidationWarning reports a non-blocking validation rejection for one
	// step. The user may keep editing; autosave for the step is paused until
	// the step's data changes again.
	ValidationWarning(step int, fields models.FieldErrors)

	// ConflictRefreshed reports that a version conflict was detected and the
	// local state has been replaced with the authoritative server state.
	// conflicted lists the steps whose save attempts collided.
	ConflictRefreshed(state models.RecordState, conflicted []int)

	// ReconcileFailed reports that the post-conflict re-fetch failed and the
	// session can no longer guarantee version accuracy. The user should
	// reload before continuing.
	ReconcileFailed(err error)
}

// NopNotifier is a Notifier that ignores all notices.
type NopNotifier struct{}

func (NopNotifier) PartialSaveNotice(_, _ []int)                    {}
func (NopNotifier) ValidationWarning(_ int, _ models.FieldErrors)   {}
func (NopNotifier) ConflictRefreshed(_ models.RecordState, _ []int) {}
func (NopNotifier) ReconcileFailed(_ error)                         {}
