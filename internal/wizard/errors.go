package wizard

import "errors"

var (
	// ErrSessionClosed is returned by operations invoked after Close.
	ErrSessionClosed = errors.New("wizard session closed")

	// ErrNoRecord is returned when an operation requires a server-side
	// record that has not been created yet.
	ErrNoRecord = errors.New("no onboarding record assigned to session")

	// ErrCriticalLoadFailure is returned when the initial record load kept
	// failing past the retry budget. It is the only condition that should
	// present a blocking, non-recoverable-in-place error to the user.
	ErrCriticalLoadFailure = errors.New("initial record load failed repeatedly")

	// ErrUnsavedSteps is returned by FlushNow when dirty steps remain after
	// the flush, either because their save attempts failed or because they
	// are blocked on a validation rejection.
	ErrUnsavedSteps = errors.New("steps with unsaved changes remain")

	// ErrReconcileFailed is returned when the post-conflict re-fetch of
	// authoritative state failed; continuing with possibly-stale versions
	// risks repeated conflicts, so the user is instructed to reload.
	ErrReconcileFailed = errors.New("conflict reconciliation failed")
)
