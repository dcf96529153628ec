package tui

import (
	"github.com/staylio/villa-onboard/models"
)

// Messages delivered into the bubbletea loop, either by command completion
// or by the session's Notifier callbacks.

type flushDoneMsg struct {
	err error
}

type completeDoneMsg struct {
	step int
	err  error
}

type submitDoneMsg struct {
	err error
}

type partialSaveMsg struct {
	saved  []int
	failed []int
}

type validationMsg struct {
	step   int
	fields models.FieldErrors
}

type conflictMsg struct {
	conflicted []int
}

type reconcileFailedMsg struct {
	err error
}
