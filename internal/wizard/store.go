// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package wizard

import (
	"reflect"
	"sort"

	"github.com/staylio/villa-onboard/models"
)

// stepEntry tracks one step's local editing state.
//
// baseline is the last payload the server acknowledged (or the data adopted
// from a record fetch); a step is dirty exactly when its current data differs
// from the baseline. inFlight holds the payload of an unresolved save
// attempt, nil when no attempt is pending.
type stepEntry struct {
	data     models.StepData
	baseline models.StepData
	inFlight models.StepData
}

func (e *stepEntry) dirty() bool {
	return !dataEqual(e.data, e.baseline)
}

// stepStore holds the local editing state of every step. It is not
// goroutine-safe; the owning Session serialises access through its mutex.
type stepStore struct {
	entries map[int]*stepEntry
}

func newStepStore() *stepStore {
	return &stepStore{entries: make(map[int]*stepEntry, models.StepCount)}
}

func (s *stepStore) entry(step int) *stepEntry {
	e, ok := s.entries[step]
	if !ok {
		e = &stepEntry{}
		s.entries[step] = e
	}
	return e
}

// set replaces the step's local data and reports whether the content
// actually changed. Writing data identical to the current content is a
// no-op: it neither dirties the step nor resets a pending save.
func (s *stepStore) set(step int, data models.StepData) bool {
	e := s.entry(step)
	if dataEqual(e.data, data) {
		return false
	}
	e.data = data.Clone()
	return true
}

// adoptServer replaces both data and baseline with the authoritative server
// payload, leaving the step clean. Used at session start and by conflict
// reconciliation.
func (s *stepStore) adoptServer(step int, data models.StepData) {
	e := s.entry(step)
	e.data = data.Clone()
	e.baseline = data.Clone()
	e.inFlight = nil
}

// markInFlight snapshots the step's current data as the payload of a save
// attempt and returns it. The snapshot, not the live data, becomes the
// baseline if the server accepts, so edits made while the attempt is in
// flight keep the step dirty.
func (s *stepStore) markInFlight(step int) models.StepData {
	e := s.entry(step)
	e.inFlight = e.data.Clone()
	return e.inFlight
}

// settle resolves the step's pending save attempt. When accepted, the sent
// payload becomes the new baseline.
func (s *stepStore) settle(step int, accepted bool) {
	e := s.entry(step)
	if accepted && e.inFlight != nil {
		e.baseline = e.inFlight
	}
	e.inFlight = nil
}

func (s *stepStore) dirty(step int) bool {
	e, ok := s.entries[step]
	return ok && e.dirty()
}

// dirtySteps returns the dirty step numbers in ascending order.
func (s *stepStore) dirtySteps() []int {
	var steps []int
	for step, e := range s.entries {
		if e.dirty() {
			steps = append(steps, step)
		}
	}
	sort.Ints(steps)
	return steps
}

func (s *stepStore) data(step int) models.StepData {
	if e, ok := s.entries[step]; ok {
		return e.data
	}
	return nil
}

// allData returns a deep-enough copy of every non-empty step payload, keyed
// by step number, for backup snapshots.
func (s *stepStore) allData() map[int]models.StepData {
	out := make(map[int]models.StepData, len(s.entries))
	for step, e := range s.entries {
		if len(e.data) == 0 {
			continue
		}
		out[step] = e.data.Clone()
	}
	return out
}

// dataEqual compares two step payloads treating nil and empty as identical.
func dataEqual(a, b models.StepData) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(map[string]any(a), map[string]any(b))
}
