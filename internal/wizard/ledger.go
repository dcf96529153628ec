// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package wizard

import "github.com/staylio/villa-onboard/models"

// versionLedger tracks each step's last server-accepted version. Versions
// enter the ledger from exactly two places: an accepted save's response and
// a whole-record fetch. The client never invents or increments a version on
// its own; a step that has never been saved reads as version 0.
//
// Not goroutine-safe; the owning Session serialises access.
type versionLedger struct {
	versions map[int]int64
}

func newVersionLedger() *versionLedger {
	return &versionLedger{versions: make(map[int]int64, models.StepCount)}
}

func (l *versionLedger) version(step int) int64 {
	return l.versions[step]
}

// adopt records the version returned by an accepted save.
func (l *versionLedger) adopt(step int, version int64) {
	l.versions[step] = version
}

// replaceAll discards every tracked version and adopts the versions from an
// authoritative record fetch wholesale. Partial merging is deliberately not
// supported: after a conflict the local ledger is untrustworthy as a whole.
func (l *versionLedger) replaceAll(state models.RecordState) {
	l.versions = make(map[int]int64, len(state.Steps))
	for step, st := range state.Steps {
		l.versions[step] = st.Version
	}
}
