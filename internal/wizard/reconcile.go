// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package wizard

import "context"

// reconcile resolves version conflicts by re-fetching the whole record and
// replacing the local ledger, baselines, and step data with the
// authoritative state. No per-step merging is attempted: after a conflict
// the entire local picture is suspect, and the freshly fetched state wins
// wholesale. Unsaved local edits are discarded; the ConflictRefreshed
// notice tells the user what happened so they can re-apply what still
// matters.
//
// The session stays in the flushing state for the duration, so no new save
// attempt can race the refresh.
func (s *Session) reconcile(ctx context.Context, conflicted []int) {
	recordID := s.RecordID()

	state, err := s.adapter.FetchRecord(ctx, recordID)
	if err != nil {
		s.log.Error().Err(err).
			Ints("conflicted_steps", conflicted).
			Msg("conflict reconciliation fetch failed")
		s.notifier.ReconcileFailed(err)
		return
	}

	s.mu.Lock()
	s.applyRecordStateLocked(state)
	s.mu.Unlock()

	s.log.Info().
		Ints("conflicted_steps", conflicted).
		Msg("local state refreshed after version conflict")
	s.notifier.ConflictRefreshed(state, conflicted)
}
