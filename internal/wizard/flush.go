// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/staylio/villa-onboard/internal/adapter"
	"github.com/staylio/villa-onboard/models"
)

// saveAttempt pairs one step's outbound request with its classified outcome.
type saveAttempt struct {
	step    int
	req     models.StepSaveRequest
	outcome adapter.SaveOutcome
}

// beginFlushLocked transitions the session into the flushing state and
// builds the save attempts for the batch. Each attempt snapshots the step's
// current data and carries its last-known version; edits arriving while the
// flush is in flight are not lost, they simply keep the step dirty relative
// to the sent payload. Caller holds s.mu.
func (s *Session) beginFlushLocked(batch []int) ([]*saveAttempt, chan struct{}) {
	s.flushing = true
	s.flushDone = make(chan struct{})
	s.lastFlush = s.now()

	attempts := make([]*saveAttempt, 0, len(batch))
	for _, step := range batch {
		attempts = append(attempts, &saveAttempt{
			step: step,
			req: models.StepSaveRequest{
				StepNumber:      step,
				Data:            s.steps.markInFlight(step),
				Version:         s.ledger.version(step),
				OperationID:     s.ids.Generate(),
				ClientTimestamp: s.now(),
			},
		})
	}
	return attempts, s.flushDone
}

// runFlush executes one flush to completion: it saves every step of the
// batch concurrently, applies all outcomes as one atomic step, runs
// conflict reconciliation if needed, clears the flushing flag, and writes a
// backup snapshot. Notifier callbacks are emitted after the lock is
// released.
func (s *Session) runFlush(ctx context.Context, attempts []*saveAttempt, done chan struct{}) {
	recordID := s.RecordID()

	var wg sync.WaitGroup
	for _, a := range attempts {
		wg.Add(1)
		go func(a *saveAttempt) {
			defer wg.Done()
			a.outcome = s.adapter.SaveStep(ctx, recordID, a.req)
		}(a)
	}
	wg.Wait()

	saved, failed, conflicted, rejected := s.applyOutcomes(attempts)

	for _, r := range rejected {
		s.notifier.ValidationWarning(r.step, r.outcome.FieldErrors)
	}
	if len(saved) > 0 && len(failed) > 0 {
		s.notifier.PartialSaveNotice(saved, failed)
	}

	if len(conflicted) > 0 {
		s.reconcile(ctx, conflicted)
	}

	s.mu.Lock()
	s.flushing = false
	s.flushDone = nil
	s.mu.Unlock()
	close(done)

	s.writeBackup(ctx)
}

// applyOutcomes applies every attempt's classified outcome under the lock,
// in one atomic step:
//
//   - success: the returned version is adopted and the sent payload becomes
//     the step's baseline;
//   - validation rejection: the step joins the blocked set, pausing its
//     autosave until the user edits it again;
//   - version conflict: the attempt is queued for reconciliation, never
//     retried blindly;
//   - transient failure: the step stays dirty for the next cycle.
//
// It returns the step lists needed for the user-facing notices; the
// partial-save notice concerns only transient failures, which is why
// conflicts and rejections are returned separately.
func (s *Session) applyOutcomes(attempts []*saveAttempt) (saved, failed, conflicted []int, rejected []*saveAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range attempts {
		switch a.outcome.Kind {
		case adapter.OutcomeSuccess:
			s.ledger.adopt(a.step, a.outcome.Version)
			s.steps.settle(a.step, true)
			saved = append(saved, a.step)
			s.log.Debug().
				Int("step", a.step).
				Int64("version", a.outcome.Version).
				Str("operation_id", a.req.OperationID).
				Msg("step saved")

		case adapter.OutcomeValidationRejected:
			s.steps.settle(a.step, false)
			s.blocked[a.step] = struct{}{}
			rejected = append(rejected, a)
			s.log.Info().
				Int("step", a.step).
				Int("fields", len(a.outcome.FieldErrors)).
				Msg("step save rejected by validation")

		case adapter.OutcomeVersionConflict:
			s.steps.settle(a.step, false)
			conflicted = append(conflicted, a.step)
			s.log.Warn().
				Int("step", a.step).
				Int64("sent_version", a.req.Version).
				Msg("step save hit version conflict")

		case adapter.OutcomeTransientFailure:
			s.steps.settle(a.step, false)
			failed = append(failed, a.step)
			evt := s.log.Warn().Int("step", a.step).Err(a.outcome.Err)
			if errors.Is(a.outcome.Err, adapter.ErrUnauthorized) {
				evt.Msg("step save failed: auth unavailable")
			} else {
				evt.Msg("step save failed transiently")
			}
		}
	}
	return saved, failed, conflicted, rejected
}

// FlushNow saves all pending changes synchronously, bypassing the debounce
// and rate-floor timers. It waits for any in-flight flush to finish first
// and keeps flushing until no dirty, unblocked step remains or a pass makes
// no progress. [ErrUnsavedSteps] is returned when unsaved changes remain.
func (s *Session) FlushNow(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.active {
			s.mu.Unlock()
			return ErrSessionClosed
		}
		if s.flushing {
			done := s.flushDone
			s.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		batch := s.collectBatchLocked()
		if len(batch) == 0 {
			remaining := len(s.steps.dirtySteps())
			s.mu.Unlock()
			if remaining > 0 {
				return fmt.Errorf("%w: %d blocked", ErrUnsavedSteps, remaining)
			}
			return nil
		}
		attempts, done := s.beginFlushLocked(batch)
		s.mu.Unlock()

		s.runFlush(ctx, attempts, done)

		allSaved := true
		for _, a := range attempts {
			if a.outcome.Kind != adapter.OutcomeSuccess {
				allSaved = false
				break
			}
		}
		if !allSaved {
			return fmt.Errorf("%w: flush left failures behind", ErrUnsavedSteps)
		}
	}
}
