// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package wizard

import "time"

// scheduleLocked (re)arms the debounce timer to fire after d. Rearming on
// every edit means a typing burst produces one flush, not one per
// keystroke. Caller holds s.mu.
func (s *Session) scheduleLocked(d time.Duration) {
	if !s.active {
		return
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(d, func() {
		s.flushScheduled("debounce")
	})
}

// flushScheduled is the entry point for timer-driven flushes. It enforces
// the single-flight invariant and the rate floor: a trigger that arrives
// while a flush is in flight is dropped (the periodic timer will catch any
// leftovers), and one that arrives before the floor has elapsed since the
// previous flush start is deferred to the floor boundary.
func (s *Session) flushScheduled(reason string) {
	s.mu.Lock()

	if !s.active || s.flushing {
		s.mu.Unlock()
		return
	}
	if wait := s.cfg.RateFloor - s.now().Sub(s.lastFlush); wait > 0 {
		s.scheduleLocked(wait)
		s.mu.Unlock()
		return
	}

	batch := s.collectBatchLocked()
	if len(batch) == 0 {
		s.mu.Unlock()
		return
	}
	attempts, done := s.beginFlushLocked(batch)
	s.mu.Unlock()

	s.log.Debug().
		Str("reason", reason).
		Ints("steps", batch).
		Msg("autosave flush starting")
	s.runFlush(s.ctx, attempts, done)
}

// collectBatchLocked picks up to the batch limit of dirty, unblocked steps
// in ascending step order. Caller holds s.mu.
func (s *Session) collectBatchLocked() []int {
	dirty := s.steps.dirtySteps()

	batch := make([]int, 0, s.cfg.BatchLimit)
	for _, step := range dirty {
		if _, blocked := s.blocked[step]; blocked {
			continue
		}
		batch = append(batch, step)
		if len(batch) == s.cfg.BatchLimit {
			break
		}
	}
	return batch
}
