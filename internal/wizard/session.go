// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/staylio/villa-onboard/internal/adapter"
	"github.com/staylio/villa-onboard/internal/backup"
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/utils"
	"github.com/staylio/villa-onboard/models"
)

// Deps bundles the collaborators a Session needs.
type Deps struct {
	Adapter  adapter.ServerAdapter
	Backup   backup.Store
	Notifier Notifier
	Logger   *logger.Logger
	IDs      *utils.UUIDGenerator

	// Fingerprint loosely identifies this client installation; it is
	// embedded in backup snapshots. See [backup.Fingerprint].
	Fingerprint string
}

// Session owns all mutable sync state for one wizard editing session: step
// data and baselines, the version ledger, the blocked-step set, the
// single-flight flush flag, and the autosave timers.
//
// All exported methods are safe for concurrent use. Internally the session
// serialises state changes through one mutex; network calls happen outside
// the lock and their results are applied atomically once all attempts of a
// flush have resolved.
type Session struct {
	mu sync.Mutex

	id       string
	recordID string
	current  int

	steps   *stepStore
	ledger  *versionLedger
	blocked map[int]struct{}

	active    bool
	flushing  bool
	flushDone chan struct{}
	lastFlush time.Time
	debounce  *time.Timer

	cfg      config.ClientSync
	adapter  adapter.ServerAdapter
	backup   backup.Store
	notifier Notifier
	log      *logger.Logger
	ids      *utils.UUIDGenerator
	fprint   string

	// now is swappable in tests.
	now func() time.Time

	ctx          context.Context
	stopPeriodic chan struct{}
	wg           sync.WaitGroup
}

// NewSession constructs an inactive session. Zero-valued cfg fields fall
// back to the reference defaults; a nil Notifier or Logger is replaced with
// a no-op one. Call [Session.Start] before anything else.
func NewSession(cfg config.ClientSync, deps Deps) *Session {
	def := config.DefaultClientSync()
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.RateFloor <= 0 {
		cfg.RateFloor = def.RateFloor
	}
	if cfg.Periodic <= 0 {
		cfg.Periodic = def.Periodic
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = def.BatchLimit
	}
	if cfg.LoadRetryBudget <= 0 {
		cfg.LoadRetryBudget = def.LoadRetryBudget
	}

	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.IDs == nil {
		deps.IDs = utils.NewUUIDGenerator()
	}

	return &Session{
		id:           deps.IDs.Generate(),
		steps:        newStepStore(),
		ledger:       newVersionLedger(),
		blocked:      make(map[int]struct{}),
		cfg:          cfg,
		adapter:      deps.Adapter,
		backup:       deps.Backup,
		notifier:     deps.Notifier,
		log:          deps.Logger,
		ids:          deps.IDs,
		fprint:       deps.Fingerprint,
		now:          time.Now,
		stopPeriodic: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// RecordID returns the onboarding record this session edits, empty before
// Start has created or attached one.
func (s *Session) RecordID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

// AttachRecord binds the session to an existing record before Start. A
// session with no attached record creates a fresh one on Start.
func (s *Session) AttachRecord(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordID = recordID
}

// Start brings the session online: it creates the record if none is
// attached, loads the authoritative record state (retrying up to the
// configured budget), seeds the ledger and step baselines from it, and
// starts the periodic autosave timer.
//
// A load failure that exhausts the budget is returned wrapped in
// [ErrCriticalLoadFailure]; the session stays inactive and editing must not
// proceed.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	recordID := s.recordID
	s.mu.Unlock()

	if recordID == "" {
		created, err := s.adapter.CreateRecord(ctx)
		if err != nil {
			return fmt.Errorf("create onboarding record: %w", err)
		}
		recordID = created
		s.log.Info().Str("record_id", recordID).Msg("created onboarding record")
	}

	state, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.recordID = recordID
	s.log = s.log.WithRecord(recordID)
	s.applyRecordStateLocked(state)
	s.ctx = ctx
	s.active = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runPeriodic()

	s.log.Info().
		Str("session_id", s.id).
		Int("steps_completed", state.StepsCompleted).
		Msg("wizard session started")
	return nil
}

// loadRecord fetches the record state, retrying transient failures up to
// the configured budget with a short linear backoff.
func (s *Session) loadRecord(ctx context.Context, recordID string) (models.RecordState, error) {
	budget := s.cfg.LoadRetryBudget

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		state, err := s.adapter.FetchRecord(ctx, recordID)
		if err == nil {
			return state, nil
		}
		lastErr = err
		s.log.Warn().Err(err).
			Str("record_id", recordID).
			Int("attempt", attempt).
			Msg("initial record load failed")

		if attempt < budget {
			select {
			case <-ctx.Done():
				return models.RecordState{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}

	return models.RecordState{}, fmt.Errorf("%w: %w", ErrCriticalLoadFailure, lastErr)
}

// applyRecordStateLocked replaces the ledger and every step baseline with
// the authoritative state. Caller holds s.mu.
// applyRecordStateLocked adopts a freshly fetched record wholesale. The
// blocked set is reset for every step, not only the conflicted ones: the
// fetch also replaced each step's data with the server's, so a previously
// rejected payload no longer exists locally and cannot be re-sent.
func (s *Session) applyRecordStateLocked(state models.RecordState) {
	s.ledger.replaceAll(state)
	for step := 1; step <= models.StepCount; step++ {
		s.steps.adoptServer(step, state.Step(step).Data)
	}
	s.blocked = make(map[int]struct{})
}

// SetStepData replaces the local data of one step with the form's current
// content. Identical content is a no-op. A content change lifts a
// validation block on the step, arms the debounced autosave timer (when the
// step is now dirty), and is snapshotted to the local backup right away so
// the edit survives a crash inside the debounce window.
func (s *Session) SetStepData(step int, data models.StepData) error {
	if !models.ValidStep(step) {
		return fmt.Errorf("invalid step number %d", step)
	}

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	s.current = step
	if !s.steps.set(step, data) {
		s.mu.Unlock()
		return nil
	}

	delete(s.blocked, step)
	if s.steps.dirty(step) {
		s.scheduleLocked(s.cfg.Debounce)
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.writeBackup(ctx)
	return nil
}

// StepData returns a copy of the step's current local data.
func (s *Session) StepData(step int) models.StepData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps.data(step).Clone()
}

// StepVersion returns the step's last server-accepted version, 0 for a step
// never saved.
func (s *Session) StepVersion(step int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.version(step)
}

// IsBlocked reports whether the step is excluded from autosave because its
// last save attempt was rejected by validation.
func (s *Session) IsBlocked(step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocked[step]
	return ok
}

// DirtySteps returns the steps with unsaved local changes, in ascending
// order.
func (s *Session) DirtySteps() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps.dirtySteps()
}

// CompleteStep flushes pending changes and then marks the step complete on
// the server.
func (s *Session) CompleteStep(ctx context.Context, step int) error {
	if !models.ValidStep(step) {
		return fmt.Errorf("invalid step number %d", step)
	}
	if err := s.FlushNow(ctx); err != nil {
		return fmt.Errorf("flush before completing step %d: %w", step, err)
	}

	recordID := s.RecordID()
	if recordID == "" {
		return ErrNoRecord
	}
	if err := s.adapter.CompleteStep(ctx, recordID, step); err != nil {
		return fmt.Errorf("complete step %d: %w", step, err)
	}

	s.log.Info().Int("step", step).Msg("step marked complete")
	return nil
}

// Submit flushes pending changes, performs the terminal submission, and
// clears the local backup. A failed backup clear is logged, not surfaced:
// the submission already succeeded.
func (s *Session) Submit(ctx context.Context) error {
	if err := s.FlushNow(ctx); err != nil {
		return fmt.Errorf("flush before submit: %w", err)
	}

	recordID := s.RecordID()
	if recordID == "" {
		return ErrNoRecord
	}
	if err := s.adapter.Submit(ctx, recordID); err != nil {
		return fmt.Errorf("submit record: %w", err)
	}

	if s.backup != nil {
		if err := s.backup.Clear(ctx, recordID); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear backup after submit")
		}
	}

	s.log.Info().Msg("onboarding record submitted")
	return nil
}

// RecoverBackup looks up a fresh backup snapshot for the attached record.
func (s *Session) RecoverBackup(ctx context.Context) (models.BackupSnapshot, bool, error) {
	if s.backup == nil {
		return models.BackupSnapshot{}, false, nil
	}
	return s.backup.Recover(ctx, s.RecordID())
}

// RestoreSnapshot overlays a recovered backup snapshot onto the session as
// unsaved local edits. Steps whose snapshot data matches the server
// baseline stay clean; the rest become dirty and are picked up by the next
// autosave cycle.
func (s *Session) RestoreSnapshot(snap models.BackupSnapshot) error {
	s.mu.Lock()

	if !s.active {
		s.mu.Unlock()
		return ErrSessionClosed
	}

	anyDirty := false
	for step, data := range snap.StepData {
		if !models.ValidStep(step) {
			continue
		}
		if s.steps.set(step, data) {
			delete(s.blocked, step)
		}
		if s.steps.dirty(step) {
			anyDirty = true
		}
	}
	if snap.CurrentStep > 0 {
		s.current = snap.CurrentStep
	}
	if anyDirty {
		s.scheduleLocked(s.cfg.Debounce)
	}
	ctx := s.ctx
	s.mu.Unlock()

	// re-snapshot under this session's id so the restored edits are
	// durable again even if nothing flushes before the next crash
	s.writeBackup(ctx)

	s.log.Info().
		Int("steps", len(snap.StepData)).
		Time("saved_at", snap.SavedAt).
		Msg("restored backup snapshot")
	return nil
}

// ClearBackup removes the local backup snapshots for this session's record,
// e.g. after the user declines a recovery offer.
func (s *Session) ClearBackup(ctx context.Context) error {
	if s.backup == nil {
		return nil
	}
	return s.backup.Clear(ctx, s.RecordID())
}

// Close deactivates the session: timers are stopped, an in-flight flush is
// allowed to finish, and a final backup snapshot is written. Close does not
// close the backup store; its owner does.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	close(s.stopPeriodic)
	done := s.flushDone
	flushing := s.flushing
	s.mu.Unlock()

	if flushing && done != nil {
		<-done
	}
	s.wg.Wait()

	s.writeBackup(context.Background())
	s.log.Info().Str("session_id", s.id).Msg("wizard session closed")
	return nil
}

// runPeriodic is the forward-progress timer: it retries transiently failed
// steps and catches edits whose debounce window never fired.
func (s *Session) runPeriodic() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Periodic)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopPeriodic:
			return
		case <-ticker.C:
			s.flushScheduled("periodic")
		}
	}
}

// writeBackup persists a best-effort snapshot of the whole wizard state.
// Failures are logged and swallowed: the backup is a resilience layer, not
// the primary save path.
func (s *Session) writeBackup(ctx context.Context) {
	if s.backup == nil {
		return
	}

	s.mu.Lock()
	snap := models.BackupSnapshot{
		SessionID:         s.id,
		RecordID:          s.recordID,
		CurrentStep:       s.current,
		StepData:          s.steps.allData(),
		ClientFingerprint: s.fprint,
	}
	s.mu.Unlock()

	if err := s.backup.Save(ctx, snap); err != nil {
		s.log.Warn().Err(err).Msg("failed to write backup snapshot")
	}
}
