package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/staylio/villa-onboard/internal/adapter"
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/mock"
	"github.com/staylio/villa-onboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// noticeRecorder records every Notifier callback for assertions.
type noticeRecorder struct {
	mu sync.Mutex

	partialSaved  [][]int
	partialFailed [][]int
	warnings      map[int]models.FieldErrors
	refreshed     [][]int
	reconcileErrs []error
}

func newNoticeRecorder() *noticeRecorder {
	return &noticeRecorder{warnings: make(map[int]models.FieldErrors)}
}

func (r *noticeRecorder) PartialSaveNotice(saved, failed []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partialSaved = append(r.partialSaved, saved)
	r.partialFailed = append(r.partialFailed, failed)
}

func (r *noticeRecorder) ValidationWarning(step int, fields models.FieldErrors) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings[step] = fields
}

func (r *noticeRecorder) ConflictRefreshed(_ models.RecordState, conflicted []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshed = append(r.refreshed, conflicted)
}

func (r *noticeRecorder) ReconcileFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconcileErrs = append(r.reconcileErrs, err)
}

// quietSync returns scheduler settings whose timers never fire during a
// test; flushes are driven explicitly through FlushNow or flushScheduled.
func quietSync() config.ClientSync {
	return config.ClientSync{
		Debounce:        time.Hour,
		RateFloor:       time.Nanosecond,
		Periodic:        time.Hour,
		BatchLimit:      5,
		LoadRetryBudget: 1,
	}
}

func startedSession(t *testing.T, cfg config.ClientSync, srv *mock.MockServerAdapter, notices Notifier, state models.RecordState) *Session {
	t.Helper()

	state.RecordID = "rec-1"
	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").Return(state, nil)

	s := NewSession(cfg, Deps{Adapter: srv, Notifier: notices})
	s.AttachRecord("rec-1")
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStart_SeedsVersionsAndBaselines(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)

	state := models.RecordState{
		Steps: map[int]models.StepState{
			1: {StepNumber: 1, Version: 4, Status: models.StepCompleted, Data: models.StepData{"villa_name": "Casa Azul"}},
			3: {StepNumber: 3, Version: 2, Status: models.StepInProgress, Data: models.StepData{"contract_type": "exclusive"}},
		},
	}
	s := startedSession(t, quietSync(), srv, nil, state)

	assert.Equal(t, int64(4), s.StepVersion(1))
	assert.Equal(t, int64(2), s.StepVersion(3))
	assert.Equal(t, int64(0), s.StepVersion(2), "untouched step reads version 0")
	assert.Equal(t, "Casa Azul", s.StepData(1)["villa_name"])
	assert.Empty(t, s.DirtySteps(), "freshly loaded state must be clean")
}

func TestStart_CreatesRecordWhenUnattached(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)

	srv.EXPECT().CreateRecord(gomock.Any()).Return("rec-new", nil)
	srv.EXPECT().FetchRecord(gomock.Any(), "rec-new").Return(models.RecordState{RecordID: "rec-new"}, nil)

	s := NewSession(quietSync(), Deps{Adapter: srv})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, "rec-new", s.RecordID())
}

func TestStart_ExhaustedRetryBudgetIsCritical(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)

	cfg := quietSync()
	cfg.LoadRetryBudget = 2
	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").
		Return(models.RecordState{}, errors.New("connection refused")).
		Times(2)

	s := NewSession(cfg, Deps{Adapter: srv})
	s.AttachRecord("rec-1")

	err := s.Start(context.Background())
	require.ErrorIs(t, err, ErrCriticalLoadFailure)

	// the session never went active
	assert.ErrorIs(t, s.SetStepData(1, models.StepData{"a": "b"}), ErrSessionClosed)
}

func TestSetStepData_IdenticalContentIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)

	state := models.RecordState{
		Steps: map[int]models.StepState{
			1: {StepNumber: 1, Version: 1, Data: models.StepData{"villa_name": "Casa Azul"}},
		},
	}
	s := startedSession(t, quietSync(), srv, nil, state)

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))

	assert.Empty(t, s.DirtySteps())
	s.mu.Lock()
	assert.Nil(t, s.debounce, "identical content must not arm the autosave timer")
	s.mu.Unlock()
}

func TestSetStepData_RejectsInvalidStep(t *testing.T) {
	s := NewSession(quietSync(), Deps{})
	assert.Error(t, s.SetStepData(0, nil))
	assert.Error(t, s.SetStepData(models.StepCount+1, nil))
}

func TestSetStepData_SnapshotsBeforeAnyFlush(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	bk := mock.NewMockStore(ctrl)

	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").Return(models.RecordState{RecordID: "rec-1"}, nil)

	var mu sync.Mutex
	var snaps []models.BackupSnapshot
	bk.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snap models.BackupSnapshot) error {
			mu.Lock()
			defer mu.Unlock()
			snaps = append(snaps, snap)
			return nil
		}).AnyTimes()

	s := NewSession(quietSync(), Deps{Adapter: srv, Backup: bk})
	s.AttachRecord("rec-1")
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))

	// the edit is durable while the debounce timer is still pending
	mu.Lock()
	require.NotEmpty(t, snaps, "an edit must be snapshotted immediately, not only after a flush")
	last := snaps[len(snaps)-1]
	mu.Unlock()
	assert.Equal(t, "rec-1", last.RecordID)
	assert.Equal(t, 1, last.CurrentStep)
	assert.Equal(t, "Casa Azul", last.StepData[1]["villa_name"])

	// identical content neither dirties the step nor rewrites the snapshot
	mu.Lock()
	before := len(snaps)
	mu.Unlock()
	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))
	mu.Lock()
	assert.Equal(t, before, len(snaps))
	mu.Unlock()
}

func TestRestoreSnapshot_RewritesBackup(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	bk := mock.NewMockStore(ctrl)

	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").Return(models.RecordState{RecordID: "rec-1"}, nil)

	var mu sync.Mutex
	var snaps []models.BackupSnapshot
	bk.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snap models.BackupSnapshot) error {
			mu.Lock()
			defer mu.Unlock()
			snaps = append(snaps, snap)
			return nil
		}).AnyTimes()

	s := NewSession(quietSync(), Deps{Adapter: srv, Backup: bk})
	s.AttachRecord("rec-1")
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.RestoreSnapshot(models.BackupSnapshot{
		SessionID:   "old-session",
		RecordID:    "rec-1",
		CurrentStep: 3,
		StepData:    map[int]models.StepData{3: {"contract_type": "exclusive"}},
		SavedAt:     time.Now().Add(-time.Hour),
	}))

	mu.Lock()
	require.NotEmpty(t, snaps, "restored edits must be re-snapshotted under the new session")
	last := snaps[len(snaps)-1]
	mu.Unlock()
	assert.Equal(t, s.ID(), last.SessionID)
	assert.Equal(t, "exclusive", last.StepData[3]["contract_type"])
}

func TestFlushNow_VersionsComeOnlyFromServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	s := startedSession(t, quietSync(), srv, nil, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))

	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.StepSaveRequest) adapter.SaveOutcome {
			assert.Equal(t, int64(0), req.Version, "first save of a step carries version 0")
			assert.NotEmpty(t, req.OperationID)
			return adapter.Success(7)
		})
	require.NoError(t, s.FlushNow(context.Background()))

	assert.Equal(t, int64(7), s.StepVersion(1), "version is adopted verbatim from the server")
	assert.Empty(t, s.DirtySteps())

	// the next save echoes the adopted version, never a locally computed one
	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Roja"}))
	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.StepSaveRequest) adapter.SaveOutcome {
			assert.Equal(t, int64(7), req.Version)
			return adapter.Success(8)
		})
	require.NoError(t, s.FlushNow(context.Background()))
	assert.Equal(t, int64(8), s.StepVersion(1))
}

func TestFlushNow_BatchLimitSplitsPasses(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)

	cfg := quietSync()
	cfg.BatchLimit = 2
	s := startedSession(t, cfg, srv, nil, models.RecordState{})

	for step := 1; step <= 3; step++ {
		require.NoError(t, s.SetStepData(step, models.StepData{"field": step}))
	}

	var mu sync.Mutex
	var order []int
	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.StepSaveRequest) adapter.SaveOutcome {
			mu.Lock()
			order = append(order, req.StepNumber)
			mu.Unlock()
			return adapter.Success(1)
		}).Times(3)

	require.NoError(t, s.FlushNow(context.Background()))

	require.Len(t, order, 3)
	assert.ElementsMatch(t, []int{1, 2}, order[:2], "first pass saves the first two steps")
	assert.Equal(t, 3, order[2], "step 3 waits for the second pass")
}

func TestValidationRejection_BlocksStepUntilEdited(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	notices := newNoticeRecorder()
	s := startedSession(t, quietSync(), srv, notices, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": ""}))

	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		Return(adapter.ValidationRejected(models.FieldErrors{"villa_name": "required"}))

	err := s.FlushNow(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)
	assert.True(t, s.IsBlocked(1))
	assert.Equal(t, "required", notices.warnings[1]["villa_name"])

	// a second flush must not retry the rejected payload
	err = s.FlushNow(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)

	// editing the step lifts the block and the new payload is saved
	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))
	assert.False(t, s.IsBlocked(1))
	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).Return(adapter.Success(1))
	require.NoError(t, s.FlushNow(context.Background()))

	assert.Empty(t, notices.partialSaved, "validation rejections never produce a partial-save notice")
}

func TestVersionConflict_RefreshesWholeRecordWithoutRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	notices := newNoticeRecorder()
	s := startedSession(t, quietSync(), srv, notices, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "local edit"}))

	refreshed := models.RecordState{
		RecordID: "rec-1",
		Steps: map[int]models.StepState{
			1: {StepNumber: 1, Version: 9, Data: models.StepData{"villa_name": "server wins"}},
			2: {StepNumber: 2, Version: 3, Data: models.StepData{"owner_name": "J. Doe"}},
		},
	}
	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		Return(adapter.VersionConflict())
	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").Return(refreshed, nil)

	err := s.FlushNow(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)

	assert.Equal(t, int64(9), s.StepVersion(1))
	assert.Equal(t, int64(3), s.StepVersion(2))
	assert.Equal(t, "server wins", s.StepData(1)["villa_name"], "authoritative data replaces local data wholesale")
	assert.Empty(t, s.DirtySteps(), "refreshed state is clean")
	require.Len(t, notices.refreshed, 1)
	assert.Equal(t, []int{1}, notices.refreshed[0])
}

func TestVersionConflict_ReconcileFetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	notices := newNoticeRecorder()
	s := startedSession(t, quietSync(), srv, notices, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "local edit"}))

	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		Return(adapter.VersionConflict())
	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").
		Return(models.RecordState{}, errors.New("gateway timeout"))

	err := s.FlushNow(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)
	require.Len(t, notices.reconcileErrs, 1)
	assert.Empty(t, notices.refreshed)
}

func TestPartialSaveNotice_MixedSuccessAndTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	notices := newNoticeRecorder()
	s := startedSession(t, quietSync(), srv, notices, models.RecordState{})

	require.NoError(t, s.SetStepData(2, models.StepData{"owner_name": "J. Doe"}))
	require.NoError(t, s.SetStepData(5, models.StepData{"channel": "direct"}))

	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.StepSaveRequest) adapter.SaveOutcome {
			if req.StepNumber == 2 {
				return adapter.Success(1)
			}
			return adapter.TransientFailure(errors.New("bad gateway"))
		}).Times(2)

	err := s.FlushNow(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)

	require.Len(t, notices.partialSaved, 1)
	assert.Equal(t, []int{2}, notices.partialSaved[0])
	assert.Equal(t, []int{5}, notices.partialFailed[0])
	assert.Equal(t, []int{5}, s.DirtySteps(), "the failed step stays dirty for the next cycle")
}

func TestPartialSaveNotice_SuppressedWhenOnlyValidationFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	notices := newNoticeRecorder()
	s := startedSession(t, quietSync(), srv, notices, models.RecordState{})

	require.NoError(t, s.SetStepData(2, models.StepData{"owner_name": "J. Doe"}))
	require.NoError(t, s.SetStepData(5, models.StepData{"channel": ""}))

	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.StepSaveRequest) adapter.SaveOutcome {
			if req.StepNumber == 2 {
				return adapter.Success(1)
			}
			return adapter.ValidationRejected(models.FieldErrors{"channel": "required"})
		}).Times(2)

	err := s.FlushNow(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)

	assert.Empty(t, notices.partialSaved, "validation-only failures must not raise the partial-save notice")
	assert.Contains(t, notices.warnings, 5)
}

func TestPartialSaveNotice_SuppressedWhenConflictAccompaniesSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	notices := newNoticeRecorder()
	s := startedSession(t, quietSync(), srv, notices, models.RecordState{})

	require.NoError(t, s.SetStepData(2, models.StepData{"owner_name": "J. Doe"}))
	require.NoError(t, s.SetStepData(5, models.StepData{"channel": "direct"}))

	refreshed := models.RecordState{
		RecordID: "rec-1",
		Steps: map[int]models.StepState{
			2: {StepNumber: 2, Version: 1, Data: models.StepData{"owner_name": "J. Doe"}},
			5: {StepNumber: 5, Version: 4, Data: models.StepData{"channel": "booking"}},
		},
	}
	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.StepSaveRequest) adapter.SaveOutcome {
			if req.StepNumber == 2 {
				return adapter.Success(1)
			}
			return adapter.VersionConflict()
		}).Times(2)
	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").Return(refreshed, nil)

	err := s.FlushNow(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)

	// the conflict notice carries the story; a partial-save notice on top
	// would double-report the same flush
	assert.Empty(t, notices.partialSaved)
	require.Len(t, notices.refreshed, 1)
	assert.Equal(t, []int{5}, notices.refreshed[0])

	assert.Equal(t, int64(1), s.StepVersion(2))
	assert.Equal(t, int64(4), s.StepVersion(5))
	assert.Equal(t, "booking", s.StepData(5)["channel"])
	assert.Empty(t, s.DirtySteps(), "both steps are clean after the refresh")
}

func TestFlushScheduled_SingleFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	s := startedSession(t, quietSync(), srv, nil, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))

	// no SaveStep expectation: a trigger arriving mid-flight must be dropped
	s.mu.Lock()
	s.flushing = true
	s.mu.Unlock()

	s.flushScheduled("debounce")

	s.mu.Lock()
	s.flushing = false
	s.mu.Unlock()
}

func TestFlushScheduled_RateFloorDefersEarlyTrigger(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)

	cfg := quietSync()
	cfg.RateFloor = 2 * time.Second
	s := startedSession(t, cfg, srv, nil, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))

	fixed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	s.mu.Lock()
	s.now = func() time.Time { return fixed }
	s.lastFlush = fixed.Add(-time.Second)
	s.debounce = nil
	s.mu.Unlock()

	// no SaveStep expectation: the trigger fires 1s after the previous
	// flush start, inside the 2s floor, so it must be deferred
	s.flushScheduled("debounce")

	s.mu.Lock()
	assert.NotNil(t, s.debounce, "the deferred trigger re-arms the timer for the floor boundary")
	s.mu.Unlock()
}

func TestSubmit_FlushesThenClearsBackup(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	bk := mock.NewMockStore(ctrl)

	srv.EXPECT().FetchRecord(gomock.Any(), "rec-1").Return(models.RecordState{RecordID: "rec-1"}, nil)
	bk.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s := NewSession(quietSync(), Deps{Adapter: srv, Backup: bk})
	s.AttachRecord("rec-1")
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SetStepData(10, models.StepData{"confirmed": true}))

	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).Return(adapter.Success(1))
	srv.EXPECT().Submit(gomock.Any(), "rec-1").Return(nil)
	bk.EXPECT().Clear(gomock.Any(), "rec-1").Return(nil)

	require.NoError(t, s.Submit(context.Background()))
}

func TestSubmit_RefusedWhileStepsUnsaved(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	s := startedSession(t, quietSync(), srv, nil, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))
	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		Return(adapter.TransientFailure(errors.New("bad gateway")))

	err := s.Submit(context.Background())
	require.ErrorIs(t, err, ErrUnsavedSteps)
}

func TestCompleteStep_FlushesFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	s := startedSession(t, quietSync(), srv, nil, models.RecordState{})

	require.NoError(t, s.SetStepData(1, models.StepData{"villa_name": "Casa Azul"}))

	gomock.InOrder(
		srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).Return(adapter.Success(1)),
		srv.EXPECT().CompleteStep(gomock.Any(), "rec-1", 1).Return(nil),
	)

	require.NoError(t, s.CompleteStep(context.Background(), 1))
}

func TestRestoreSnapshot_OverlaysAsDirtyEdits(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	s := startedSession(t, quietSync(), srv, nil, models.RecordState{})

	snap := models.BackupSnapshot{
		SessionID:   "old-session",
		RecordID:    "rec-1",
		CurrentStep: 3,
		StepData: map[int]models.StepData{
			3: {"contract_type": "exclusive"},
		},
		SavedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, s.RestoreSnapshot(snap))

	assert.Equal(t, []int{3}, s.DirtySteps())
	assert.Equal(t, "exclusive", s.StepData(3)["contract_type"])

	srv.EXPECT().SaveStep(gomock.Any(), "rec-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.StepSaveRequest) adapter.SaveOutcome {
			assert.Equal(t, 3, req.StepNumber)
			return adapter.Success(1)
		})
	require.NoError(t, s.FlushNow(context.Background()))
}

func TestClose_IsIdempotentAndDeactivates(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := mock.NewMockServerAdapter(ctrl)
	s := startedSession(t, quietSync(), srv, nil, models.RecordState{})

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.SetStepData(1, models.StepData{"a": "b"}), ErrSessionClosed)
	assert.ErrorIs(t, s.FlushNow(context.Background()), ErrSessionClosed)
}
