// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Staylio

package workers

import (
	"errors"
	"testing"

	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/mock"
	"go.uber.org/mock/gomock"
)

// recordingWorker tracks how many times Run was called.
type recordingWorker struct {
	runCount int
}

func (m *recordingWorker) Run() {
	m.runCount++
}

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1 := &recordingWorker{}
	w2 := &recordingWorker{}

	ws := NewWorkers(w1, w2)
	ws.Run()

	for i, w := range []*recordingWorker{w1, w2} {
		if w.runCount != 1 {
			t.Errorf("worker[%d]: expected runCount=1, got %d", i, w.runCount)
		}
	}
}

func TestWorkers_Run_Empty(t *testing.T) {
	// Should not panic with no workers
	NewWorkers().Run()
	(&Workers{}).Run()
}

func TestBackupSweeper_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	store.EXPECT().Sweep(gomock.Any()).Return(3, nil)

	NewBackupSweeper(store, logger.Nop()).Run()
}

func TestBackupSweeper_Run_ErrorIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	store.EXPECT().Sweep(gomock.Any()).Return(0, errors.New("disk gone"))

	NewBackupSweeper(store, logger.Nop()).Run()
}
