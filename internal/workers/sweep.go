package workers

import (
	"context"

	"github.com/staylio/villa-onboard/internal/backup"
	"github.com/staylio/villa-onboard/internal/logger"
)

// BackupSweeper deletes stale local backup snapshots. It runs once at client
// startup; a sweep failure is logged and otherwise ignored, old snapshots
// are garbage rather than state the client depends on.
type BackupSweeper struct {
	store  backup.Store
	logger *logger.Logger
}

func NewBackupSweeper(store backup.Store, log *logger.Logger) *BackupSweeper {
	return &BackupSweeper{store: store, logger: log}
}

func (w *BackupSweeper) Run() {
	removed, err := w.store.Sweep(context.Background())
	if err != nil {
		w.logger.Warn().Err(err).Str("func", "Run").Msg("backup sweep failed")
		return
	}

	if removed > 0 {
		w.logger.Info().Int("removed", removed).Msg("swept stale backup snapshots")
	}
}
