package client

import (
	"context"

	"github.com/staylio/villa-onboard/internal/backup"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/tui"
	"github.com/staylio/villa-onboard/internal/wizard"
	"github.com/staylio/villa-onboard/internal/workers"
)

type App struct {
	session *wizard.Session
	backup  backup.Store
	ui      *tui.TUI
	workers *workers.Workers
	logger  *logger.Logger
}

// NewApp assembles the wizard client from its already-constructed parts.
// The app owns the backup store lifecycle; the session closes itself via
// the UI loop.
func NewApp(session *wizard.Session, backupStore backup.Store, ui *tui.TUI, ws *workers.Workers, log *logger.Logger) (*App, error) {
	return &App{
		session: session,
		backup:  backupStore,
		ui:      ui,
		workers: ws,
		logger:  log,
	}, nil
}

func (a *App) Run() error {
	defer func() {
		if err := a.backup.Close(); err != nil {
			a.logger.Error().Err(err).Str("func", "Run").Msg("backup store close failed")
		}
	}()

	go a.workers.Run()

	return a.ui.Run(context.Background())
}
