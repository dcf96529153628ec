// Package tui implements the terminal wizard for filling an onboarding
// record. It renders the ten-step list, a per-step field editor and the
// recovery prompt, and surfaces sync notices (partial saves, validation
// rejections, conflict refreshes) coming from the session.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/wizard"
)

type TUI struct {
	session  *wizard.Session
	notifier *ProgramNotifier
	logger   *logger.Logger
}

func New(session *wizard.Session, notifier *ProgramNotifier, log *logger.Logger) *TUI {
	return &TUI{
		session:  session,
		notifier: notifier,
		logger:   log,
	}
}

// Run starts the session, offers recovery of a fresh local backup when one
// exists, and drives the interactive loop until the user quits or submits.
func (t *TUI) Run(ctx context.Context) error {
	t.logger.Info().Str("func", "Run").Str("record_id", t.session.RecordID()).Msg("starting wizard")

	if err := t.session.Start(ctx); err != nil {
		return fmt.Errorf("error starting wizard session: %w", err)
	}
	defer func() {
		if err := t.session.Close(); err != nil {
			t.logger.Error().Err(err).Str("func", "Run").Msg("session close failed")
		}
	}()

	snapshot, found, err := t.session.RecoverBackup(ctx)
	if err != nil {
		t.logger.Warn().Err(err).Str("func", "Run").Msg("backup recovery check failed")
		found = false
	}

	program := tea.NewProgram(newWizardModel(ctx, t.session, snapshot, found))
	t.notifier.attach(program)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running wizard ui: %w", err)
	}

	return nil
}
