package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/staylio/villa-onboard/models"
)

// ProgramNotifier forwards sync-core notices into a running bubbletea
// program. It is handed to the session before the program exists; notices
// arriving earlier than attach are dropped, which only affects the few
// milliseconds of startup.
type ProgramNotifier struct {
	mu      sync.Mutex
	program *tea.Program
}

func NewProgramNotifier() *ProgramNotifier {
	return &ProgramNotifier{}
}

func (n *ProgramNotifier) attach(program *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = program
}

func (n *ProgramNotifier) send(msg tea.Msg) {
	n.mu.Lock()
	program := n.program
	n.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

func (n *ProgramNotifier) PartialSaveNotice(saved, failed []int) {
	n.send(partialSaveMsg{saved: saved, failed: failed})
}

func (n *ProgramNotifier) ValidationWarning(step int, fields models.FieldErrors) {
	n.send(validationMsg{step: step, fields: fields})
}

func (n *ProgramNotifier) ConflictRefreshed(_ models.RecordState, conflicted []int) {
	n.send(conflictMsg{conflicted: conflicted})
}

func (n *ProgramNotifier) ReconcileFailed(err error) {
	n.send(reconcileFailedMsg{err: err})
}
