package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/staylio/villa-onboard/internal/wizard"
	"github.com/staylio/villa-onboard/models"
)

type wizardModel struct {
	ctx     context.Context
	session *wizard.Session

	stepIdx int

	recovery bool
	snapshot models.BackupSnapshot

	editing    bool
	fieldInput textinput.Model

	flushing   bool
	submitting bool
	submitted  bool

	status string
	errMsg string
}

func newWizardModel(ctx context.Context, session *wizard.Session, snapshot models.BackupSnapshot, offerRecovery bool) wizardModel {
	return wizardModel{
		ctx:      ctx,
		session:  session,
		recovery: offerRecovery,
		snapshot: snapshot,
	}
}

func (m wizardModel) Init() tea.Cmd {
	return nil
}

func (m wizardModel) currentStep() int {
	return m.stepIdx + 1
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case partialSaveMsg:
		m.status = fmt.Sprintf("Partial save: steps %v saved, steps %v failed and will be retried", msg.saved, msg.failed)
		return m, nil
	case validationMsg:
		m.errMsg = fmt.Sprintf("Step %d (%s) rejected: %s. Autosave for it is paused until you edit it again.",
			msg.step, models.StepName(msg.step), fieldErrorsLine(msg.fields))
		return m, nil
	case conflictMsg:
		m.errMsg = fmt.Sprintf("Steps %v were changed elsewhere. Local state was refreshed from the server; review before saving again.",
			msg.conflicted)
		return m, nil
	case reconcileFailedMsg:
		m.errMsg = fmt.Sprintf("Could not refresh after an edit conflict: %v. Restart the client before continuing.", msg.err)
		return m, nil
	case flushDoneMsg:
		m.flushing = false
		if msg.err != nil {
			m.errMsg = flushErrorMessage(msg.err)
			return m, nil
		}
		m.status = "All changes saved"
		m.errMsg = ""
		return m, nil
	case completeDoneMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Could not complete step %d: %v", msg.step, msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Step %d (%s) marked complete", msg.step, models.StepName(msg.step))
		m.errMsg = ""
		return m, nil
	case submitDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Submission failed: %v", msg.err)
			return m, nil
		}
		m.submitted = true
		m.status = "Onboarding record submitted"
		m.errMsg = ""
		return m, tea.Quit
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.editing {
			return m.updateEditing(msg)
		}
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	if m.recovery {
		return m.updateRecovery(keyMsg)
	}
	if m.editing {
		return m.updateEditing(msg)
	}

	switch keyMsg.String() {
	case "q":
		return m, tea.Quit
	case "up":
		if m.stepIdx > 0 {
			m.stepIdx--
		}
	case "down":
		if m.stepIdx < models.StepCount-1 {
			m.stepIdx++
		}
	case "enter":
		m.startEditing()
		return m, nil
	case "s":
		if m.flushing {
			return m, nil
		}
		m.flushing = true
		m.status = "Saving..."
		m.errMsg = ""
		return m, m.cmdFlush()
	case "c":
		step := m.currentStep()
		m.status = fmt.Sprintf("Completing step %d...", step)
		m.errMsg = ""
		return m, m.cmdComplete(step)
	case "S":
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		m.status = "Submitting..."
		m.errMsg = ""
		return m, m.cmdSubmit()
	}

	return m, nil
}

func (m wizardModel) updateRecovery(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "y":
		m.recovery = false
		if err := m.session.RestoreSnapshot(m.snapshot); err != nil {
			m.errMsg = fmt.Sprintf("Could not restore the backup: %v", err)
			return m, nil
		}
		if m.snapshot.CurrentStep >= 1 && m.snapshot.CurrentStep <= models.StepCount {
			m.stepIdx = m.snapshot.CurrentStep - 1
		}
		m.status = "Unsaved work restored; autosave will pick it up"
		return m, nil
	case "n":
		m.recovery = false
		m.status = "Backup discarded"
		return m, m.cmdClearBackup()
	}
	return m, nil
}

func (m *wizardModel) startEditing() {
	input := textinput.New()
	input.Placeholder = "field=value"
	input.Width = 48
	input.Focus()

	m.fieldInput = input
	m.editing = true
	m.errMsg = ""
}

func (m wizardModel) updateEditing(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			m.editing = false
			return m, nil
		case "enter":
			line := strings.TrimSpace(m.fieldInput.Value())
			if line == "" {
				m.editing = false
				return m, nil
			}

			key, value, err := parseFieldAssignment(line)
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}

			step := m.currentStep()
			data := m.session.StepData(step)
			if data == nil {
				data = models.StepData{}
			}
			if value == nil {
				delete(data, key)
			} else {
				data[key] = value
			}

			if err := m.session.SetStepData(step, data); err != nil {
				m.errMsg = fmt.Sprintf("Could not update step data: %v", err)
				return m, nil
			}

			m.fieldInput.SetValue("")
			m.status = fmt.Sprintf("Step %d updated; autosave pending", step)
			m.errMsg = ""
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.fieldInput, cmd = m.fieldInput.Update(msg)
	return m, cmd
}

func (m wizardModel) View() string {
	if m.recovery {
		return m.viewRecovery()
	}
	if m.editing {
		return m.viewEditor()
	}
	return m.viewStepList()
}

func (m wizardModel) viewRecovery() string {
	age := time.Since(m.snapshot.SavedAt).Round(time.Minute)
	out := fmt.Sprintf("A local backup from %s ago was found for this record.\n", age)
	out += fmt.Sprintf("It holds unsaved data for %d steps.\n\n", len(m.snapshot.StepData))
	out += "Restore it as unsaved edits?"

	return renderPage("RECOVER UNSAVED WORK", out, "y: restore │ n: discard")
}

func (m wizardModel) viewStepList() string {
	out := "  # │ Step                     │ Ver │ State\n"
	out += "────┼──────────────────────────┼─────┼──────────────\n"

	dirty := make(map[int]bool)
	for _, step := range m.session.DirtySteps() {
		dirty[step] = true
	}

	for step := 1; step <= models.StepCount; step++ {
		cursor := " "
		if step == m.currentStep() {
			cursor = ">"
		}

		state := "-"
		switch {
		case m.session.IsBlocked(step):
			state = "needs fixing"
		case dirty[step]:
			state = "unsaved"
		case len(m.session.StepData(step)) > 0:
			state = fmt.Sprintf("%d fields", len(m.session.StepData(step)))
		}

		out += fmt.Sprintf("%s %2d │ %-24s │ %3d │ %s\n",
			cursor, step, fitText(models.StepName(step), 24), m.session.StepVersion(step), state)
	}

	if m.errMsg != "" {
		out += "\n" + errorStyle.Render("Problem: "+m.errMsg) + "\n"
	}
	if m.status != "" {
		out += "\nStatus: " + m.status + "\n"
	}

	return renderPage(
		"VILLA ONBOARDING: "+m.session.RecordID(),
		strings.TrimRight(out, "\n"),
		"enter: edit │ s: save now │ c: complete step │ S: submit │ ↑/↓: navigate │ q: quit",
	)
}

func (m wizardModel) viewEditor() string {
	step := m.currentStep()
	data := m.session.StepData(step)

	out := "[ CURRENT FIELDS ]\n"
	if len(data) == 0 {
		out += "(empty)\n"
	} else {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out += fmt.Sprintf("%-16s: %v\n", k, data[k])
		}
	}

	out += "\nSet field : [ " + m.fieldInput.View() + " ]\n"
	if m.errMsg != "" {
		out += "\n" + errorStyle.Render("Problem: "+m.errMsg) + "\n"
	}

	return renderPage(
		fmt.Sprintf("EDIT STEP %d: %s", step, models.StepName(step)),
		strings.TrimRight(out, "\n"),
		"enter: apply field │ esc: back to steps",
	)
}

func (m wizardModel) cmdFlush() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return flushDoneMsg{err: session.FlushNow(ctx)}
	}
}

func (m wizardModel) cmdComplete(step int) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return completeDoneMsg{step: step, err: session.CompleteStep(ctx, step)}
	}
}

func (m wizardModel) cmdSubmit() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return submitDoneMsg{err: session.Submit(ctx)}
	}
}

func (m wizardModel) cmdClearBackup() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		_ = session.ClearBackup(ctx)
		return nil
	}
}

// parseFieldAssignment turns a "field=value" line into a typed field update.
// Values parse as bool, then number, then plain string; an empty value means
// "remove the field".
func parseFieldAssignment(line string) (string, any, error) {
	key, rawValue, found := strings.Cut(line, "=")
	if !found {
		return "", nil, errors.New("expected field=value")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, errors.New("field name is empty")
	}

	rawValue = strings.TrimSpace(rawValue)
	switch {
	case rawValue == "":
		return key, nil, nil
	case rawValue == "true" || rawValue == "false":
		return key, rawValue == "true", nil
	}

	if n, err := strconv.ParseInt(rawValue, 10, 64); err == nil {
		return key, n, nil
	}
	if f, err := strconv.ParseFloat(rawValue, 64); err == nil {
		return key, f, nil
	}

	return key, rawValue, nil
}

func fieldErrorsLine(fields models.FieldErrors) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fields[k])
	}
	return strings.Join(parts, "; ")
}

func flushErrorMessage(err error) string {
	if errors.Is(err, wizard.ErrUnsavedSteps) {
		return "Some steps could not be saved yet; fix reported problems or retry in a moment"
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "dial tcp") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "i/o timeout") ||
		strings.Contains(s, "context deadline exceeded") {
		return "Save failed: the onboarding server is unreachable. Your work is kept locally and will be retried."
	}

	return fmt.Sprintf("Save failed: %v", err)
}
