package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stagehand/internal/actions"
)

// promptState is the text input shown for operational actions that take an
// argument, such as the memory query.
type promptState struct {
	active bool
	op     *actions.OperationalAction
	input  textinput.Model
}

func newPromptState() promptState {
	ti := textinput.New()
	ti.CharLimit = 500
	return promptState{input: ti}
}

func (m *Model) openPrompt(op *actions.OperationalAction) {
	m.prompt.active = true
	m.prompt.op = op
	m.prompt.input.Prompt = op.Operation().Prompt + ": "
	m.prompt.input.Placeholder = "enter to send, esc to cancel"
	m.prompt.input.SetValue("")
	m.prompt.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt.active = false
	m.prompt.op = nil
	m.prompt.input.Blur()
	m.prompt.input.SetValue("")
}

// handlePromptKey handles keyboard input while the prompt is open.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		op := m.prompt.op
		text := strings.TrimSpace(m.prompt.input.Value())
		m.closePrompt()
		if op == nil || text == "" {
			return m, nil
		}
		m.setStatus(op.Label()+" sent", false)
		return m, m.runOperational(op, text)

	case key.Matches(msg, m.keys.Escape):
		m.closePrompt()
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}
