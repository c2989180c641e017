package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/stagehand/internal/gamepad"
	"github.com/five82/stagehand/internal/results"
)

// LogAppendedMsg tells the model the operator log grew.
type LogAppendedMsg struct {
	Total int
}

// ResultChangedMsg tells the model a stored result was written.
type ResultChangedMsg struct {
	Group      string
	ID         string
	Status     results.Status
	Generation uint64
}

// GamepadMsg carries a controller state change.
type GamepadMsg struct {
	State gamepad.State
}

type tickMsg time.Time

type actionDoneMsg struct {
	id      string
	label   string
	outcome results.Outcome
}

type opDoneMsg struct {
	id    string
	label string
	err   error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
