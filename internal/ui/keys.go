package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the fixed keyboard bindings. Operational action hotkeys
// come from the catalog and are matched separately.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Mission map
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding

	// Log pane
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	ToggleFollow key.Binding
	Search       key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding

	// Prompt
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),

		Next: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "Next action"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "Previous action"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "Run focused action"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle follow mode"),
		),
		Search: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Search log"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// reserved reports whether s is taken by a fixed binding and so cannot be
// used as an operational hotkey.
func (k keyMap) reserved(s string) bool {
	fixed := []key.Binding{
		k.Quit, k.Help, k.CycleTheme, k.Escape, k.Next, k.Prev, k.Activate,
		k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown,
		k.ToggleFollow, k.Search, k.NextMatch, k.PrevMatch,
	}
	for _, b := range fixed {
		for _, bound := range b.Keys() {
			if bound == s {
				return true
			}
		}
	}
	return false
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Activate},
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown},
		{k.ToggleFollow, k.Search, k.NextMatch, k.PrevMatch},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
