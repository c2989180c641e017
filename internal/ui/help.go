package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Mission map",
			items: []helpItem{
				{"←/→", "Move focus"},
				{"enter/space", "Run focused action"},
				{"gamepad", "D-pad moves, A runs"},
			},
		},
		{
			title: "Operator log",
			items: []helpItem{
				{"j/k", "Scroll down/up"},
				{"g/G", "Go to top/bottom"},
				{"pgup/pgdn", "Page up/down"},
				{"f", "Toggle follow mode"},
				{"s", "Search log"},
				{"n/N", "Next/prev match"},
			},
		},
	}

	var ops []helpItem
	for _, op := range m.opOrder {
		k := op.Operation().Key
		if k == "" || m.opKeys[k] != op {
			continue
		}
		ops = append(ops, helpItem{k, op.Label()})
	}
	if len(ops) > 0 {
		sections = append(sections, helpSection{title: "Operations", items: ops})
	}

	sections = append(sections, helpSection{
		title: "General",
		items: []helpItem{
			{"T", "Cycle theme"},
			{"?", "Toggle help"},
			{"q/ctrl+c", "Quit"},
		},
	})

	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(14)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
