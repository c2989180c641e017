package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stagehand/internal/actions"
	"github.com/five82/stagehand/internal/focus"
	"github.com/five82/stagehand/internal/logsink"
	"github.com/five82/stagehand/internal/results"
)

// missionItems returns the focus sequence: catalog order when a catalog is
// loaded, registration order otherwise.
func missionItems(reg *actions.Registry) []focus.Item {
	if cat := reg.Catalog(); cat != nil {
		return focus.Flatten(cat.Stages)
	}
	var items []focus.Item
	for _, ba := range reg.Actions() {
		a := ba.Descriptor()
		items = append(items, focus.Item{ID: a.ID, Label: a.Label, Stage: a.Stage, Group: a.Group})
	}
	return items
}

// missionTitles maps stage ids and "stage/group" keys to display titles.
func missionTitles(reg *actions.Registry) map[string]string {
	titles := make(map[string]string)
	cat := reg.Catalog()
	if cat == nil {
		return titles
	}
	for _, st := range cat.Stages {
		if st.Title != "" {
			titles[st.ID] = st.Title
		}
		for _, g := range st.Groups {
			if g.Title != "" {
				titles[st.ID+"/"+g.ID] = g.Title
			}
		}
	}
	return titles
}

func (m Model) title(key, fallback string) string {
	if t := m.titles[key]; t != "" {
		return t
	}
	return titleCase(fallback)
}

// counts tallies result statuses across every store.
func (m Model) counts() map[results.Status]int {
	out := make(map[results.Status]int)
	for _, st := range m.registry.Stores() {
		for _, r := range st.All() {
			out[r.Status]++
		}
	}
	return out
}

// renderHeader renders the logo line with backend and run counters.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	c := m.counts()

	parts := []string{
		bg.Render("stagehand", styles.Logo),
		bg.Render(m.baseURL, styles.MutedText),
	}
	if n := c[results.StatusRunning]; n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%s %d running", m.spinner.View(), n), styles.InfoText))
	}
	parts = append(parts,
		bg.Render(fmt.Sprintf("%d ok", c[results.StatusSuccess]), styles.SuccessText),
		bg.Render(fmt.Sprintf("%d failed", c[results.StatusError]), styles.DangerText),
		bg.Render(m.theme.Name, styles.FaintText),
	)
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return bg.FillLine(bg.Space()+strings.Join(parts, sep), m.width)
}

// renderMission renders stages, groups and action chips.
func (m Model) renderMission() string {
	styles := m.theme.Styles()
	focused, _ := m.nav.Focused()
	inner := max(m.width-4, 10)

	var lines []string
	lastStage := "\x00"
	lastGroup := "\x00"
	var prefix string
	var chips []string
	flush := func() {
		if chips != nil {
			lines = append(lines, wrapChips(prefix, chips, inner)...)
		}
		chips = nil
	}

	for _, it := range m.nav.Items() {
		if it.Stage != lastStage {
			flush()
			lastStage, lastGroup = it.Stage, "\x00"
			lines = append(lines, styles.AccentText.Bold(true).Render(m.title(it.Stage, orDefault(it.Stage))))
		}
		if it.Group != lastGroup {
			flush()
			lastGroup = it.Group
			label := m.title(it.Stage+"/"+it.Group, it.Group)
			prefix = styles.MutedText.Render(fmt.Sprintf("  %-12s ", truncate(label, 12)))
		}
		chips = append(chips, m.renderChip(it, it.ID == focused.ID))
	}
	flush()

	if len(lines) == 0 {
		lines = append(lines, styles.MutedText.Render("No actions registered"))
	}
	return m.renderBox("Mission", strings.Join(lines, "\n"), m.width, true)
}

func orDefault(stage string) string {
	if stage == "" {
		return actions.DefaultStage
	}
	return stage
}

// renderChip renders one action as a status-colored chip.
func (m Model) renderChip(it focus.Item, focused bool) string {
	styles := m.theme.Styles()
	status := results.StatusIdle
	if ba, ok := m.registry.Action(it.ID); ok {
		status = ba.Snapshot().Status
	}

	text := m.statusGlyph(status)
	if m.width >= LayoutCompactWidth || focused {
		text += " " + truncate(it.Label, 22)
	}

	style := styles.StatusStyle(status)
	if focused {
		style = styles.Selected.Padding(0, 1)
		text = "› " + text
	}
	return style.Render(text)
}

func (m Model) statusGlyph(s results.Status) string {
	switch s {
	case results.StatusRunning:
		return m.spinner.View()
	case results.StatusSuccess:
		return "✓"
	case results.StatusError:
		return "✗"
	default:
		return "·"
	}
}

// wrapChips lays chips out after prefix, continuing on indented lines when
// they exceed width.
func wrapChips(prefix string, chips []string, width int) []string {
	indent := strings.Repeat(" ", lipgloss.Width(prefix))
	var lines []string
	line := prefix
	lineWidth := lipgloss.Width(prefix)
	empty := true
	for _, c := range chips {
		w := lipgloss.Width(c)
		if !empty && lineWidth+1+w > width {
			lines = append(lines, line)
			line, lineWidth, empty = indent, len(indent), true
		}
		if !empty {
			line += " "
			lineWidth++
		}
		line += c
		lineWidth += w
		empty = false
	}
	return append(lines, line)
}

// renderDetail renders the focused action's result on two lines.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	it, ok := m.nav.Focused()
	if !ok {
		return bg.FillLine(bg.Render(" nothing focused", styles.MutedText), m.width) + "\n" + bg.FillLine("", m.width)
	}
	ba, ok := m.registry.Action(it.ID)
	if !ok {
		return bg.FillLine(bg.Render(" "+it.Label, styles.Text), m.width) + "\n" + bg.FillLine("", m.width)
	}
	a := ba.Descriptor()
	r := ba.Snapshot()

	first := []string{
		bg.Render(a.Label, styles.Text.Bold(true)),
		styles.StatusStyle(r.Status).Render(string(r.Status)),
		bg.Render("POST "+a.Endpoint, styles.FaintText),
	}

	var second []string
	if r.StartedAt != nil {
		second = append(second, bg.Render("started "+r.StartedAt.Local().Format("15:04:05"), styles.MutedText))
		second = append(second, bg.Render(formatDuration(r.Duration(m.now())), styles.MutedText))
	}
	if r.HTTPStatus != nil {
		second = append(second, bg.Render(fmt.Sprintf("HTTP %d", *r.HTTPStatus), styles.MutedText))
	}
	if r.RunID != "" {
		second = append(second, bg.Render("run "+r.RunID, styles.MutedText))
	}
	if r.Status == results.StatusError && r.Error != "" {
		second = append(second, bg.Render(truncate(oneLine(r.Error), max(m.width/2, 20)), styles.DangerText))
	}
	if len(second) == 0 {
		second = append(second, bg.Render("not run yet", styles.FaintText))
	}

	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return bg.FillLine(bg.Space()+strings.Join(first, bg.Space()+bg.Space()), m.width) + "\n" +
		bg.FillLine(bg.Space()+strings.Join(second, sep), m.width)
}

// renderFooter renders the prompt, search input, or status and key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	switch {
	case m.prompt.active:
		return bg.FillLine(bg.Space()+m.prompt.input.View(), m.width)
	case m.logState.searchActive:
		return bg.FillLine(bg.Space()+m.logState.searchInput.View(), m.width)
	}

	var parts []string
	if m.status != "" {
		style := styles.SuccessText
		if m.failed {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.status, max(m.width/2, 20)), style))
	}
	hints := []string{"←/→ focus", "enter run"}
	for _, op := range m.opOrder {
		if k := op.Operation().Key; k != "" && m.opKeys[k] == op {
			hints = append(hints, k+" "+strings.ToLower(op.Label()))
		}
	}
	hints = append(hints, "? help", "q quit")
	parts = append(parts, bg.Render(strings.Join(hints, "  "), styles.FaintText))

	sep := bg.Space() + bg.Render("│", styles.FaintText) + bg.Space()
	return bg.FillLine(bg.Space()+strings.Join(parts, sep), m.width)
}

// renderBox draws a rounded box with title in the top border.
func (m Model) renderBox(title, content string, width int, focused bool) string {
	border := m.theme.Border
	if focused {
		border = m.theme.BorderFocus
	}
	styles := m.theme.Styles()
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(border))

	inner := max(width-2, 0)
	label := " " + title + " "
	fill := max(inner-1-lipgloss.Width(label), 0)
	top := borderStyle.Render("╭─") + styles.AccentText.Render(label) + borderStyle.Render(strings.Repeat("─", fill)+"╮")

	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderTop(false).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1).
		Width(max(width-2, 0)).
		Render(content)
	return top + "\n" + body
}

// symbolStyle picks the log line style from its entry symbol.
func symbolStyle(styles Styles, line string) lipgloss.Style {
	switch {
	case strings.Contains(line, "] "+string(logsink.SymbolSuccess)+" "):
		return styles.SuccessText
	case strings.Contains(line, "] "+string(logsink.SymbolFailure)+" "):
		return styles.DangerText
	case strings.Contains(line, "] "+string(logsink.SymbolDispatch)+" "):
		return styles.AccentText
	case strings.Contains(line, "] "+string(logsink.SymbolChunk)+" "):
		return styles.MutedText
	default:
		return styles.Text
	}
}
