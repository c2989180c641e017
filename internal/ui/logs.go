package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// logState holds the operator log pane state.
type logState struct {
	lines  []string
	total  int // sink entries consumed
	follow bool
	dirty  bool

	// Search
	searchActive   bool
	searchQuery    string
	searchRegex    *regexp.Regexp
	searchInput    textinput.Model
	searchMatches  []int
	searchMatchIdx int
}

func newLogState() logState {
	ti := textinput.New()
	ti.Prompt = "search: "
	ti.Placeholder = "regex"
	ti.CharLimit = 100
	return logState{follow: true, searchInput: ti}
}

// refreshLog pulls entries appended since the last refresh.
func (m *Model) refreshLog() {
	n := m.sink.Len()
	if n == m.logState.total && !m.logState.dirty {
		return
	}
	if n > m.logState.total {
		for _, e := range m.sink.Since(m.logState.total) {
			m.logState.lines = append(m.logState.lines, e.String())
		}
		m.logState.total = n
		if over := len(m.logState.lines) - LogBufferLimit; over > 0 {
			m.logState.lines = append([]string(nil), m.logState.lines[over:]...)
		}
		m.findSearchMatches()
		m.logState.dirty = true
	}
	m.layoutLog()
}

// layoutLog sizes the viewport to the space left by the other sections and
// re-renders its content when needed.
func (m *Model) layoutLog() {
	if !m.ready {
		return
	}
	used := 1 + lipgloss.Height(m.renderMission()) + 2 + 1 + 2
	h := max(m.height-used, minLogHeight)
	w := max(m.width-4, 10)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
		m.logState.dirty = true
	}
	if m.logViewport.Width != w || m.logViewport.Height != h {
		m.logViewport.Width = w
		m.logViewport.Height = h
		m.logState.dirty = true
	}
	if m.logState.dirty {
		m.logViewport.SetContent(m.renderLogContent())
		m.logState.dirty = false
	}
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogs renders the log pane.
func (m Model) renderLogs() string {
	follow := "off"
	if m.logState.follow {
		follow = "on"
	}
	title := fmt.Sprintf("Operator log · %d lines · follow %s", len(m.logState.lines), follow)
	if m.logState.searchRegex != nil {
		if len(m.logState.searchMatches) == 0 {
			title += " · no match for /" + m.logState.searchQuery
		} else {
			title += fmt.Sprintf(" · /%s %d/%d", m.logState.searchQuery, m.logState.searchMatchIdx+1, len(m.logState.searchMatches))
		}
	}
	return m.renderBox(title, m.logViewport.View(), m.width, false)
}

// renderLogContent renders the colorized log lines.
func (m *Model) renderLogContent() string {
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if len(m.logState.lines) == 0 {
		return styles.MutedText.Render("No log entries")
	}

	matchSet := make(map[int]bool, len(m.logState.searchMatches))
	for _, idx := range m.logState.searchMatches {
		matchSet[idx] = true
	}
	active := -1
	if len(m.logState.searchMatches) > 0 && m.logState.searchMatchIdx < len(m.logState.searchMatches) {
		active = m.logState.searchMatches[m.logState.searchMatchIdx]
	}

	var b strings.Builder
	for i, line := range m.logState.lines {
		text := clip(strings.TrimRight(line, " "), width)
		style := symbolStyle(styles, line)
		switch {
		case i == active:
			style = styles.Selected
		case matchSet[i]:
			style = styles.WarningText
		}
		b.WriteString(style.Render(text))
		if i < len(m.logState.lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// handleLogsKey applies scroll, follow and search keys. It reports whether
// the key was consumed.
func (m *Model) handleLogsKey(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Search):
		m.logState.searchActive = true
		m.logState.searchInput.SetValue("")
		m.logState.searchInput.Focus()
	case key.Matches(msg, m.keys.NextMatch):
		m.stepSearchMatch(1)
	case key.Matches(msg, m.keys.PrevMatch):
		m.stepSearchMatch(-1)
	case key.Matches(msg, m.keys.Escape):
		if m.logState.searchRegex == nil {
			return false
		}
		m.clearLogSearch()
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.logState.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.logState.follow = true
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		m.logState.follow = false
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
		m.logState.follow = false
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		m.logState.follow = false
	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.PageUp()
		m.logState.follow = false
	default:
		return false
	}
	return true
}

// handleLogSearchInput handles keyboard input while typing a search.
func (m Model) handleLogSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := m.logState.searchInput.Value()
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		if query == "" {
			return m, nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			m.setStatus("invalid search: "+err.Error(), true)
			return m, nil
		}
		m.logState.searchRegex = re
		m.logState.searchQuery = query
		m.findSearchMatches()
		if len(m.logState.searchMatches) > 0 {
			m.logState.searchMatchIdx = 0
			m.scrollToSearchMatch()
		}
		m.layoutLog()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.logState.searchActive = false
		m.logState.searchInput.Blur()
		m.logState.searchInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.logState.searchInput, cmd = m.logState.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clearLogSearch() {
	m.logState.searchRegex = nil
	m.logState.searchQuery = ""
	m.logState.searchMatches = nil
	m.logState.searchMatchIdx = 0
	m.logState.dirty = true
	m.layoutLog()
}

func (m *Model) findSearchMatches() {
	m.logState.searchMatches = nil
	if m.logState.searchRegex == nil {
		return
	}
	for i, line := range m.logState.lines {
		if m.logState.searchRegex.MatchString(line) {
			m.logState.searchMatches = append(m.logState.searchMatches, i)
		}
	}
	if m.logState.searchMatchIdx >= len(m.logState.searchMatches) {
		m.logState.searchMatchIdx = 0
	}
	m.logState.dirty = true
}

func (m *Model) stepSearchMatch(delta int) {
	n := len(m.logState.searchMatches)
	if n == 0 {
		return
	}
	m.logState.searchMatchIdx = (m.logState.searchMatchIdx + delta + n) % n
	m.logState.dirty = true
	m.scrollToSearchMatch()
	m.layoutLog()
}

// scrollToSearchMatch centers the current match and stops following.
func (m *Model) scrollToSearchMatch() {
	if len(m.logState.searchMatches) == 0 || m.logState.searchMatchIdx >= len(m.logState.searchMatches) {
		return
	}
	target := m.logState.searchMatches[m.logState.searchMatchIdx]
	m.logState.follow = false
	m.logViewport.SetYOffset(max(target-m.logViewport.Height/2, 0))
}
