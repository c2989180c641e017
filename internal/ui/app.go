package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/actions"
	"github.com/five82/stagehand/internal/focus"
	"github.com/five82/stagehand/internal/logsink"
	"github.com/five82/stagehand/internal/prefs"
	"github.com/five82/stagehand/internal/results"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Registry  *actions.Registry
	BaseURL   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    zerolog.Logger
	// Now defaults to time.Now. Tests pin it.
	Now func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	registry  *actions.Registry
	sink      *logsink.Sink
	logger    zerolog.Logger
	baseURL   string
	prefsPath string
	pollTick  time.Duration
	now       func() time.Time
	keys      keyMap

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	status   string
	failed   bool

	// Mission map
	nav     *focus.Navigator
	titles  map[string]string
	opKeys  map[string]*actions.OperationalAction
	opOrder []*actions.OperationalAction
	spinner spinner.Model

	// Log pane
	logViewport viewport.Model
	logState    logState

	// Operational prompt
	prompt promptState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:       ctx,
		registry:  opts.Registry,
		sink:      opts.Registry.Sink(),
		logger:    opts.Logger,
		baseURL:   opts.BaseURL,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		now:       now,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		nav:       focus.New(missionItems(opts.Registry)),
		titles:    missionTitles(opts.Registry),
		opKeys:    make(map[string]*actions.OperationalAction),
		spinner:   sp,
		logState:  newLogState(),
		prompt:    newPromptState(),
	}
	if opts.Prefs.LastFocus != "" {
		m.nav.FocusID(opts.Prefs.LastFocus)
	}

	for _, op := range opts.Registry.Operations() {
		hotkey := op.Operation().Key
		switch {
		case hotkey == "":
		case m.keys.reserved(hotkey):
			m.logger.Warn().Str("op", op.ID()).Str("key", hotkey).Msg("hotkey shadowed by a fixed binding")
		case m.opKeys[hotkey] != nil:
			m.logger.Warn().Str("op", op.ID()).Str("key", hotkey).Msg("hotkey already bound")
		default:
			m.opKeys[hotkey] = op
		}
		m.opOrder = append(m.opOrder, op)
	}

	m.refreshLog()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.pollTick), m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layoutLog()
		return m, nil

	case tickMsg:
		m.refreshLog()
		return m, tickCmd(m.pollTick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LogAppendedMsg:
		m.refreshLog()
		return m, nil

	case ResultChangedMsg:
		// Chips read the stores directly; the message only forces a redraw.
		return m, nil

	case GamepadMsg:
		if m.showHelp || m.prompt.active || m.logState.searchActive {
			return m, nil
		}
		if it, ok := m.nav.ApplyGamepad(msg.State); ok {
			return m.dispatch(it.ID)
		}
		return m, nil

	case actionDoneMsg:
		m.refreshLog()
		if !msg.outcome.Stale {
			m.setResultStatus(msg.label, msg.outcome.Result)
		}
		return m, nil

	case opDoneMsg:
		m.refreshLog()
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus(msg.label+" done", false)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.prompt.active {
		return m.handlePromptKey(msg)
	}
	if m.logState.searchActive {
		return m.handleLogSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.savePrefs()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.logState.dirty = true
		m.layoutLog()
		return m, nil
	}

	if op, ok := m.opKeys[msg.String()]; ok {
		if op.NeedsInput() {
			m.openPrompt(op)
			return m, nil
		}
		return m, m.runOperational(op, "")
	}

	if handled := m.handleLogsKey(msg); handled {
		return m, nil
	}

	it, intent := m.nav.HandleKey(msg.String())
	if intent == focus.IntentActivate {
		return m.dispatch(it.ID)
	}
	return m, nil
}

// dispatch marks the action running in this update and performs the call in
// a command, so the running state is visible before any I/O happens.
func (m Model) dispatch(id string) (tea.Model, tea.Cmd) {
	ba, ok := m.registry.Action(id)
	if !ok {
		return m, nil
	}
	ticket := ba.Start()
	m.refreshLog()
	m.setStatus(ba.Label()+" running", false)
	m.savePrefs()

	ctx := m.ctx
	return m, func() tea.Msg {
		return actionDoneMsg{id: id, label: ba.Label(), outcome: ba.Await(ctx, ticket)}
	}
}

func (m Model) runOperational(op *actions.OperationalAction, text string) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{id: op.ID(), label: op.Label(), err: op.ExecuteWith(ctx, text)}
	}
}

func (m *Model) setResultStatus(label string, r results.StageResult) {
	if r.Status == results.StatusSuccess {
		m.setStatus(label+" succeeded", false)
		return
	}
	msg := label + " failed"
	if r.Error != "" {
		msg += ": " + oneLine(r.Error)
	}
	m.setStatus(msg, true)
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name}
	if it, ok := m.nav.Focused(); ok {
		p.LastFocus = it.ID
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn().Err(err).Msg("save prefs")
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	header := m.renderHeader()
	mission := m.renderMission()
	detail := m.renderDetail()
	footer := m.renderFooter()
	logBox := m.renderLogs()
	return lipgloss.JoinVertical(lipgloss.Left, header, mission, detail, logBox, footer)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
