package ui

import (
	"context"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/actions"
	"github.com/five82/stagehand/internal/catalog"
	"github.com/five82/stagehand/internal/gamepad"
	"github.com/five82/stagehand/internal/logsink"
	"github.com/five82/stagehand/internal/prefs"
	"github.com/five82/stagehand/internal/results"
	"github.com/five82/stagehand/internal/stageapi"
)

type call struct {
	Endpoint string
	Body     any
	Stream   bool
}

type fakePoster struct {
	mu    sync.Mutex
	calls []call
	body  string
}

func (f *fakePoster) record(c call) (stageapi.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	body := f.body
	f.mu.Unlock()
	if body == "" {
		body = `{"status":"success"}`
	}
	resp := stageapi.Response{HTTPStatus: http.StatusOK, Raw: body}
	resp.Body, resp.ParseErr = stageapi.ParsePayload(body)
	return resp, nil
}

func (f *fakePoster) Post(_ context.Context, endpoint, _ string) (stageapi.Response, error) {
	return f.record(call{Endpoint: endpoint, Stream: true})
}

func (f *fakePoster) PostJSON(_ context.Context, endpoint string, body any) (stageapi.Response, error) {
	return f.record(call{Endpoint: endpoint, Body: body})
}

func (f *fakePoster) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func newTestModel(t *testing.T, poster stageapi.Poster, p prefs.Prefs) (Model, *actions.Registry, string) {
	t.Helper()
	sink := logsink.New(logsink.WithClock(fixedNow))
	reg := actions.NewRegistry(sink, poster, actions.WithClock(fixedNow))
	if err := reg.LoadCatalog(catalog.Default()); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	m := New(Options{
		Registry:  reg,
		BaseURL:   "http://backend.test",
		Prefs:     p,
		PrefsPath: prefsPath,
		Logger:    zerolog.Nop(),
		Now:       fixedNow,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), reg, prefsPath
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func focusedID(m Model) string {
	it, _ := m.nav.Focused()
	return it.ID
}

func logContains(m Model, substr string) bool {
	for _, l := range m.logState.lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func TestEnterMarksRunningBeforeTheCall(t *testing.T) {
	poster := &fakePoster{body: `{"status":"success","run_id":"42"}`}
	m, reg, _ := newTestModel(t, poster, prefs.Prefs{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := focusedID(m); got != "stage-a2-crown-replays" {
		t.Fatalf("focused = %q, want %q", got, "stage-a2-crown-replays")
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter returned nil cmd")
	}
	ba, _ := reg.Action("stage-a2-crown-replays")
	if got := ba.Snapshot().Status; got != results.StatusRunning {
		t.Fatalf("status before call = %q, want %q", got, results.StatusRunning)
	}
	if n := len(poster.Calls()); n != 0 {
		t.Fatalf("calls before cmd ran = %d, want 0", n)
	}
	if !logContains(m, "▶ Crown replays") {
		t.Fatalf("dispatch line missing from log: %q", m.logState.lines)
	}

	m, _ = update(t, m, cmd())
	if got := ba.Snapshot().Status; got != results.StatusSuccess {
		t.Fatalf("status after call = %q, want %q", got, results.StatusSuccess)
	}
	if !logContains(m, "✅ Crown replays") || !logContains(m, "run: 42") {
		t.Fatalf("summary block missing from log: %q", m.logState.lines)
	}
	if m.status != "Crown replays succeeded" || m.failed {
		t.Fatalf("status line = %q (failed=%v), want success", m.status, m.failed)
	}
	calls := poster.Calls()
	if len(calls) != 1 || calls[0].Endpoint != "/alpha/stage-a2-crown-replays" {
		t.Fatalf("calls = %+v, want one POST to /alpha/stage-a2-crown-replays", calls)
	}
}

func TestSpaceActivatesToo(t *testing.T) {
	m, reg, _ := newTestModel(t, &fakePoster{}, prefs.Prefs{})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if cmd == nil {
		t.Fatalf("space returned nil cmd")
	}
	ba, _ := reg.Action("stage-a1-boot-telemetry")
	if got := ba.Snapshot().Status; got != results.StatusRunning {
		t.Fatalf("status = %q, want %q", got, results.StatusRunning)
	}
}

func TestStaleCompletionKeepsNewerStatus(t *testing.T) {
	m, reg, _ := newTestModel(t, &fakePoster{}, prefs.Prefs{})

	m, first := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, second := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = update(t, m, first())
	if m.status != "Boot telemetry running" {
		t.Fatalf("status after stale completion = %q, want %q", m.status, "Boot telemetry running")
	}
	ba, _ := reg.Action("stage-a1-boot-telemetry")
	if got := ba.Snapshot().Status; got != results.StatusRunning {
		t.Fatalf("stored status after stale completion = %q, want %q", got, results.StatusRunning)
	}
	if !logContains(m, "Boot telemetry (superseded)") {
		t.Fatalf("stale block not labelled: %q", m.logState.lines)
	}

	m, _ = update(t, m, second())
	if got := ba.Snapshot().Status; got != results.StatusSuccess {
		t.Fatalf("stored status = %q, want %q", got, results.StatusSuccess)
	}
	if m.status != "Boot telemetry succeeded" {
		t.Fatalf("status = %q, want %q", m.status, "Boot telemetry succeeded")
	}
}

func TestGamepadActsOnPressNotHold(t *testing.T) {
	m, reg, _ := newTestModel(t, &fakePoster{}, prefs.Prefs{})

	m, _ = update(t, m, GamepadMsg{State: gamepad.State{Right: true}})
	m, _ = update(t, m, GamepadMsg{State: gamepad.State{Right: true}})
	if got := focusedID(m); got != "stage-a2-crown-replays" {
		t.Fatalf("focused after held right = %q, want %q", got, "stage-a2-crown-replays")
	}

	m, _ = update(t, m, GamepadMsg{State: gamepad.State{}})
	m, cmd := update(t, m, GamepadMsg{State: gamepad.State{Primary: true}})
	if cmd == nil {
		t.Fatalf("primary press returned nil cmd")
	}
	ba, _ := reg.Action("stage-a2-crown-replays")
	if got := ba.Snapshot().Status; got != results.StatusRunning {
		t.Fatalf("status = %q, want %q", got, results.StatusRunning)
	}

	_, cmd = update(t, m, GamepadMsg{State: gamepad.State{Primary: true}})
	if cmd != nil {
		t.Fatalf("held primary dispatched again")
	}
}

func TestQueryPromptSendsText(t *testing.T) {
	poster := &fakePoster{body: `{"response":"all green"}`}
	m, _, _ := newTestModel(t, poster, prefs.Prefs{})

	m, _ = update(t, m, runes("/"))
	if !m.prompt.active {
		t.Fatalf("prompt not opened")
	}
	m, _ = update(t, m, runes("status?"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.prompt.active {
		t.Fatalf("prompt still open after enter")
	}
	if cmd == nil {
		t.Fatalf("enter returned nil cmd")
	}

	msg := cmd()
	done, ok := msg.(opDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("cmd() = %#v, want successful opDoneMsg", msg)
	}
	m, _ = update(t, m, msg)

	calls := poster.Calls()
	want := call{Endpoint: "/memory/query", Body: map[string]string{"query": "status?"}}
	if len(calls) != 1 || !reflect.DeepEqual(calls[0], want) {
		t.Fatalf("calls = %+v, want [%+v]", calls, want)
	}
	if !logContains(m, "✅ Memory query: all green") {
		t.Fatalf("answer missing from log: %q", m.logState.lines)
	}
}

func TestPromptEscapeCancels(t *testing.T) {
	poster := &fakePoster{}
	m, _, _ := newTestModel(t, poster, prefs.Prefs{})

	m, _ = update(t, m, runes("/"))
	m, _ = update(t, m, runes("x"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.prompt.active || cmd != nil {
		t.Fatalf("escape left prompt active=%v cmd=%v", m.prompt.active, cmd != nil)
	}
	if n := len(poster.Calls()); n != 0 {
		t.Fatalf("calls = %d, want 0", n)
	}
}

func TestIgnitionHotkeyStreams(t *testing.T) {
	poster := &fakePoster{}
	m, _, _ := newTestModel(t, poster, prefs.Prefs{})

	_, cmd := update(t, m, runes("I"))
	if cmd == nil {
		t.Fatalf("hotkey returned nil cmd")
	}
	cmd()
	calls := poster.Calls()
	if len(calls) != 1 || calls[0].Endpoint != "/start_ignition" || !calls[0].Stream {
		t.Fatalf("calls = %+v, want one streamed POST to /start_ignition", calls)
	}
}

func TestThemeCyclePersistsPrefs(t *testing.T) {
	m, _, path := newTestModel(t, &fakePoster{}, prefs.Prefs{})

	m, _ = update(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want %q", m.theme.Name, "Kanagawa")
	}
	got := prefs.Load(path)
	want := prefs.Prefs{Theme: "Kanagawa", LastFocus: "stage-a1-boot-telemetry"}
	if got != want {
		t.Fatalf("saved prefs = %+v, want %+v", got, want)
	}
}

func TestLastFocusRestored(t *testing.T) {
	m, _, _ := newTestModel(t, &fakePoster{}, prefs.Prefs{LastFocus: "stage-b2-sonic-rehearsal"})
	if got := focusedID(m); got != "stage-b2-sonic-rehearsal" {
		t.Fatalf("focused = %q, want %q", got, "stage-b2-sonic-rehearsal")
	}
}

func TestLogAppendedPullsNewEntries(t *testing.T) {
	m, reg, _ := newTestModel(t, &fakePoster{}, prefs.Prefs{})

	reg.Sink().Chunk("Ignition", "warming up")
	if logContains(m, "warming up") {
		t.Fatalf("line visible before the model was told")
	}
	m, _ = update(t, m, LogAppendedMsg{Total: reg.Sink().Len()})
	if !logContains(m, "│ Ignition │ warming up") {
		t.Fatalf("chunk missing from log: %q", m.logState.lines)
	}
}

func TestLogSearchFindsMatches(t *testing.T) {
	m, reg, _ := newTestModel(t, &fakePoster{}, prefs.Prefs{})
	reg.Sink().Append("alpha", "beta", "alphabet")
	m, _ = update(t, m, LogAppendedMsg{})

	m, _ = update(t, m, runes("s"))
	if !m.logState.searchActive {
		t.Fatalf("search input not active")
	}
	m, _ = update(t, m, runes("ALPHA"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.logState.searchMatches; !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("matches = %v, want [0 2]", got)
	}
	if m.logState.follow {
		t.Fatalf("follow still on after jumping to a match")
	}
	m, _ = update(t, m, runes("n"))
	if m.logState.searchMatchIdx != 1 {
		t.Fatalf("match index = %d, want 1", m.logState.searchMatchIdx)
	}
	m, _ = update(t, m, runes("n"))
	if m.logState.searchMatchIdx != 0 {
		t.Fatalf("match index = %d, want wrap to 0", m.logState.searchMatchIdx)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.logState.searchRegex != nil {
		t.Fatalf("escape did not clear search")
	}
}

func TestViewRendersMapAndHelp(t *testing.T) {
	sink := logsink.New()
	reg := actions.NewRegistry(sink, &fakePoster{})
	if err := reg.LoadCatalog(catalog.Default()); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	m := New(Options{Registry: reg, PrefsPath: filepath.Join(t.TempDir(), "p.toml"), Logger: zerolog.Nop()})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View before size = %q, want Loading...", got)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	for _, want := range []string{"Boot telemetry", "Operator MCP drill", "Stage A", "Operator log", "I ignition"} {
		if !strings.Contains(view, want) {
			t.Fatalf("View missing %q:\n%s", want, view)
		}
	}

	m, _ = update(t, m, runes("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m, _ = update(t, m, runes("x"))
	if m.showHelp {
		t.Fatalf("any key should close help")
	}
}

func TestQuitSavesPrefs(t *testing.T) {
	m, _, path := newTestModel(t, &fakePoster{}, prefs.Prefs{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	_, cmd := update(t, m, runes("q"))
	if cmd == nil {
		t.Fatalf("quit returned nil cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit cmd did not return tea.QuitMsg")
	}
	if got := prefs.Load(path).LastFocus; got != "stage-c4-operator-mcp-drill" {
		t.Fatalf("LastFocus = %q, want %q", got, "stage-c4-operator-mcp-drill")
	}
}
