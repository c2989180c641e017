// Package ui is the bubbletea control surface for stagehand.
//
// # Layout
//
// Top to bottom the screen shows a header (backend, run counters, theme), the
// mission map, a two-line detail strip for the focused action, the operator
// log, and a footer with the status line or an open prompt.
//
// The mission map lists stages, their groups and one chip per action. Chip
// color follows the action's stored result; running chips animate a spinner.
// Left and right move focus with wrap-around, enter or space runs the focused
// action, and a controller does the same through GamepadMsg.
//
// # Dispatch
//
// Running an action is split across the update loop. The keypress handler
// calls Start, which logs the dispatch line and marks the result running, and
// returns a command that performs the call with Await. When the command's
// message arrives the log and status line refresh. Chips never wait on I/O.
//
// Operational actions bind to catalog hotkeys. Those with a prompt open a
// text input first; the rest fire immediately.
//
// # Events
//
// RegisterForwarder subscribes to the in-process bus and sends LogAppendedMsg
// and ResultChangedMsg into the program. A periodic tick also pulls new log
// entries, so the model stays correct without a bus.
//
// # Files
//
//   - app.go: Model, Update, View, dispatch
//   - mission.go: mission map, detail strip, header, footer
//   - logs.go: operator log viewport, follow mode, search
//   - prompt.go: operational action prompt
//   - forward.go: bus to program forwarding
//   - keys.go, help.go, theme.go, style_helpers.go: bindings and styling
package ui
