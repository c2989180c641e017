// Package app is the composition root for stagehand.
//
// # Overview
//
// Setup turns Options into a Runtime: configuration with command-line
// overrides, the zerolog diagnostics log, the operator log sink with its file
// mirror, the backend client and the action registry loaded from the catalog.
// Both the TUI and the headless commands start from a Runtime.
//
// # TUI
//
// Run adds the in-process bus and starts three goroutines under one errgroup:
//
//	┌──────────────┐   log.appended    ┌──────────────┐  Send   ┌─────────────┐
//	│ logsink.Sink │ ────────────────> │  bus router  │ ──────> │ tea.Program │
//	│ results.Store│ ─ result.changed ─│  (gochannel) │         │   ui.Model  │
//	└──────────────┘                   └──────────────┘         └─────────────┘
//	                                                                   ^
//	┌──────────────────┐   GamepadMsg                                  │
//	│ gamepad.Poller   │ ──────────────────────────────────────────────┘
//	└──────────────────┘
//
// When the program exits the shared context is cancelled, which stops the
// router and the controller poller.
//
// # Headless
//
//   - List: prints the catalog
//   - RunActions: runs stage actions in order or concurrently
//   - RunOperation: runs one operational action
//   - Tail: prints the end of the operator log, optionally failures only
//
// Headless commands set Options.Echo so the operator log also reaches stdout.
//
// # Errors
//
// Configuration, log file, client and catalog problems are returned from
// Setup. Backend failures during a run are written to the operator log and
// surface as *actions.FailureError.
package app
