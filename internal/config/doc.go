// Package config loads the stagehand configuration file.
//
// # Configuration Discovery
//
// Load resolves the file in this order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/stagehand/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # TOML Format
//
//	base_url = "http://127.0.0.1:8000"
//	log_dir = "~/.local/share/stagehand/logs"
//	catalog = "~/.config/stagehand/catalog.yaml"
//	gamepad_device = "/dev/input/js0"
//	log_level = "info"
//	poll_ms = 1000
//	gamepad_frame_ms = 16
//
// Every field is optional. String values are trimmed and paths get tilde
// expansion. An empty gamepad_device disables controller input; an empty
// catalog uses the built-in mission catalog.
//
// # Derived Paths
//
//   - Operator log mirror: <log_dir>/operator.log
//   - Diagnostics log: <log_dir>/stagehand.log
//
// Missing config files are not an error. Read and parse failures are.
package config
