// Package prefs handles stagehand user preferences persistence.
// Preferences are stored in ~/.config/stagehand/prefs.toml.
package prefs

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastFocus is the id of the action focused when stagehand last saved.
	LastFocus string `toml:"last_focus,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/stagehand/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Any problem yields defaults: preferences
// never stop stagehand from starting.
func Load(path string) Prefs {
	prefs := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs
	}

	file, err := os.Open(resolved)
	if err != nil {
		return prefs
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}
	}

	prefs.Theme = strings.TrimSpace(prefs.Theme)
	if prefs.Theme == "" {
		prefs.Theme = defaultTheme
	}
	prefs.LastFocus = strings.TrimSpace(prefs.LastFocus)

	return prefs
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return errors.Wrap(err, "resolve path")
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create prefs dir")
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal prefs")
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return errors.Wrap(err, "write prefs")
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolve home dir")
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
