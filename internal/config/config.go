package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config is the stagehand runtime configuration.
type Config struct {
	BaseURL       string
	LogDir        string
	Catalog       string
	GamepadDevice string
	LogLevel      string
	PollInterval  time.Duration
	GamepadFrame  time.Duration
}

const (
	defaultConfigPath   = "~/.config/stagehand/config.toml"
	defaultLogDir       = "~/.local/share/stagehand/logs"
	defaultBaseURL      = "http://127.0.0.1:8000"
	defaultLogLevel     = "info"
	defaultPollMS       = 1000
	defaultGamepadFrame = 16
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		LogDir:       mustExpand(defaultLogDir),
		LogLevel:     defaultLogLevel,
		PollInterval: defaultPollMS * time.Millisecond,
		GamepadFrame: defaultGamepadFrame * time.Millisecond,
	}
}

// Load parses the config at path, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, errors.Wrap(err, "open config")
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	var raw struct {
		BaseURL        string `toml:"base_url"`
		LogDir         string `toml:"log_dir"`
		Catalog        string `toml:"catalog"`
		GamepadDevice  string `toml:"gamepad_device"`
		LogLevel       string `toml:"log_level"`
		PollMS         int    `toml:"poll_ms"`
		GamepadFrameMS int    `toml:"gamepad_frame_ms"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}

	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Catalog); v != "" {
		cfg.Catalog = mustExpand(v)
	}
	cfg.GamepadDevice = strings.TrimSpace(raw.GamepadDevice)
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if raw.PollMS > 0 {
		cfg.PollInterval = time.Duration(raw.PollMS) * time.Millisecond
	}
	if raw.GamepadFrameMS > 0 {
		cfg.GamepadFrame = time.Duration(raw.GamepadFrameMS) * time.Millisecond
	}

	return cfg, nil
}

// OperatorLogPath is where the operator log is mirrored.
func (c Config) OperatorLogPath() string {
	return filepath.Join(c.logDir(), "operator.log")
}

// DiagnosticsLogPath is where stagehand writes its own structured log.
func (c Config) DiagnosticsLogPath() string {
	return filepath.Join(c.logDir(), "stagehand.log")
}

func (c Config) logDir() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir)
	}
	return c.LogDir
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
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
