package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_dir = \""+logDir+"\"\n"), 0o644))
	return path, logDir
}

func TestListCommand(t *testing.T) {
	cfg, _ := writeConfig(t)

	out, err := execute(t, "list", "--config", cfg)
	require.NoError(t, err)
	require.Contains(t, out, "stage-b3-connector-rotation")
	require.Contains(t, out, "handover")
}

func TestTailCommandFailures(t *testing.T) {
	cfg, logDir := writeConfig(t)
	require.NoError(t, os.MkdirAll(logDir, 0o755))
	log := strings.Join([]string{
		"[2026-01-02T10:00:00.000Z] ✅ Boot telemetry",
		"[2026-01-02T10:00:01.000Z] ❌ Crown replays",
		"  error: HTTP 502",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "operator.log"), []byte(log), 0o644))

	out, err := execute(t, "tail", "--config", cfg, "--failures")
	require.NoError(t, err)
	require.Equal(t, "[2026-01-02T10:00:01.000Z] ❌ Crown replays\n  error: HTTP 502\n", out)
}

func TestRunCommandRequiresActions(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, err := execute(t, "run", "--config", cfg)
	require.Error(t, err)
}

func TestRunCommandUnknownAction(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, err := execute(t, "run", "--config", cfg, "stage-z9-nothing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "stage-z9-nothing")
}
