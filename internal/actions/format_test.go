package actions

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/stagehand/internal/results"
)

var formatAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestFormatResultFullFieldOrder(t *testing.T) {
	r := results.StageResult{
		Status:       results.StatusError,
		RunID:        "R1",
		LogDir:       "/logs/r1",
		StdoutPath:   "/logs/r1/stdout.log",
		StderrPath:   "/logs/r1/stderr.log",
		Summary:      "two checks failed",
		SummaryPath:  "/logs/r1/summary.json",
		StdoutLines:  "120",
		StderrLines:  "4",
		Metrics:      json.RawMessage(`{"ok":false,"checks":{"gate":1}}`),
		Artifacts:    map[string]string{"zeta": "z.txt", "alpha": "a.txt"},
		MetricsError: "gate regression",
		StderrTail:   []string{"traceback", "", "ValueError"},
		Stderr:       "ignored because tail wins",
		RawResponse:  "raw body",
		Error:        "gate regression",
	}

	got := FormatResult("Gate shakeout", r, formatAt)
	want := []string{
		"[2025-03-14T09:26:53.000Z] ❌ Gate shakeout",
		"run: R1",
		"logs: /logs/r1",
		"stdout: /logs/r1/stdout.log",
		"stderr: /logs/r1/stderr.log",
		"summary: two checks failed",
		"summary file: /logs/r1/summary.json",
		"stdout lines: 120",
		"stderr lines: 4",
		"metrics:",
		"  {",
		`    "ok": false,`,
		`    "checks": {`,
		`      "gate": 1`,
		"    }",
		"  }",
		"artifacts:",
		"  alpha: a.txt",
		"  zeta: z.txt",
		"metrics error: gate regression",
		"stderr tail:",
		"  traceback",
		"  ValueError",
		"raw: raw body",
		"error: gate regression",
	}
	require.Equal(t, want, got)
}

func TestFormatResultOmitsAbsentFields(t *testing.T) {
	got := FormatResult("Boot telemetry", results.StageResult{Status: results.StatusSuccess, RunID: "R9"}, formatAt)
	require.Equal(t, []string{
		"[2025-03-14T09:26:53.000Z] ✅ Boot telemetry",
		"run: R9",
	}, got)
}

func TestFormatResultMetricsBeforeArtifacts(t *testing.T) {
	r := results.StageResult{
		Status:    results.StatusSuccess,
		Artifacts: map[string]string{"bundle": "b.tar"},
		Metrics:   json.RawMessage(`{"ok":true}`),
	}
	got := strings.Join(FormatResult("x", r, formatAt), "\n")
	require.Less(t, strings.Index(got, "metrics:"), strings.Index(got, "artifacts:"))
}

func TestFormatResultStderrWithoutTail(t *testing.T) {
	r := results.StageResult{Status: results.StatusError, Stderr: "first\nsecond", Error: "exit 1"}
	require.Equal(t, []string{
		"[2025-03-14T09:26:53.000Z] ❌ x",
		"stderr: first",
		"  second",
		"error: exit 1",
	}, FormatResult("x", r, formatAt))
}

func TestFormatResultIsDeterministic(t *testing.T) {
	r := results.StageResult{
		Status:    results.StatusSuccess,
		Artifacts: map[string]string{"c": "3", "a": "1", "b": "2"},
	}
	first := FormatResult("x", r, formatAt)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, FormatResult("x", r, formatAt))
	}
}

func TestFormatResultInvalidMetricsKeptVerbatim(t *testing.T) {
	r := results.StageResult{Status: results.StatusSuccess, Metrics: json.RawMessage(`{oops`)}
	require.Equal(t, []string{
		"[2025-03-14T09:26:53.000Z] ✅ x",
		"metrics:",
		"  {oops",
	}, FormatResult("x", r, formatAt))
}

func TestFormatResultIdleUsesFailureGlyph(t *testing.T) {
	got := FormatResult("x", results.StageResult{Status: results.StatusIdle}, formatAt)
	require.Equal(t, "[2025-03-14T09:26:53.000Z] ❌ x", got[0])
}
