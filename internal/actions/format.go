package actions

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/five82/stagehand/internal/logsink"
	"github.com/five82/stagehand/internal/results"
)

const indent = "  "

// FormatResult renders the summary block appended after a dispatch resolves.
// Only populated fields are emitted, always in the same order.
func FormatResult(label string, r results.StageResult, at time.Time) []string {
	symbol := logsink.SymbolSuccess
	if r.Status != results.StatusSuccess {
		symbol = logsink.SymbolFailure
	}
	lines := []string{logsink.Entry{Time: at, Symbol: symbol, Text: label}.String()}

	field := func(name, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		lines = append(lines, name+": "+oneLine(value))
	}

	field("run", r.RunID)
	field("logs", r.LogDir)
	field("stdout", r.StdoutPath)
	field("stderr", r.StderrPath)
	field("summary", r.Summary)
	field("summary file", r.SummaryPath)
	field("stdout lines", r.StdoutLines)
	field("stderr lines", r.StderrLines)

	if metrics := prettyJSON(r.Metrics); metrics != "" {
		lines = append(lines, "metrics:")
		for _, l := range strings.Split(metrics, "\n") {
			lines = append(lines, indent+l)
		}
	}

	if len(r.Artifacts) > 0 {
		keys := make([]string, 0, len(r.Artifacts))
		for k := range r.Artifacts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines = append(lines, "artifacts:")
		for _, k := range keys {
			lines = append(lines, indent+k+": "+oneLine(r.Artifacts[k]))
		}
	}

	field("metrics error", r.MetricsError)

	tail := nonBlank(r.StderrTail)
	switch {
	case len(tail) > 0:
		lines = append(lines, "stderr tail:")
		for _, l := range tail {
			lines = append(lines, indent+l)
		}
	case strings.TrimSpace(r.Stderr) != "":
		stderr := strings.Split(strings.TrimSpace(r.Stderr), "\n")
		lines = append(lines, "stderr: "+stderr[0])
		for _, l := range stderr[1:] {
			lines = append(lines, indent+l)
		}
	}

	raw := r.RawResponse
	if raw == "" {
		raw = r.Raw
	}
	field("raw", raw)
	field("error", r.Error)
	return lines
}

func prettyJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", indent); err != nil {
		return string(trimmed)
	}
	return out.String()
}

func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", "")), " ")
}

func nonBlank(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, strings.TrimRight(l, "\r\n"))
		}
	}
	return out
}
