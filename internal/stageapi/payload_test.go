package stageapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePayloadRecognizedFields(t *testing.T) {
	raw := `{
		"status": "success",
		"status_code": 200,
		"run_id": "R1",
		"log_dir": "/tmp/logs",
		"stdout_lines": 12,
		"metrics": {"ok": true},
		"stderr_tail": ["e1", "e2"],
		"artifacts": {"report": "/tmp/r.md", "count": 3},
		"trace_id": "abc"
	}`
	p, err := ParsePayload(raw)
	require.NoError(t, err)

	require.Equal(t, Text("success"), p.Status)
	require.Equal(t, Text("200"), p.StatusCode)
	require.Equal(t, Text("R1"), p.RunID)
	require.Equal(t, Text("/tmp/logs"), p.LogDir)
	require.Equal(t, Text("12"), p.StdoutLines)
	require.JSONEq(t, `{"ok": true}`, string(p.Metrics))
	require.True(t, p.HasMetrics())
	require.Equal(t, []string{"e1", "e2"}, p.StderrTail.Strings())
	require.Equal(t, map[string]Text{"report": "/tmp/r.md", "count": "3"}, p.Artifacts)
	require.Equal(t, map[string]json.RawMessage{"trace_id": json.RawMessage(`"abc"`)}, p.Extra)
}

func TestParsePayloadBlankAndNull(t *testing.T) {
	for _, raw := range []string{"", "   \n", "null"} {
		p, err := ParsePayload(raw)
		require.NoError(t, err, "raw %q", raw)
		require.Equal(t, Payload{}, *p)
	}
}

func TestParsePayloadRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{"not json", `"text"`, "[1,2]", "{"} {
		_, err := ParsePayload(raw)
		require.Error(t, err, "raw %q", raw)
	}
}

func TestNullMetricsIsAbsent(t *testing.T) {
	p, err := ParsePayload(`{"metrics": null, "error": null}`)
	require.NoError(t, err)
	require.False(t, p.HasMetrics())
	require.Empty(t, p.Error)
}

func TestStderrTailAcceptsString(t *testing.T) {
	p, err := ParsePayload(`{"stderr_tail": "first\nsecond\n"}`)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, p.StderrTail.Strings())
}

func TestMessagePrefersErrorOverDetail(t *testing.T) {
	require.Equal(t, "boom", (&Payload{Error: " boom ", Detail: "d"}).Message())
	require.Equal(t, "d", (&Payload{Detail: "d"}).Message())
	require.Empty(t, (*Payload)(nil).Message())
}
