package stageapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Text is a leniently decoded scalar. JSON strings are kept as-is, null
// becomes empty and any other value is kept as its compact JSON encoding, so a
// backend sending `"stdout_lines": 42` still round-trips as "42".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return err
	}
	*t = Text(compact.String())
	return nil
}

func (t Text) String() string { return string(t) }

// TextList accepts either an array of scalars or a single string, which is
// split into lines.
type TextList []Text

// UnmarshalJSON implements json.Unmarshaler.
func (l *TextList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*l = nil
		return nil
	case trimmed[0] == '[':
		var items []Text
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single Text
	if err := single.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	text := strings.TrimRight(string(single), "\n")
	if text == "" {
		*l = nil
		return nil
	}
	parts := strings.Split(text, "\n")
	out := make(TextList, len(parts))
	for i, p := range parts {
		out[i] = Text(p)
	}
	*l = out
	return nil
}

// Strings returns the list as plain strings.
func (l TextList) Strings() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, len(l))
	for i, v := range l {
		out[i] = string(v)
	}
	return out
}

// Payload is the decoded body of a stage or operational endpoint. Every field
// the backend is known to send has a typed slot; anything else lands in Extra.
type Payload struct {
	Status       Text            `json:"status"`
	StatusCode   Text            `json:"status_code"`
	RunID        Text            `json:"run_id"`
	LogDir       Text            `json:"log_dir"`
	SummaryPath  Text            `json:"summary_path"`
	StdoutPath   Text            `json:"stdout_path"`
	StderrPath   Text            `json:"stderr_path"`
	Summary      Text            `json:"summary"`
	StdoutLines  Text            `json:"stdout_lines"`
	StderrLines  Text            `json:"stderr_lines"`
	Metrics      json.RawMessage `json:"metrics"`
	MetricsError Text            `json:"metrics_error"`
	StderrTail   TextList        `json:"stderr_tail"`
	Stderr       Text            `json:"stderr"`
	Error        Text            `json:"error"`
	Detail       Text            `json:"detail"`
	Artifacts    map[string]Text `json:"artifacts"`
	Raw          Text            `json:"raw"`

	// Response and Result carry the answer of the memory query endpoint.
	Response Text `json:"response"`
	Result   Text `json:"result"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownFields = map[string]struct{}{
	"status": {}, "status_code": {}, "run_id": {}, "log_dir": {}, "summary_path": {},
	"stdout_path": {}, "stderr_path": {}, "summary": {}, "stdout_lines": {}, "stderr_lines": {},
	"metrics": {}, "metrics_error": {}, "stderr_tail": {}, "stderr": {}, "error": {},
	"detail": {}, "artifacts": {}, "raw": {}, "response": {}, "result": {},
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type plain Payload
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for key, value := range all {
		if _, ok := knownFields[key]; ok {
			continue
		}
		if decoded.Extra == nil {
			decoded.Extra = make(map[string]json.RawMessage)
		}
		decoded.Extra[key] = value
	}
	*p = Payload(decoded)
	return nil
}

// HasMetrics reports whether the payload carried a non-null metrics value.
func (p *Payload) HasMetrics() bool {
	if p == nil {
		return false
	}
	trimmed := bytes.TrimSpace(p.Metrics)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Message returns the most specific failure text the payload offers.
func (p *Payload) Message() string {
	if p == nil {
		return ""
	}
	if msg := strings.TrimSpace(string(p.Error)); msg != "" {
		return msg
	}
	return strings.TrimSpace(string(p.Detail))
}

// Answer returns the operator-facing text of an operational response.
func (p *Payload) Answer() string {
	if p == nil {
		return ""
	}
	for _, candidate := range []Text{p.Response, p.Result, p.Summary} {
		if s := strings.TrimSpace(string(candidate)); s != "" {
			return s
		}
	}
	return ""
}

// ParsePayload decodes a complete response body. A blank body yields an empty
// payload.
func ParsePayload(raw string) (*Payload, error) {
	if strings.TrimSpace(raw) == "" {
		return &Payload{}, nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "null" {
		return &Payload{}, nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		// json.Unmarshal accepts scalars; the backend contract is an object.
		var probe any
		if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
			return nil, err
		}
		return nil, errors.Errorf("expected a JSON object, got %s", jsonKind(probe))
	}
	var p Payload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	default:
		return "value"
	}
}
