package results

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/five82/stagehand/internal/stageapi"
)

// ParseErrorPrefix starts the error message recorded for unparseable bodies.
const ParseErrorPrefix = "Failed to parse response JSON: "

// Resolve turns a finished call into the terminal record for a dispatch that
// started at startedAt. callErr is a transport failure; resp is ignored when
// it is set.
func Resolve(fallback Fallback, startedAt time.Time, resp stageapi.Response, callErr error, completedAt time.Time) StageResult {
	if completedAt.Before(startedAt) {
		completedAt = startedAt
	}
	r := StageResult{
		StartedAt:   timePtr(startedAt),
		CompletedAt: timePtr(completedAt),
	}

	if callErr != nil {
		r.Status = StatusError
		r.Error = callErr.Error()
		if resp.HTTPStatus != 0 {
			r.HTTPStatus = intPtr(resp.HTTPStatus)
		}
		return r
	}

	r.HTTPStatus = intPtr(resp.HTTPStatus)
	if resp.ParseErr != nil {
		r.Status = StatusError
		r.Error = ParseErrorPrefix + resp.ParseErr.Error()
		r.RawResponse = resp.Raw
		return r
	}

	body := resp.Body
	if body == nil {
		body = &stageapi.Payload{}
	}

	r.RunID = pick(body.RunID, fallback.RunID)
	r.LogDir = pick(body.LogDir, fallback.LogDir)
	r.SummaryPath = pick(body.SummaryPath, fallback.SummaryPath)
	r.StdoutPath = pick(body.StdoutPath, fallback.StdoutPath)
	r.StderrPath = pick(body.StderrPath, fallback.StderrPath)
	r.Summary = strings.TrimSpace(string(body.Summary))
	r.StdoutLines = strings.TrimSpace(string(body.StdoutLines))
	r.StderrLines = strings.TrimSpace(string(body.StderrLines))
	r.MetricsError = strings.TrimSpace(string(body.MetricsError))
	r.StderrTail = body.StderrTail.Strings()
	r.Stderr = strings.TrimRight(string(body.Stderr), "\n")
	r.Raw = strings.TrimSpace(string(body.Raw))

	if body.HasMetrics() {
		r.Metrics = append([]byte(nil), bytes.TrimSpace(body.Metrics)...)
	} else if len(fallback.Metrics) > 0 {
		r.Metrics = append([]byte(nil), fallback.Metrics...)
	}
	if len(body.Artifacts) > 0 {
		r.Artifacts = make(map[string]string, len(body.Artifacts))
		for k, v := range body.Artifacts {
			r.Artifacts[k] = string(v)
		}
	} else if len(fallback.Artifacts) > 0 {
		r.Artifacts = make(map[string]string, len(fallback.Artifacts))
		for k, v := range fallback.Artifacts {
			r.Artifacts[k] = v
		}
	}

	switch {
	case !resp.OK():
		r.Status = StatusError
		r.Error = body.Message()
		if r.Error == "" {
			r.Error = fmt.Sprintf("HTTP %d", resp.HTTPStatus)
		}
	case r.MetricsError != "":
		r.Status = StatusError
		r.Error = r.MetricsError
	case strings.EqualFold(strings.TrimSpace(string(body.Status)), string(StatusError)):
		r.Status = StatusError
		r.Error = body.Message()
		if r.Error == "" {
			r.Error = "backend reported status error"
		}
	default:
		r.Status = StatusSuccess
	}
	return r
}

func pick(value stageapi.Text, fallback string) string {
	if v := strings.TrimSpace(string(value)); v != "" {
		return v
	}
	return fallback
}

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }
