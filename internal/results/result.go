package results

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a stage action.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	return s == StatusSuccess || s == StatusError
}

// StageResult is the latest lifecycle snapshot for one action.
type StageResult struct {
	Status      Status
	StartedAt   *time.Time
	CompletedAt *time.Time
	HTTPStatus  *int

	RunID       string
	LogDir      string
	SummaryPath string
	StdoutPath  string
	StderrPath  string

	Summary      string
	StdoutLines  string
	StderrLines  string
	Metrics      json.RawMessage
	MetricsError string
	Artifacts    map[string]string
	StderrTail   []string
	Stderr       string
	Raw          string

	Error       string
	RawResponse string

	// Generation is the dispatch that produced this record; zero for records
	// that were never dispatched.
	Generation uint64
}

// Clone returns a deep copy.
func (r StageResult) Clone() StageResult {
	dup := r
	if r.StartedAt != nil {
		t := *r.StartedAt
		dup.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		dup.CompletedAt = &t
	}
	if r.HTTPStatus != nil {
		code := *r.HTTPStatus
		dup.HTTPStatus = &code
	}
	if r.Metrics != nil {
		dup.Metrics = append(json.RawMessage(nil), r.Metrics...)
	}
	if r.Artifacts != nil {
		dup.Artifacts = make(map[string]string, len(r.Artifacts))
		for k, v := range r.Artifacts {
			dup.Artifacts[k] = v
		}
	}
	if r.StderrTail != nil {
		dup.StderrTail = append([]string(nil), r.StderrTail...)
	}
	return dup
}

// Duration returns how long the run took, or how long it has been running
// when completedAt is unset and now is provided.
func (r StageResult) Duration(now time.Time) time.Duration {
	if r.StartedAt == nil {
		return 0
	}
	end := now
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	if end.Before(*r.StartedAt) {
		return 0
	}
	return end.Sub(*r.StartedAt)
}

// Fallback is metadata known ahead of any dispatch, used to seed the idle
// record and to fill fields a backend response omits.
type Fallback struct {
	Status      Status
	RunID       string
	LogDir      string
	SummaryPath string
	StdoutPath  string
	StderrPath  string
	Metrics     json.RawMessage
	Artifacts   map[string]string
}

func (f Fallback) seed() StageResult {
	status := f.Status
	if status == "" {
		status = StatusIdle
	}
	r := StageResult{
		Status:      status,
		RunID:       f.RunID,
		LogDir:      f.LogDir,
		SummaryPath: f.SummaryPath,
		StdoutPath:  f.StdoutPath,
		StderrPath:  f.StderrPath,
		Metrics:     f.Metrics,
		Artifacts:   f.Artifacts,
	}
	return r.Clone()
}
