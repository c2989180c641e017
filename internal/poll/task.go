package poll

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const maxBackoff = 30 * time.Second

// ErrStop ends a task when returned from its step.
var ErrStop = errors.New("poll: stop")

// calculateBackoff returns the delay after the given number of consecutive
// failures: base doubled per failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// Task runs step every interval until stopped. A failing step is retried with
// exponential backoff; returning ErrStop ends the task.
type Task struct {
	name     string
	interval time.Duration
	step     func() error
	clock    Clock
	logger   zerolog.Logger
	onStop   func()

	mu       sync.Mutex
	running  bool
	gen      uint64
	timer    Timer
	failures int
}

// Option configures a Task.
type Option func(*Task)

// WithClock sets the clock; RealClock by default.
func WithClock(c Clock) Option {
	return func(t *Task) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Task) { t.logger = logger }
}

// WithOnStop runs fn when the step ends the task with ErrStop. It is not
// called for Stop.
func WithOnStop(fn func()) Option {
	return func(t *Task) { t.onStop = fn }
}

// NewTask builds a stopped task.
func NewTask(name string, interval time.Duration, step func() error, opts ...Option) *Task {
	if interval <= 0 {
		interval = time.Second
	}
	t := &Task{
		name:     name,
		interval: interval,
		step:     step,
		clock:    RealClock(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start schedules the first step one interval from now. Starting a running
// task does nothing.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.failures = 0
	t.gen++
	t.scheduleLocked(t.interval)
}

// Stop cancels the pending step. A step already executing finishes but is
// not rescheduled.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Running reports whether the task is scheduled.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Failures returns the current run of consecutive step failures.
func (t *Task) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}

func (t *Task) scheduleLocked(d time.Duration) {
	gen := t.gen
	t.timer = t.clock.AfterFunc(d, func() { t.fire(gen) })
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	err := t.step()

	t.mu.Lock()
	if !t.running || gen != t.gen {
		t.mu.Unlock()
		return
	}
	switch {
	case err == nil:
		t.failures = 0
		t.scheduleLocked(t.interval)
		t.mu.Unlock()
	case errors.Is(err, ErrStop):
		t.running = false
		t.gen++
		onStop := t.onStop
		t.mu.Unlock()
		t.logger.Debug().Str("task", t.name).Msg("task stopped itself")
		if onStop != nil {
			onStop()
		}
	default:
		t.failures++
		delay := calculateBackoff(t.failures, t.interval)
		t.scheduleLocked(delay)
		failures := t.failures
		t.mu.Unlock()
		t.logger.Warn().
			Err(err).
			Str("task", t.name).
			Int("failures", failures).
			Dur("retry_in", delay).
			Msg("task step failed")
	}
}
