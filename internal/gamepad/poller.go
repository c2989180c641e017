package gamepad

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/poll"
)

const (
	defaultFrameInterval  = 16 * time.Millisecond
	defaultRescanInterval = 2 * time.Second
)

// Opener opens the controller at path.
type Opener func(path string) (Source, error)

// Poller samples a controller once per frame and reports state changes. A
// watcher task opens the device, retrying with backoff while it is missing.
type Poller struct {
	path    string
	open    Opener
	onState func(State)
	logger  zerolog.Logger

	frame  time.Duration
	rescan time.Duration
	clock  poll.Clock

	mu      sync.Mutex
	src     Source
	last    State
	stopped bool

	watcher *poll.Task
	frames  *poll.Task
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithOpener replaces Open.
func WithOpener(open Opener) PollerOption {
	return func(p *Poller) {
		if open != nil {
			p.open = open
		}
	}
}

// WithClock drives both tasks from c.
func WithClock(c poll.Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// WithFrameInterval sets the sampling interval.
func WithFrameInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.frame = d
		}
	}
}

// WithRescanInterval sets the base delay between device scans.
func WithRescanInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.rescan = d
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

// NewPoller builds a stopped poller for the device at path. onState is called
// from the clock's goroutine whenever the sampled state changes.
func NewPoller(path string, onState func(State), opts ...PollerOption) *Poller {
	p := &Poller{
		path:    path,
		open:    Open,
		onState: onState,
		logger:  zerolog.Nop(),
		frame:   defaultFrameInterval,
		rescan:  defaultRescanInterval,
		clock:   poll.RealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.watcher = poll.NewTask("gamepad-scan", p.rescan, p.scan,
		poll.WithClock(p.clock), poll.WithLogger(p.logger))
	p.frames = poll.NewTask("gamepad-frame", p.frame, p.sample,
		poll.WithClock(p.clock), poll.WithLogger(p.logger), poll.WithOnStop(p.disconnected))
	return p
}

// Start begins scanning for the device. An empty path disables the poller.
func (p *Poller) Start() {
	if p.path == "" {
		return
	}
	p.mu.Lock()
	p.stopped = false
	p.mu.Unlock()
	p.watcher.Start()
}

// Stop ends scanning and sampling and closes the device.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	src := p.src
	p.src = nil
	p.mu.Unlock()

	p.watcher.Stop()
	p.frames.Stop()
	if src != nil {
		_ = src.Close()
	}
}

// Connected reports whether a controller is open.
func (p *Poller) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src != nil
}

func (p *Poller) scan() error {
	p.mu.Lock()
	connected := p.src != nil
	p.mu.Unlock()
	if connected {
		return nil
	}

	src, err := p.open(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		_ = src.Close()
		return poll.ErrStop
	}
	p.src = src
	p.last = State{}
	p.mu.Unlock()

	p.logger.Info().Str("device", p.path).Msg("gamepad connected")
	p.frames.Start()
	return nil
}

func (p *Poller) sample() error {
	p.mu.Lock()
	src := p.src
	p.mu.Unlock()
	if src == nil {
		return poll.ErrStop
	}

	st, ok := src.State()
	if !ok {
		return errors.Wrap(poll.ErrStop, "gamepad disconnected")
	}

	p.mu.Lock()
	changed := st != p.last
	p.last = st
	p.mu.Unlock()
	if changed && p.onState != nil {
		p.onState(st)
	}
	return nil
}

// disconnected runs when the frame task ends itself. Held buttons are
// released and the watcher picks the device up again once it reappears.
func (p *Poller) disconnected() {
	p.mu.Lock()
	src := p.src
	p.src = nil
	held := p.last != State{}
	p.last = State{}
	p.mu.Unlock()

	if src != nil {
		_ = src.Close()
	}
	if held && p.onState != nil {
		p.onState(State{})
	}
	p.logger.Info().Str("device", p.path).Msg("gamepad disconnected")
}
