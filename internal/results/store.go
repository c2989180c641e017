package results

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/stageapi"
)

// Caller performs the streamed stage call. *stageapi.Client satisfies it.
type Caller interface {
	Post(ctx context.Context, endpoint, label string) (stageapi.Response, error)
}

// Ticket identifies one dispatch. Writes carrying a ticket older than the
// latest dispatch of the same id are discarded.
type Ticket struct {
	ID         string
	Generation uint64
	StartedAt  time.Time
}

// Outcome is the resolved record of one dispatch. Stale is set when a newer
// dispatch of the same id started first, in which case Result was not stored.
type Outcome struct {
	Result StageResult
	Stale  bool
}

// Change describes a stored record replacing the previous one.
type Change struct {
	Group  string
	ID     string
	Result StageResult
}

// Store holds the StageResult of every action in one stage group.
type Store struct {
	group  string
	caller Caller
	now    func() time.Time
	logger zerolog.Logger

	mu        sync.RWMutex
	order     []string
	records   map[string]StageResult
	fallbacks map[string]Fallback
	latest    map[string]uint64
	next      uint64
	hooks     []func(Change)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithChangeHook registers fn as if by OnChange.
func WithChangeHook(fn func(Change)) Option {
	return func(s *Store) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

// NewStore builds an empty store for group.
func NewStore(group string, caller Caller, opts ...Option) *Store {
	s := &Store{
		group:     group,
		caller:    caller,
		now:       time.Now,
		logger:    zerolog.Nop(),
		records:   make(map[string]StageResult),
		fallbacks: make(map[string]Fallback),
		latest:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Group returns the stage group the store serves.
func (s *Store) Group() string { return s.group }

// OnChange registers fn to run after every stored write, outside the lock.
func (s *Store) OnChange(fn func(Change)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Register seeds an idle record for id from fallback.
func (s *Store) Register(id string, fallback Fallback) error {
	if id == "" {
		return errors.New("action id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; ok {
		return errors.Errorf("action %q already registered in %s", id, s.group)
	}
	s.order = append(s.order, id)
	s.fallbacks[id] = fallback
	s.records[id] = fallback.seed()
	return nil
}

// Begin records a fresh running snapshot for id and returns its ticket. It
// never blocks on I/O, so the running state is visible before the call starts.
func (s *Store) Begin(id string) Ticket {
	startedAt := s.now()

	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.next++
	gen := s.next
	s.latest[id] = gen
	rec := StageResult{
		Status:     StatusRunning,
		StartedAt:  timePtr(startedAt),
		Generation: gen,
	}
	s.records[id] = rec
	hooks := s.hooks
	s.mu.Unlock()

	s.logger.Debug().Str("group", s.group).Str("id", id).Uint64("generation", gen).Msg("dispatch started")
	s.notify(hooks, Change{Group: s.group, ID: id, Result: rec.Clone()})
	return Ticket{ID: id, Generation: gen, StartedAt: startedAt}
}

// Complete performs the call for ticket and stores the terminal record unless
// a newer dispatch of the same id has begun. Backend failures are recorded,
// never returned.
func (s *Store) Complete(ctx context.Context, t Ticket, endpoint, label string) Outcome {
	var (
		resp stageapi.Response
		err  error
	)
	if s.caller == nil {
		err = errors.New("no stage client configured")
	} else {
		resp, err = s.caller.Post(ctx, endpoint, label)
	}
	return s.Settle(t, resp, err)
}

// Settle resolves an already finished call for ticket.
func (s *Store) Settle(t Ticket, resp stageapi.Response, callErr error) Outcome {
	completedAt := s.now()

	s.mu.RLock()
	fallback := s.fallbacks[t.ID]
	s.mu.RUnlock()

	rec := Resolve(fallback, t.StartedAt, resp, callErr, completedAt)
	rec.Generation = t.Generation

	s.mu.Lock()
	if t.Generation == 0 || s.latest[t.ID] != t.Generation {
		latest := s.latest[t.ID]
		s.mu.Unlock()
		s.logger.Debug().
			Str("group", s.group).
			Str("id", t.ID).
			Uint64("generation", t.Generation).
			Uint64("latest", latest).
			Msg("discarding stale completion")
		return Outcome{Result: rec, Stale: true}
	}
	s.records[t.ID] = rec
	hooks := s.hooks
	s.mu.Unlock()

	s.logger.Debug().
		Str("group", s.group).
		Str("id", t.ID).
		Str("status", string(rec.Status)).
		Uint64("generation", t.Generation).
		Msg("dispatch finished")
	s.notify(hooks, Change{Group: s.group, ID: t.ID, Result: rec.Clone()})
	return Outcome{Result: rec.Clone()}
}

// Dispatch runs Begin and Complete back to back.
func (s *Store) Dispatch(ctx context.Context, id, endpoint, label string) Outcome {
	return s.Complete(ctx, s.Begin(id), endpoint, label)
}

// Snapshot returns a copy of the record for id.
func (s *Store) Snapshot(id string) (StageResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return StageResult{}, false
	}
	return rec.Clone(), true
}

// All returns copies of every record keyed by id.
func (s *Store) All() map[string]StageResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]StageResult, len(s.records))
	for id, rec := range s.records {
		out[id] = rec.Clone()
	}
	return out
}

// IDs returns the action ids in registration order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Generation returns the latest dispatch generation for id, zero if never
// dispatched.
func (s *Store) Generation(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[id]
}

func (s *Store) notify(hooks []func(Change), c Change) {
	for _, fn := range hooks {
		fn(c)
	}
}
