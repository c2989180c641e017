package actions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/five82/stagehand/internal/catalog"
	"github.com/five82/stagehand/internal/logsink"
	"github.com/five82/stagehand/internal/results"
	"github.com/five82/stagehand/internal/stageapi"
)

// DefaultStage names the store used by actions registered without a stage.
const DefaultStage = "default"

// Action is the immutable descriptor of a stage action.
type Action struct {
	ID       string
	Label    string
	Endpoint string
	// Stage selects the result store; Group is for display only.
	Stage    string
	Group    string
	Fallback results.Fallback
}

// Registry binds actions to the shared client, result stores and operator
// log.
type Registry struct {
	sink      *logsink.Sink
	client    stageapi.Poster
	logger    zerolog.Logger
	now       func() time.Time
	storeOpts []results.Option

	mu         sync.RWMutex
	catalog    *catalog.Catalog
	stores     map[string]*results.Store
	storeOrder []string
	actions    map[string]*BoundAction
	order      []string
	ops        map[string]*OperationalAction
	opOrder    []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the diagnostics logger for the registry and its stores.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithClock overrides the time source for the registry and its stores.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithResultHook runs fn after every stored result change in any store.
func WithResultHook(fn func(results.Change)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.storeOpts = append(r.storeOpts, results.WithChangeHook(fn))
		}
	}
}

// NewRegistry builds an empty registry.
func NewRegistry(sink *logsink.Sink, client stageapi.Poster, opts ...Option) *Registry {
	r := &Registry{
		sink:    sink,
		client:  client,
		logger:  zerolog.Nop(),
		now:     time.Now,
		stores:  make(map[string]*results.Store),
		actions: make(map[string]*BoundAction),
		ops:     make(map[string]*OperationalAction),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadCatalog registers every action and operation in c.
func (r *Registry) LoadCatalog(c *catalog.Catalog) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, st := range c.Stages {
		for _, g := range st.Groups {
			for _, a := range g.Actions {
				if a.ID == "" {
					continue
				}
				fb, err := a.ResultFallback()
				if err != nil {
					return err
				}
				if _, err := r.Register(Action{
					ID:       a.ID,
					Label:    a.DisplayLabel(),
					Endpoint: a.EndpointFor(),
					Stage:    st.ID,
					Group:    g.ID,
					Fallback: fb,
				}); err != nil {
					return err
				}
			}
		}
	}
	for _, op := range c.Operations {
		if _, err := r.RegisterOperational(op); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.catalog = c
	r.mu.Unlock()
	return nil
}

// Register binds a. Actions without an id are ignored and return nil.
func (r *Registry) Register(a Action) (*BoundAction, error) {
	a.ID = strings.TrimSpace(a.ID)
	if a.ID == "" {
		return nil, nil
	}
	if a.Label == "" {
		a.Label = a.ID
	}
	if a.Endpoint == "" {
		a.Endpoint = "/alpha/" + a.ID
	}
	if a.Stage == "" {
		a.Stage = DefaultStage
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.actions[a.ID]; dup {
		return nil, errors.Errorf("action %q is already registered", a.ID)
	}
	store := r.storeLocked(a.Stage)
	if err := store.Register(a.ID, a.Fallback); err != nil {
		return nil, err
	}
	b := &BoundAction{action: a, store: store, sink: r.sink, now: r.now}
	r.actions[a.ID] = b
	r.order = append(r.order, a.ID)
	return b, nil
}

func (r *Registry) storeLocked(stage string) *results.Store {
	if s, ok := r.stores[stage]; ok {
		return s
	}
	opts := append([]results.Option{
		results.WithClock(r.now),
		results.WithLogger(r.logger.With().Str("stage", stage).Logger()),
	}, r.storeOpts...)
	s := results.NewStore(stage, r.client, opts...)
	r.stores[stage] = s
	r.storeOrder = append(r.storeOrder, stage)
	return s
}

// RegisterOperational binds a one-shot operation.
func (r *Registry) RegisterOperational(op catalog.Operation) (*OperationalAction, error) {
	op.ID = strings.TrimSpace(op.ID)
	if op.ID == "" {
		return nil, errors.New("operation id is empty")
	}
	if op.Label == "" {
		op.Label = op.ID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ops[op.ID]; dup {
		return nil, errors.Errorf("operation %q is already registered", op.ID)
	}
	o := &OperationalAction{op: op, client: r.client, sink: r.sink, logger: r.logger}
	r.ops[op.ID] = o
	r.opOrder = append(r.opOrder, op.ID)
	return o, nil
}

// Action returns the bound action for id.
func (r *Registry) Action(id string) (*BoundAction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.actions[id]
	return b, ok
}

// Actions returns every bound action in registration order.
func (r *Registry) Actions() []*BoundAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*BoundAction, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actions[id])
	}
	return out
}

// Operational returns the operation for id.
func (r *Registry) Operational(id string) (*OperationalAction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.ops[id]
	return o, ok
}

// Operations returns every operation in registration order.
func (r *Registry) Operations() []*OperationalAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*OperationalAction, 0, len(r.opOrder))
	for _, id := range r.opOrder {
		out = append(out, r.ops[id])
	}
	return out
}

// Store returns the result store for stage.
func (r *Registry) Store(stage string) (*results.Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[stage]
	return s, ok
}

// Stores returns every result store in creation order.
func (r *Registry) Stores() []*results.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*results.Store, 0, len(r.storeOrder))
	for _, stage := range r.storeOrder {
		out = append(out, r.stores[stage])
	}
	return out
}

// Catalog returns the catalog loaded by LoadCatalog, if any.
func (r *Registry) Catalog() *catalog.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

// Sink returns the operator log.
func (r *Registry) Sink() *logsink.Sink { return r.sink }

// BoundAction is an action wired to its store and the operator log.
type BoundAction struct {
	action Action
	store  *results.Store
	sink   *logsink.Sink
	now    func() time.Time
}

// Descriptor returns the action descriptor.
func (b *BoundAction) Descriptor() Action { return b.action }

// ID returns the action id.
func (b *BoundAction) ID() string { return b.action.ID }

// Label returns the display label.
func (b *BoundAction) Label() string { return b.action.Label }

// Snapshot returns the current result.
func (b *BoundAction) Snapshot() results.StageResult {
	rec, _ := b.store.Snapshot(b.action.ID)
	return rec
}

// Start logs the dispatch and records the running state. It does no I/O.
func (b *BoundAction) Start() results.Ticket {
	b.sink.Log(logsink.SymbolDispatch, b.action.Label)
	return b.store.Begin(b.action.ID)
}

// Await performs the call for t and appends the summary block. It always
// returns an outcome; failures are part of the result.
func (b *BoundAction) Await(ctx context.Context, t results.Ticket) results.Outcome {
	out := b.store.Complete(ctx, t, b.action.Endpoint, b.action.Label)
	label := b.action.Label
	if out.Stale {
		label += " (superseded)"
	}
	b.sink.Block(FormatResult(label, out.Result, b.now()))
	return out
}

// Execute runs Start then Await.
func (b *BoundAction) Execute(ctx context.Context) results.Outcome {
	return b.Await(ctx, b.Start())
}

// Run executes the action and reports an error status as *FailureError.
func (b *BoundAction) Run(ctx context.Context) error {
	out := b.Execute(ctx)
	if out.Result.Status == results.StatusSuccess {
		return nil
	}
	return &FailureError{ID: b.action.ID, Label: b.action.Label, Message: out.Result.Error}
}

// FailureError reports a failed action to callers that compose actions.
type FailureError struct {
	ID      string
	Label   string
	Message string
}

func (e *FailureError) Error() string {
	if e.Message == "" {
		return e.Label + " failed"
	}
	return e.Label + ": " + e.Message
}
