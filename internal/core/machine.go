// Package core provides the runtime core tier of the statechart engine.
// This includes the Machine runtime, event queue, state transitions, scheduling
// of delays and activities, and history management.
//
// Processing model: every event, whether sent by an adapter, by an action or
// by a timer, goes through one FIFO per machine. The goroutine that finds the
// queue idle drains it; everyone else only appends. Each event runs to
// completion before the next is dequeued, and subscribers see one snapshot
// per drain.
package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/comalice/uimachines/internal/logger"
	"github.com/comalice/uimachines/internal/primitives"
)

// Pluggable component interfaces.

// ActionRunner wraps the execution of every named action, e.g. for logging or timing.
type ActionRunner interface {
	Run(name string, event primitives.Event, run func() error) error
}

// GuardFunc is a guard compiled by a GuardResolver. ctx is the machine context value.
type GuardFunc func(ctx any, event primitives.Event) (bool, error)

// GuardResolver compiles guard names that have no registered implementation.
type GuardResolver interface {
	Resolve(expr string) (GuardFunc, error)
}

// EventSource feeds external events into a started machine.
type EventSource interface {
	Events() <-chan primitives.Event
}

// Persister stores and loads machine records.
type Persister[C any] interface {
	Save(ctx context.Context, rec Record[C]) error
	Load(ctx context.Context, machineID string) (Record[C], error)
}

// EventPublisher receives one record per taken microstep.
type EventPublisher interface {
	Publish(ctx context.Context, rec TransitionRecord) error
}

// Visualizer renders a descriptor with its active states highlighted.
type Visualizer interface {
	ExportDOT(config primitives.MachineConfig, active []string) string
	ExportJSON(config primitives.MachineConfig) ([]byte, error)
}

// Observer is notified of interpreter activity. Implementations must be fast
// and must not call back into the machine.
type Observer interface {
	OnTransition(rec TransitionRecord)
	OnUnmatched(machineID string, event primitives.EventType)
	OnError(machineID string, err error)
}

type status int

const (
	statusNew status = iota
	statusRunning
	statusStopped
)

// Machine is the core runtime instance of a statechart bound to a context of type C.
// Thread-safe for concurrent Send() from multiple goroutines.
type Machine[C any] struct {
	id      string
	version string
	graph   *Graph
	impl    Implementations[C]
	guards  map[string]guardFunc[C]
	store   *primitives.Store[C]
	history *HistoryManager
	sched   *scheduler
	log     *log.Logger
	opts    settings

	persister Persister[C]

	// queue state
	mu       sync.Mutex
	queue    []primitives.Event
	deferred []primitives.Event
	draining bool
	status   status
	done     chan struct{}

	// proc is held while an event is processed and during teardown.
	proc     sync.Mutex
	active   []bool
	restored []nodeID
	lastEvt  primitives.EventType

	baseCtx    context.Context
	cancelBase context.CancelFunc

	subMu   sync.Mutex
	subs    map[int]func(*Snapshot[C])
	nextSub int

	snap       atomic.Pointer[Snapshot[C]]
	pubVersion uint64
}

// NewMachine compiles config against impl and validates the initial context.
// It never returns a partially built machine.
func NewMachine[C any](config primitives.MachineConfig, impl Implementations[C], initial C, opts ...Option) (*Machine[C], error) {
	s := settings{clock: primitives.SystemClock{}}
	for _, opt := range opts {
		opt(&s)
	}
	if s.id == "" {
		s.id = ulid.Make().String()
	}
	if s.logger == nil {
		s.logger = logger.New("uimachine")
	}

	graph, err := Compile(config)
	if err != nil {
		return nil, err
	}

	m := &Machine[C]{
		id:      s.id,
		version: primitives.ComputeVersion(&config),
		graph:   graph,
		impl:    impl,
		guards:  make(map[string]guardFunc[C]),
		store:   primitives.NewStore(initial),
		history: NewHistoryManager(),
		log:     s.logger.With("machine", config.ID, "id", s.id),
		opts:    s,
		done:    make(chan struct{}),
		active:  make([]bool, len(graph.nodes)),
		subs:    make(map[int]func(*Snapshot[C])),
	}
	m.sched = newScheduler(s.clock, m.log, m.reportError)

	if s.persister != nil {
		p, ok := s.persister.(Persister[C])
		if !ok {
			return nil, &ConfigError{Machine: config.ID, Err: fmt.Errorf("%w: persister %T does not store %T", ErrInvalidConfig, s.persister, initial)}
		}
		m.persister = p
	}
	if err := m.resolve(); err != nil {
		return nil, err
	}
	if impl.Validate != nil {
		if err := impl.Validate(initial); err != nil {
			return nil, &ContextError{Machine: config.ID, Err: err}
		}
	}

	m.snap.Store(newSnapshot(nil, initial, ""))
	return m, nil
}

// resolve checks that every name in the graph is bound.
func (m *Machine[C]) resolve() error {
	unresolved := func(n *node, kind, name string) error {
		return &ConfigError{Machine: m.graph.cfg.ID, Path: n.path, Err: fmt.Errorf("%w: %s %q", ErrUnresolvedRef, kind, name)}
	}
	checkActions := func(n *node, names []string) error {
		for _, a := range names {
			if _, ok := m.impl.Actions[a]; !ok {
				return unresolved(n, "action", a)
			}
		}
		return nil
	}
	checkGuard := func(n *node, name string) error {
		if name == "" {
			return nil
		}
		if _, ok := m.guards[name]; ok {
			return nil
		}
		if g, ok := m.impl.Guards[name]; ok {
			m.guards[name] = func(c C, e primitives.Event) (bool, error) { return g(c, e), nil }
			return nil
		}
		if m.opts.guards != nil {
			fn, err := m.opts.guards.Resolve(name)
			if err == nil {
				m.guards[name] = func(c C, e primitives.Event) (bool, error) { return fn(c, e) }
				return nil
			}
			return &ConfigError{Machine: m.graph.cfg.ID, Path: n.path, Err: fmt.Errorf("%w: guard %q: %w", ErrUnresolvedRef, name, err)}
		}
		return unresolved(n, "guard", name)
	}

	for _, n := range m.graph.nodes {
		if err := checkActions(n, n.entry); err != nil {
			return err
		}
		if err := checkActions(n, n.exit); err != nil {
			return err
		}
		for _, a := range n.activities {
			if _, ok := m.impl.Activities[a]; !ok {
				return unresolved(n, "activity", a)
			}
		}
		for _, evt := range n.events() {
			for _, t := range n.on[evt] {
				if err := checkActions(n, t.actions); err != nil {
					return err
				}
				if err := checkGuard(n, t.guard); err != nil {
					return err
				}
			}
		}
		for _, d := range n.after {
			if err := checkActions(n, d.actions); err != nil {
				return err
			}
			if err := checkGuard(n, d.guard); err != nil {
				return err
			}
			if _, err := time.ParseDuration(d.delay); err != nil {
				if _, ok := m.impl.Delays[d.delay]; !ok {
					return unresolved(n, "delay", d.delay)
				}
			}
		}
	}
	return nil
}

// ID returns the machine instance ID.
func (m *Machine[C]) ID() string { return m.id }

// Graph returns the compiled graph.
func (m *Machine[C]) Graph() *Graph { return m.graph }

// Start enters the initial configuration (or the restored one), running entry
// actions, starting activities and scheduling delays, then publishes the
// first snapshot. Errors from entry actions are returned.
func (m *Machine[C]) Start() error {
	m.mu.Lock()
	switch m.status {
	case statusRunning:
		m.mu.Unlock()
		return ErrAlreadyStarted
	case statusStopped:
		m.mu.Unlock()
		return ErrStopped
	}
	m.status = statusRunning
	m.draining = true
	m.baseCtx, m.cancelBase = context.WithCancel(context.Background())
	m.mu.Unlock()

	m.proc.Lock()
	if m.stopped() {
		m.proc.Unlock()
		_ = m.drain(false)
		return ErrStopped
	}
	var err error
	if m.restored != nil {
		m.enterRestored()
	} else {
		err = m.enterInitial()
	}
	m.proc.Unlock()

	errs := []error{err}
	errs = append(errs, m.drain(true))

	if m.opts.source != nil {
		go m.pump(m.opts.source)
	}
	return errors.Join(errs...)
}

func (m *Machine[C]) pump(src EventSource) {
	events := src.Events()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := m.Send(evt); err != nil {
				if errors.Is(err, ErrStopped) {
					return
				}
				m.log.Warn("event source send failed", "event", evt.EventType(), "error", err)
			}
		case <-m.done:
			return
		}
	}
}

// Send enqueues an event. If no other goroutine is draining the queue, the
// caller drains it and receives the joined errors of every event it processed;
// otherwise Send returns nil right away and the active drainer handles it.
// Sending an event nothing handles is a no-op.
func (m *Machine[C]) Send(evt primitives.Event) error {
	if evt == nil {
		return errors.New("uimachine: nil event")
	}
	m.mu.Lock()
	switch m.status {
	case statusNew:
		m.mu.Unlock()
		return ErrNotStarted
	case statusStopped:
		m.mu.Unlock()
		return ErrStopped
	}
	m.queue = append(m.queue, evt)
	if m.draining {
		m.mu.Unlock()
		return nil
	}
	m.draining = true
	m.mu.Unlock()
	return m.drain(false)
}

// sendAsync is the path for timers and activities: nobody waits on the result.
func (m *Machine[C]) sendAsync(evt primitives.Event) {
	if err := m.Send(evt); err != nil && !errors.Is(err, ErrStopped) {
		m.log.Warn("async event failed", "event", evt.EventType(), "error", err)
		m.reportError(err)
	}
}

// drain processes queued events until the queue and the deferred list are
// empty. The caller must have set draining.
func (m *Machine[C]) drain(force bool) error {
	var errs []error
	for {
		m.mu.Lock()
		if m.status == statusStopped {
			m.queue, m.deferred = nil, nil
			m.draining = false
			m.mu.Unlock()
			return errors.Join(errs...)
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			m.publish(force)
			force = false

			m.mu.Lock()
			if len(m.queue) == 0 && len(m.deferred) == 0 {
				m.draining = false
				m.mu.Unlock()
				return errors.Join(errs...)
			}
			if len(m.queue) == 0 {
				m.queue, m.deferred = m.deferred, nil
			}
			m.mu.Unlock()
			continue
		}
		evt := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.proc.Lock()
		if m.stopped() {
			m.proc.Unlock()
			continue
		}
		err := m.process(evt)
		m.proc.Unlock()
		if err != nil {
			errs = append(errs, err)
			m.reportError(err)
		}
	}
}

// stopped reports whether Stop has been called. Callers holding proc use it
// to skip work that Stop's teardown would never undo.
func (m *Machine[C]) stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == statusStopped
}

// Subscribe registers fn to receive every published snapshot. The returned
// func unsubscribes it.
func (m *Machine[C]) Subscribe(fn func(*Snapshot[C])) (unsubscribe func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

// Snapshot returns the last published snapshot. Before Start it holds the
// initial context and no active states.
func (m *Machine[C]) Snapshot() *Snapshot[C] {
	return m.snap.Load()
}

// Stop cancels all pending delays and stops all activities. An event being
// processed completes first. Queued events are dropped. Stop is idempotent and
// must not be called from inside an action.
func (m *Machine[C]) Stop() error {
	m.mu.Lock()
	prev := m.status
	m.status = statusStopped
	m.queue, m.deferred = nil, nil
	m.mu.Unlock()
	if prev == statusStopped {
		return nil
	}
	close(m.done)
	if prev == statusNew {
		return nil
	}

	m.proc.Lock()
	defer m.proc.Unlock()
	m.sched.shutdown()
	m.cancelBase()
	m.log.Debug("stopped")
	return nil
}

// Restore loads a persisted record. It must be called before Start; Start then
// re-arms the activities and delays of the restored states without running
// their entry actions.
func (m *Machine[C]) Restore(rec Record[C]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != statusNew {
		return ErrAlreadyStarted
	}
	if rec.MachineID != "" && rec.MachineID != m.id {
		return fmt.Errorf("machine ID mismatch: have %q, record %q", m.id, rec.MachineID)
	}
	if rec.Version != "" && rec.Version != m.version {
		return fmt.Errorf("config version mismatch: have %q, record %q", m.version, rec.Version)
	}
	leaves := make([]nodeID, 0, len(rec.Value))
	for _, p := range rec.Value {
		id, ok := m.graph.byPath[p]
		if !ok {
			return fmt.Errorf("restore: %w %q", ErrUnknownTarget, p)
		}
		leaves = append(leaves, id)
	}
	for hp := range rec.History {
		if _, ok := m.graph.byPath[hp]; !ok {
			return fmt.Errorf("restore: %w history %q", ErrUnknownTarget, hp)
		}
	}
	if len(leaves) == 0 {
		return errors.New("restore: record has no active states")
	}
	if m.impl.Validate != nil {
		if err := m.impl.Validate(rec.Context); err != nil {
			return &ContextError{Machine: m.graph.cfg.ID, Err: err}
		}
	}
	m.store.Replace(rec.Context)
	m.history.Import(rec.History)
	m.restored = leaves
	return nil
}

// Record captures the machine for persistence.
func (m *Machine[C]) Record() Record[C] {
	snap := m.Snapshot()
	return Record[C]{
		MachineID: m.id,
		Version:   m.version,
		Value:     slices.Clone(snap.Value),
		Context:   snap.Context,
		History:   m.history.Export(),
		Timestamp: m.opts.clock.Now(),
	}
}

// Visualize returns the Graphviz DOT visualization of the current machine state.
func (m *Machine[C]) Visualize() (string, error) {
	if m.opts.visualizer == nil {
		return "", errors.New("no visualizer configured; use WithVisualizer")
	}
	return m.opts.visualizer.ExportDOT(m.graph.cfg, m.Snapshot().Value), nil
}

// publish emits a snapshot when the configuration or context changed since
// the last one. It runs on the draining goroutine, outside proc.
func (m *Machine[C]) publish(force bool) {
	m.proc.Lock()
	value := m.activePaths()
	version := m.store.Version()
	ctx := m.store.Get()
	evt := m.lastEvt
	m.proc.Unlock()

	prev := m.snap.Load()
	if !force && version == m.pubVersion && slices.Equal(prev.Value, value) {
		return
	}
	snap := newSnapshot(value, ctx, evt)
	m.pubVersion = version
	m.snap.Store(snap)

	m.subMu.Lock()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	subs := make([]func(*Snapshot[C]), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, m.subs[id])
	}
	m.subMu.Unlock()

	for _, fn := range subs {
		m.notify(fn, snap)
	}

	if m.persister != nil {
		if err := m.persister.Save(context.Background(), m.Record()); err != nil {
			m.log.Warn("persist failed", "error", err)
			m.reportError(err)
		}
	}
}

func (m *Machine[C]) notify(fn func(*Snapshot[C]), snap *Snapshot[C]) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("subscriber panicked", "panic", r)
			m.reportError(&CallbackError{Kind: KindSubscriber, Name: "subscriber", Event: snap.Event, Err: &PanicError{Value: r}})
		}
	}()
	fn(snap)
}

func (m *Machine[C]) reportError(err error) {
	for _, o := range m.opts.observers {
		o.OnError(m.id, err)
	}
}

// Idle reports whether no event is queued or being processed. Timers and
// activities may still send later.
func (m *Machine[C]) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.draining && len(m.queue) == 0 && len(m.deferred) == 0
}

// Pending reports the number of live delayed transitions.
func (m *Machine[C]) Pending() int { return m.sched.pending() }

// Running reports the number of live activities.
func (m *Machine[C]) Running() int { return m.sched.running() }
