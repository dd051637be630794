// Package uimachines is the public surface of the widget statechart runtime.
//
// A widget is a MachineConfig (plain data: states, transitions keyed by event
// type, named actions, guards, activities and delays) plus the Implementations
// those names resolve to. NewMachine compiles both against an initial context
// and returns a Machine that processes events run-to-completion and publishes
// immutable snapshots to subscribers.
//
//	cfg := uimachines.NewMachineBuilder("toggle", "off")
//	cfg.State("off").Transition("TOGGLE", "on")
//	cfg.State("on").Transition("TOGGLE", "off")
//	m, err := uimachines.NewMachine(cfg.MustBuild(), uimachines.Implementations[struct{}]{}, struct{}{})
//
// The ready-made widgets live under machines/ and their prop bags under connect/.
package uimachines

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

// Descriptor types.
type (
	MachineConfig    = primitives.MachineConfig
	MachineBuilder   = primitives.MachineBuilder
	StateConfig      = primitives.StateConfig
	StateType        = primitives.StateType
	TransitionConfig = primitives.TransitionConfig
	DelayConfig      = primitives.DelayConfig
)

// State kinds.
const (
	Atomic         = primitives.Atomic
	Compound       = primitives.Compound
	Parallel       = primitives.Parallel
	ShallowHistory = primitives.ShallowHistory
	DeepHistory    = primitives.DeepHistory
)

// Events.
type (
	Event     = primitives.Event
	EventType = primitives.EventType
	Signal    = primitives.Signal
	Message   = primitives.Message
	Clock     = primitives.Clock
)

// Runtime types.
type (
	Machine[C any]         = core.Machine[C]
	Snapshot[C any]        = core.Snapshot[C]
	Record[C any]          = core.Record[C]
	Implementations[C any] = core.Implementations[C]
	Action[C any]          = core.Action[C]
	Guard[C any]           = core.Guard[C]
	Activity[C any]        = core.Activity[C]
	DelayFunc[C any]       = core.DelayFunc[C]
	Persister[C any]       = core.Persister[C]

	Effects          = core.Effects
	Option           = core.Option
	TransitionRecord = core.TransitionRecord
	EventSource      = core.EventSource
	EventPublisher   = core.EventPublisher
	Observer         = core.Observer
	Visualizer       = core.Visualizer
	GuardResolver    = core.GuardResolver
	ActionRunner     = core.ActionRunner
)

// Errors.
type (
	ConfigError   = core.ConfigError
	ContextError  = core.ContextError
	CallbackError = core.CallbackError
	PanicError    = core.PanicError
)

var (
	ErrNotStarted     = core.ErrNotStarted
	ErrStopped        = core.ErrStopped
	ErrAlreadyStarted = core.ErrAlreadyStarted
	ErrUnknownTarget  = core.ErrUnknownTarget
	ErrDuplicateState = core.ErrDuplicateState
	ErrUnresolvedRef  = core.ErrUnresolvedRef
	ErrInvalidConfig  = core.ErrInvalidConfig
)

// NewMachine compiles config against impl and the initial context. The machine
// does nothing until Start.
func NewMachine[C any](config MachineConfig, impl Implementations[C], initial C, opts ...Option) (*Machine[C], error) {
	return core.NewMachine(config, impl, initial, opts...)
}

// NewMachineBuilder starts a descriptor with a compound root entering initial.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return primitives.NewMachineBuilder(id, initial)
}

// NewMessage builds a loosely typed event from key/value pairs.
func NewMessage(t EventType, kv ...any) Message {
	return primitives.NewMessage(t, kv...)
}

// Functional options.
func WithID(id string) Option                  { return core.WithID(id) }
func WithLogger(l *log.Logger) Option          { return core.WithLogger(l) }
func WithClock(c Clock) Option                 { return core.WithClock(c) }
func WithActionRunner(r ActionRunner) Option   { return core.WithActionRunner(r) }
func WithGuardResolver(r GuardResolver) Option { return core.WithGuardResolver(r) }
func WithEventSource(src EventSource) Option   { return core.WithEventSource(src) }
func WithPublisher(pb EventPublisher) Option   { return core.WithPublisher(pb) }
func WithVisualizer(v Visualizer) Option       { return core.WithVisualizer(v) }
func WithObserver(o Observer) Option           { return core.WithObserver(o) }

// WithPersister saves a Record after every published snapshot.
func WithPersister[C any](p Persister[C]) Option { return core.WithPersister(p) }

// Delay is a literal delay reference for DelayConfig.Delay.
func Delay(d time.Duration) string { return d.String() }
