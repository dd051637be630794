package core

import (
	"context"
	"time"

	"github.com/comalice/uimachines/internal/primitives"
)

// Effects lets an action feed events back into its own machine.
type Effects interface {
	// Send appends evt to the machine's queue. It is processed after the
	// current event, before the next snapshot is published.
	Send(evt primitives.Event)
	// Defer queues evt for the next turn: it is processed only after the
	// current drain has emptied and its snapshot was published.
	Defer(evt primitives.Event)
}

// Action is a reducer: it receives the current context and returns the next
// one. Slices and maps inside C must be copied before modification.
type Action[C any] func(ctx C, evt primitives.Event, fx Effects) (C, error)

// Guard decides whether a transition may be taken. It must not mutate ctx.
type Guard[C any] func(ctx C, evt primitives.Event) bool

// Activity runs while its state is active. ctx is cancelled when the state
// exits or the machine stops; the returned stop func, if any, is called once
// at the same moment. send drops events after the activity was stopped.
type Activity[C any] func(ctx context.Context, c C, send func(primitives.Event)) (stop func())

// DelayFunc computes a named delay from the context at scheduling time.
type DelayFunc[C any] func(c C) time.Duration

// Implementations binds the names used in a MachineConfig to code.
type Implementations[C any] struct {
	Actions    map[string]Action[C]
	Guards     map[string]Guard[C]
	Activities map[string]Activity[C]
	Delays     map[string]DelayFunc[C]

	// Validate checks the initial context. A non-nil error fails NewMachine.
	Validate func(C) error
}

// guardFunc is the compiled form of a guard: registered guards and resolved
// expressions share it.
type guardFunc[C any] func(ctx C, evt primitives.Event) (bool, error)
