package core

import (
	"errors"
	"fmt"

	"github.com/comalice/uimachines/internal/primitives"
)

// Lifecycle errors returned by Start, Send and Restore.
var (
	ErrNotStarted     = errors.New("uimachine: machine not started")
	ErrStopped        = errors.New("uimachine: machine stopped")
	ErrAlreadyStarted = errors.New("uimachine: machine already started")
)

// Construction sentinels. ConfigError wraps one of them.
var (
	ErrInvalidConfig  = primitives.ErrInvalidConfig
	ErrDuplicateState = primitives.ErrDuplicateState
	ErrUnknownTarget  = primitives.ErrUnknownTarget
	ErrUnresolvedRef  = errors.New("unresolved reference")
)

// ConfigError is returned by NewMachine when the descriptor cannot be compiled.
// The half-built machine is never returned alongside it.
type ConfigError struct {
	// Machine is the descriptor ID.
	Machine string
	// Path is the state path the problem was found at. Empty for the root.
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("uimachine: config %q at state %q: %v", e.Machine, e.Path, e.Err)
	}
	return fmt.Sprintf("uimachine: config %q: %v", e.Machine, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ContextError is returned by NewMachine when the initial context is rejected.
type ContextError struct {
	Machine string
	Err     error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("uimachine: invalid initial context for %q: %v", e.Machine, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }

// CallbackKind names where a failing callback was attached.
type CallbackKind string

const (
	KindGuard      CallbackKind = "guard"
	KindAction     CallbackKind = "action"
	KindEntry      CallbackKind = "entry"
	KindExit       CallbackKind = "exit"
	KindActivity   CallbackKind = "activity"
	KindSubscriber CallbackKind = "subscriber"
)

// CallbackError is returned from Send when a guard or action fails or panics
// while the event is processed. Context changes made by earlier actions of the
// same event are kept.
type CallbackError struct {
	Kind  CallbackKind
	Name  string
	State string
	Event primitives.EventType
	Err   error
}

func (e *CallbackError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("uimachine: %s %q failed in state %q on %q: %v", e.Kind, e.Name, e.State, e.Event, e.Err)
	}
	return fmt.Sprintf("uimachine: %s %q failed on %q: %v", e.Kind, e.Name, e.Event, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
