// Package core provides the runtime core tier of the statechart engine.
// Options for configuring Machine instances.
package core

import (
	"github.com/charmbracelet/log"

	"github.com/comalice/uimachines/internal/primitives"
)

// Option applies configuration to a Machine via the functional options pattern.
type Option func(*settings)

type settings struct {
	id         string
	logger     *log.Logger
	clock      primitives.Clock
	runner     ActionRunner
	guards     GuardResolver
	source     EventSource
	persister  any
	publisher  EventPublisher
	visualizer Visualizer
	observers  []Observer
}

// WithID sets the machine instance ID. Defaults to a fresh ULID.
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

// WithLogger configures the logger used for debug tracing and recovered failures.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithClock configures the time source used by delayed transitions.
func WithClock(c primitives.Clock) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// WithActionRunner configures the Machine with a custom ActionRunner.
func WithActionRunner(r ActionRunner) Option {
	return func(s *settings) {
		s.runner = r
	}
}

// WithGuardResolver lets guard names that are not registered be compiled as expressions.
func WithGuardResolver(r GuardResolver) Option {
	return func(s *settings) {
		s.guards = r
	}
}

// WithEventSource configures the Machine with an EventSource drained after Start.
func WithEventSource(src EventSource) Option {
	return func(s *settings) {
		s.source = src
	}
}

// WithPersister configures the Machine to save a Record after every published snapshot.
// The persister's context type must match the machine's.
func WithPersister[C any](p Persister[C]) Option {
	return func(s *settings) {
		s.persister = p
	}
}

// WithPublisher configures the Machine with a custom EventPublisher.
func WithPublisher(pb EventPublisher) Option {
	return func(s *settings) {
		s.publisher = pb
	}
}

// WithVisualizer configures the Machine with a custom Visualizer.
func WithVisualizer(v Visualizer) Option {
	return func(s *settings) {
		s.visualizer = v
	}
}

// WithObserver adds an Observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observers = append(s.observers, o)
	}
}
