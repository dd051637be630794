package core

import (
	"slices"
	"strings"
	"time"

	"github.com/comalice/uimachines/internal/primitives"
)

// Snapshot is the immutable view published to subscribers. A machine hands out
// the same pointer until its configuration or context changes, so adapters can
// compare pointers to decide whether to re-render.
type Snapshot[C any] struct {
	// Value lists the active atomic state paths in document order.
	Value []string
	// Context is the machine context at publication. Treat it as read-only.
	Context C
	// Event is the type of the last event processed before publication.
	Event primitives.EventType

	active map[string]struct{}
}

func newSnapshot[C any](value []string, ctx C, evt primitives.EventType) *Snapshot[C] {
	s := &Snapshot[C]{
		Value:   slices.Clone(value),
		Context: ctx,
		Event:   evt,
		active:  make(map[string]struct{}, len(value)*2),
	}
	for _, leaf := range value {
		segs := primitives.SplitPath(leaf)
		for i := range segs {
			s.active[strings.Join(segs[:i+1], ".")] = struct{}{}
		}
	}
	return s
}

// Matches reports whether any of the given state paths is active. Compound and
// parallel states are active when one of their descendants is.
func (s *Snapshot[C]) Matches(paths ...string) bool {
	for _, p := range paths {
		if _, ok := s.active[p]; ok {
			return true
		}
	}
	return false
}

// Record is the persisted form of a machine: enough to Restore it later.
type Record[C any] struct {
	MachineID string              `json:"machineID" yaml:"machineID"`
	Version   string              `json:"version" yaml:"version"`
	Value     []string            `json:"value" yaml:"value"`
	Context   C                   `json:"context" yaml:"context"`
	History   map[string][]string `json:"history,omitempty" yaml:"history,omitempty"`
	Timestamp time.Time           `json:"timestamp" yaml:"timestamp"`
}

// TransitionRecord describes one processed microstep for publishers.
type TransitionRecord struct {
	ID        string               `json:"id" yaml:"id"`
	MachineID string               `json:"machineID" yaml:"machineID"`
	Event     primitives.EventType `json:"event" yaml:"event"`
	From      []string             `json:"from" yaml:"from"`
	To        []string             `json:"to" yaml:"to"`
	Exited    []string             `json:"exited,omitempty" yaml:"exited,omitempty"`
	Entered   []string             `json:"entered,omitempty" yaml:"entered,omitempty"`
	Duration  time.Duration        `json:"duration" yaml:"duration"`
	Err       string               `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp" yaml:"timestamp"`
}
