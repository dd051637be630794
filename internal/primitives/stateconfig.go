// Package primitives defines the foundational data structures for the statechart engine.
//
// StateConfig represents a state in the statechart, supporting atomic, compound, parallel,
// and history state types with transitions, actions, activities, delayed transitions
// and hierarchical nesting.
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// StateType defines the possible types of states in the statechart.
type StateType string

const (
	Atomic         StateType = "atomic"
	Compound       StateType = "compound"
	Parallel       StateType = "parallel"
	ShallowHistory StateType = "shallowHistory"
	DeepHistory    StateType = "deepHistory"
)

// IsHistory reports whether t is one of the pseudo-state history kinds.
func (t StateType) IsHistory() bool {
	return t == ShallowHistory || t == DeepHistory
}

// StateConfig defines a state configuration, supporting hierarchical nesting.
// For history states Initial names the sibling entered when nothing was recorded yet.
type StateConfig struct {
	ID         string                           `json:"id" yaml:"id"`
	Type       StateType                        `json:"type" yaml:"type"`
	Initial    string                           `json:"initial,omitempty" yaml:"initial,omitempty"`
	On         map[EventType][]TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
	Entry      []string                         `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit       []string                         `json:"exit,omitempty" yaml:"exit,omitempty"`
	Activities []string                         `json:"activities,omitempty" yaml:"activities,omitempty"`
	After      []DelayConfig                    `json:"after,omitempty" yaml:"after,omitempty"`
	Children   []*StateConfig                   `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewStateConfig creates a new StateConfig with ID and Type.
func NewStateConfig(id string, typ StateType) *StateConfig {
	return &StateConfig{
		ID:   id,
		Type: typ,
	}
}

// WithInitial sets the initial child state ID (for compound/parallel), or the
// default sibling for history states.
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// AddTransition adds a transition for an event. Transitions for the same event
// are tried in the order they were added.
func (s *StateConfig) AddTransition(event EventType, trans ...TransitionConfig) *StateConfig {
	if s.On == nil {
		s.On = make(map[EventType][]TransitionConfig)
	}
	s.On[event] = append(s.On[event], trans...)
	return s
}

// Transition adds a simple transition from event to target.
// Usage: .Transition("evt", "target") or .Transition("evt", "", TransitionConfig{Actions: ...}).
// When a TransitionConfig is given its empty Target is filled from target.
func (s *StateConfig) Transition(event EventType, target string, transOpts ...TransitionConfig) *StateConfig {
	trans := TransitionConfig{Target: target}
	if len(transOpts) > 0 {
		trans = transOpts[0]
		if trans.Target == "" {
			trans.Target = target
		}
	}
	return s.AddTransition(event, trans)
}

// WithEntry appends entry actions.
func (s *StateConfig) WithEntry(actions ...string) *StateConfig {
	s.Entry = append(s.Entry, actions...)
	return s
}

// WithExit appends exit actions.
func (s *StateConfig) WithExit(actions ...string) *StateConfig {
	s.Exit = append(s.Exit, actions...)
	return s
}

// WithActivities appends activities started while the state is active.
func (s *StateConfig) WithActivities(names ...string) *StateConfig {
	s.Activities = append(s.Activities, names...)
	return s
}

// WithAfter appends delayed transitions.
func (s *StateConfig) WithAfter(delays ...DelayConfig) *StateConfig {
	s.After = append(s.After, delays...)
	return s
}

// AddChild adds a child state.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// State creates and adds a child state (atomic by default, or specified type).
// Returns the child for fluent chaining: parent.State("child").Transition("evt", "target").
// Adding a child to an atomic state promotes it to compound.
func (s *StateConfig) State(id string, typ ...StateType) *StateConfig {
	t := Atomic
	if len(typ) > 0 {
		t = typ[0]
	}
	if s.Type == Atomic {
		s.Type = Compound
	}
	child := NewStateConfig(id, t)
	s.AddChild(child)
	return child
}

// Child returns the direct child with the given ID, or nil.
func (s *StateConfig) Child(id string) *StateConfig {
	for _, c := range s.Children {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Walk visits s and its descendants in document order with their full paths.
func (s *StateConfig) Walk(prefix string, fn func(path string, st *StateConfig)) {
	path := JoinPath(prefix, s.ID)
	fn(path, s)
	for _, c := range s.Children {
		c.Walk(path, fn)
	}
}

// Validate performs recursive validation of the StateConfig tree.
// Cross-references (targets, action names) are checked by the interpreter.
func (s *StateConfig) Validate() error {
	if s.ID == "" {
		return errors.New("state ID is required")
	}
	if err := validateSegment(s.ID); err != nil {
		return fmt.Errorf("state %q: %w", s.ID, err)
	}

	switch s.Type {
	case Atomic:
		if s.Initial != "" {
			return fmt.Errorf("atomic state %s cannot have Initial", s.ID)
		}
		if len(s.Children) > 0 {
			return fmt.Errorf("atomic state %s cannot have Children", s.ID)
		}
	case Compound, Parallel:
		if len(s.Children) == 0 {
			return fmt.Errorf("%s state %s requires Children", s.Type, s.ID)
		}
		if s.Type == Compound && s.Initial == "" {
			return fmt.Errorf("compound state %s requires Initial child", s.ID)
		}
		if s.Initial != "" && s.Child(s.Initial) == nil {
			return fmt.Errorf("initial child %q not found in children of %s", s.Initial, s.ID)
		}
	case ShallowHistory, DeepHistory:
		if len(s.Children) > 0 {
			return fmt.Errorf("history state %s cannot have Children (restored at runtime)", s.ID)
		}
		if len(s.On) > 0 || len(s.Entry) > 0 || len(s.Exit) > 0 || len(s.Activities) > 0 || len(s.After) > 0 {
			return fmt.Errorf("history state %s cannot carry behavior", s.ID)
		}
	default:
		return fmt.Errorf("invalid state type %q for state %s", s.Type, s.ID)
	}

	for event, transitions := range s.On {
		if strings.TrimSpace(string(event)) == "" {
			return fmt.Errorf("empty event name in On map for state %s", s.ID)
		}
		for i := range transitions {
			if err := transitions[i].Validate(); err != nil {
				return fmt.Errorf("state %s, event %q, transition %d: %w", s.ID, event, i, err)
			}
		}
	}
	for i := range s.After {
		if err := s.After[i].Validate(); err != nil {
			return fmt.Errorf("state %s, delayed transition %d: %w", s.ID, i, err)
		}
	}

	seen := make(map[string]struct{}, len(s.Children))
	for i, child := range s.Children {
		if _, dup := seen[child.ID]; dup {
			return fmt.Errorf("%w: child %q in %s", ErrDuplicateState, child.ID, s.ID)
		}
		seen[child.ID] = struct{}{}
		if err := child.Validate(); err != nil {
			return fmt.Errorf("child %d (%s) of %s failed validation: %w", i, child.ID, s.ID, err)
		}
	}

	return nil
}
