// Package primitives defines the foundational data structures for the statechart engine.
// TransitionConfig defines transitions between states with guards and actions.
//
// Targets are dot-separated paths from the machine root (e.g., "editing.tag").
// Segments may contain ':' so widget states read naturally ("focused:input").
// Guards and Actions are names resolved against the machine implementations.
// Candidates for the same event are evaluated in declaration order.
package primitives

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrInvalidConfig marks structurally malformed descriptors.
	ErrInvalidConfig = errors.New("invalid machine config")
	// ErrDuplicateState marks two states resolving to the same path.
	ErrDuplicateState = errors.New("duplicate state")
	// ErrUnknownTarget marks a transition target that names no state.
	ErrUnknownTarget = errors.New("unknown target state")
)

// TransitionConfig defines a single transition triggered by an event.
// An empty Target makes the transition internal: actions run, no state is exited.
type TransitionConfig struct {
	Target  string   `json:"target,omitempty" yaml:"target,omitempty"`
	Guard   string   `json:"guard,omitempty" yaml:"guard,omitempty"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Internal reports whether the transition has no target.
func (t *TransitionConfig) Internal() bool { return t.Target == "" }

// Validate checks TransitionConfig fields and target path syntax.
func (t *TransitionConfig) Validate() error {
	if t.Target != "" {
		if err := ValidatePath(t.Target); err != nil {
			return err
		}
	}
	for i, a := range t.Actions {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("empty action name at index %d", i)
		}
	}
	return nil
}

// DelayConfig is a transition taken when its state has been active for Delay.
// Delay is either a Go duration literal ("300ms") or the name of a delay
// function registered with the machine.
type DelayConfig struct {
	Delay   string   `json:"delay" yaml:"delay"`
	Target  string   `json:"target,omitempty" yaml:"target,omitempty"`
	Guard   string   `json:"guard,omitempty" yaml:"guard,omitempty"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// Transition returns the delayed transition's event-less transition part.
func (d *DelayConfig) Transition() TransitionConfig {
	return TransitionConfig{Target: d.Target, Guard: d.Guard, Actions: d.Actions}
}

// Literal returns the parsed duration when Delay is a duration literal.
func (d *DelayConfig) Literal() (time.Duration, bool) {
	dur, err := time.ParseDuration(d.Delay)
	if err != nil {
		return 0, false
	}
	return dur, true
}

// Validate checks the delay spec.
func (d *DelayConfig) Validate() error {
	if strings.TrimSpace(d.Delay) == "" {
		return errors.New("delay is required")
	}
	if dur, ok := d.Literal(); ok && dur < 0 {
		return fmt.Errorf("negative delay %q", d.Delay)
	}
	tr := d.Transition()
	return tr.Validate()
}

// JoinPath appends a local ID to a parent path.
func JoinPath(parent, id string) string {
	if parent == "" {
		return id
	}
	return parent + "." + id
}

// SplitPath splits a state path into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// ValidatePath checks the syntax of a dot-separated state path.
func ValidatePath(path string) error {
	for i, seg := range strings.Split(path, ".") {
		if err := validateSegment(seg); err != nil {
			return fmt.Errorf("invalid path %q at segment %d: %w", path, i, err)
		}
	}
	return nil
}

func validateSegment(seg string) error {
	if seg == "" {
		return errors.New("empty segment")
	}
	for _, r := range seg {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '_', r == '-', r == ':':
		default:
			return fmt.Errorf("invalid character %q", r)
		}
	}
	return nil
}
