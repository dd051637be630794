// Package primitives defines the foundational data structures for the statechart engine.
//
// MachineConfig represents the top-level configuration of a statechart machine:
// the machine ID, the kind of its implicit root, root-level transitions and the
// ordered list of top-level states. Validation ensures ID/Initial presence, state
// validity, target existence, and no orphans.
package primitives

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// MachineConfig defines the complete statechart configuration.
// The root behaves like a compound state (or a parallel one when Type is
// Parallel) whose On transitions apply in every state.
type MachineConfig struct {
	Version string                           `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string                           `json:"id" yaml:"id"`
	Type    StateType                        `json:"type,omitempty" yaml:"type,omitempty"`
	Initial string                           `json:"initial,omitempty" yaml:"initial,omitempty"`
	On      map[EventType][]TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
	States  []*StateConfig                   `json:"states" yaml:"states"`
}

// RootType returns the effective root kind.
func (m *MachineConfig) RootType() StateType {
	if m.Type == "" {
		return Compound
	}
	return m.Type
}

// Root returns the implicit root as a StateConfig sharing m's states.
func (m *MachineConfig) Root() *StateConfig {
	return &StateConfig{
		ID:       m.ID,
		Type:     m.RootType(),
		Initial:  m.Initial,
		On:       m.On,
		Children: m.States,
	}
}

// Validate validates the entire machine configuration:
// - Non-empty ID, and Initial for a compound root
// - Initial exists in States
// - All individual states validate (recursive)
// - All transition targets exist
// - No orphaned top-level states (all reachable from Initial or a transition)
func (m *MachineConfig) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: machine ID is required", ErrInvalidConfig)
	}
	switch m.RootType() {
	case Compound, Parallel:
	default:
		return fmt.Errorf("%w: root type %q must be compound or parallel", ErrInvalidConfig, m.Type)
	}
	if len(m.States) == 0 {
		return fmt.Errorf("%w: states are required and cannot be empty", ErrInvalidConfig)
	}
	if m.RootType() == Compound {
		if m.Initial == "" {
			return fmt.Errorf("%w: initial state ID is required", ErrInvalidConfig)
		}
		if m.state(m.Initial) == nil {
			return fmt.Errorf("%w: initial state %q not found in states", ErrInvalidConfig, m.Initial)
		}
	}

	seen := make(map[string]struct{}, len(m.States))
	for _, state := range m.States {
		if state == nil {
			return fmt.Errorf("%w: nil state", ErrInvalidConfig)
		}
		if _, dup := seen[state.ID]; dup {
			return fmt.Errorf("%w: top-level state %q", ErrDuplicateState, state.ID)
		}
		seen[state.ID] = struct{}{}
		if err := state.Validate(); err != nil {
			if errors.Is(err, ErrDuplicateState) {
				return fmt.Errorf("state %q: %w", state.ID, err)
			}
			return fmt.Errorf("%w: state %q: %w", ErrInvalidConfig, state.ID, err)
		}
	}

	// Validate transition targets exist
	var targetErr error
	m.eachTransition(func(source string, event EventType, trans TransitionConfig) {
		if targetErr != nil || trans.Target == "" {
			return
		}
		if err := ValidatePath(trans.Target); err != nil {
			targetErr = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			return
		}
		if _, err := m.FindState(trans.Target); err != nil {
			targetErr = fmt.Errorf("%w %q (state %q, event %q)", ErrUnknownTarget, trans.Target, source, event)
		}
	})
	if targetErr != nil {
		return targetErr
	}

	// Check no orphaned states via reachability
	visited := make(map[string]bool)
	if m.RootType() == Parallel {
		for _, s := range m.States {
			visited[s.ID] = true
		}
	} else {
		visited[m.Initial] = true
	}
	m.eachTransition(func(_ string, _ EventType, trans TransitionConfig) {
		if trans.Target != "" {
			visited[SplitPath(trans.Target)[0]] = true
		}
	})
	for _, s := range m.States {
		if !visited[s.ID] {
			return fmt.Errorf("%w: orphaned state %q (not reachable from initial %q)", ErrInvalidConfig, s.ID, m.Initial)
		}
	}

	return nil
}

// eachTransition visits root, state and delayed transitions in document order.
// Delayed transitions are reported with the event "after(<delay>)".
func (m *MachineConfig) eachTransition(fn func(source string, event EventType, trans TransitionConfig)) {
	visit := func(path string, st *StateConfig) {
		for _, event := range SortedEvents(st.On) {
			for _, trans := range st.On[event] {
				fn(path, event, trans)
			}
		}
		for _, d := range st.After {
			fn(path, EventType("after("+d.Delay+")"), d.Transition())
		}
	}
	for _, event := range SortedEvents(m.On) {
		for _, trans := range m.On[event] {
			fn("", event, trans)
		}
	}
	for _, s := range m.States {
		s.Walk("", visit)
	}
}

func (m *MachineConfig) state(id string) *StateConfig {
	for _, s := range m.States {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// FindState resolves a state by hierarchical path (e.g. "parent.child.grandchild").
func (m *MachineConfig) FindState(path string) (*StateConfig, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	segments := SplitPath(path)
	current := m.state(segments[0])
	if current == nil {
		return nil, fmt.Errorf("state %q not found", segments[0])
	}
	for i := 1; i < len(segments); i++ {
		child := current.Child(segments[i])
		if child == nil {
			return nil, fmt.Errorf("child %q not found in %q", segments[i], JoinPathSegments(segments[:i]))
		}
		current = child
	}
	return current, nil
}

// Walk visits every state in document order with its full path.
func (m *MachineConfig) Walk(fn func(path string, st *StateConfig)) {
	for _, s := range m.States {
		s.Walk("", fn)
	}
}

// JoinPathSegments is the inverse of SplitPath.
func JoinPathSegments(segments []string) string {
	path := ""
	for _, s := range segments {
		path = JoinPath(path, s)
	}
	return path
}

// SortedEvents returns the keys of an On map in lexical order, so that
// anything iterating a descriptor does so deterministically.
func SortedEvents(on map[EventType][]TransitionConfig) []EventType {
	if len(on) == 0 {
		return nil
	}
	keys := make([]EventType, 0, len(on))
	for k := range on {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// LoadMachineConfig decodes a YAML (or JSON, which is YAML) descriptor and validates it.
func LoadMachineConfig(r io.Reader) (MachineConfig, error) {
	var cfg MachineConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return MachineConfig{}, fmt.Errorf("yaml decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return cfg, nil
}

// EncodeYAML writes the descriptor as YAML.
func (m *MachineConfig) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
