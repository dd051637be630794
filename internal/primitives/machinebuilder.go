// Package primitives includes builder helpers for MachineConfig.
package primitives

// MachineBuilder builds hierarchical MachineConfig fluently.
// Top-level states are created with State/Compound/Parallel/History and then
// configured with the StateConfig fluent methods.
type MachineBuilder struct {
	config *MachineConfig
}

// NewMachineBuilder creates a new MachineBuilder for a compound root.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return &MachineBuilder{
		config: &MachineConfig{ID: id, Initial: initial},
	}
}

// Parallel turns the root into a parallel region: all top-level states are active together.
func (b *MachineBuilder) Parallel() *MachineBuilder {
	b.config.Type = Parallel
	b.config.Initial = ""
	return b
}

// Version pins the descriptor version instead of the computed hash.
func (b *MachineBuilder) Version(v string) *MachineBuilder {
	b.config.Version = v
	return b
}

// On adds a root-level transition, handled in every state unless a deeper
// state handles the event first.
func (b *MachineBuilder) On(event EventType, trans ...TransitionConfig) *MachineBuilder {
	if b.config.On == nil {
		b.config.On = make(map[EventType][]TransitionConfig)
	}
	b.config.On[event] = append(b.config.On[event], trans...)
	return b
}

// State adds an atomic top-level state. Adding children to it later promotes it to compound.
func (b *MachineBuilder) State(id string) *StateConfig {
	return b.add(NewStateConfig(id, Atomic))
}

// Compound adds a compound top-level state with the given initial child.
func (b *MachineBuilder) Compound(id, initial string) *StateConfig {
	return b.add(NewStateConfig(id, Compound).WithInitial(initial))
}

// ParallelState adds a parallel top-level state.
func (b *MachineBuilder) ParallelState(id string) *StateConfig {
	return b.add(NewStateConfig(id, Parallel))
}

// History adds a top-level history state recording the root's most recently
// exited child. fallback is entered when nothing was recorded.
func (b *MachineBuilder) History(id string, deep bool, fallback string) *StateConfig {
	typ := ShallowHistory
	if deep {
		typ = DeepHistory
	}
	return b.add(NewStateConfig(id, typ).WithInitial(fallback))
}

func (b *MachineBuilder) add(s *StateConfig) *StateConfig {
	b.config.States = append(b.config.States, s)
	return s
}

// Build finalizes and validates the config.
func (b *MachineBuilder) Build() (MachineConfig, error) {
	if err := b.config.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return *b.config, nil
}

// MustBuild is Build for descriptors declared in code; it panics on invalid input.
func (b *MachineBuilder) MustBuild() MachineConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
