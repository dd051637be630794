// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

// Counter is the context of the generated machines.
type Counter struct {
	Ticks int `yaml:"ticks"`
}

// CounterImpl counts every "count" action.
func CounterImpl() core.Implementations[Counter] {
	return core.Implementations[Counter]{
		Actions: map[string]core.Action[Counter]{
			"count": func(c Counter, _ primitives.Event, _ core.Effects) (Counter, error) {
				c.Ticks++
				return c, nil
			},
		},
		Guards: map[string]core.Guard[Counter]{
			"never": func(Counter, primitives.Event) bool { return false },
		},
	}
}

// NewCounterMachine builds and starts a quiet machine for config.
func NewCounterMachine(config primitives.MachineConfig) (*core.Machine[Counter], error) {
	m, err := core.NewMachine(config, CounterImpl(), Counter{}, core.WithLogger(log.New(io.Discard)))
	if err != nil {
		return nil, err
	}
	return m, m.Start()
}

// GenFlatConfig creates a flat machine with n atomic states cycling via "tick" events.
func GenFlatConfig(n int) primitives.MachineConfig {
	n = max(n, 1)
	b := primitives.NewMachineBuilder(fmt.Sprintf("flat_%d", n), "s0")
	for i := range n {
		b.State(fmt.Sprintf("s%d", i)).
			AddTransition("tick", primitives.TransitionConfig{Target: fmt.Sprintf("s%d", (i+1)%n), Actions: []string{"count"}})
	}
	return b.MustBuild()
}

// GenDeepConfig nests depth compound states and flips between two leaves at the bottom.
func GenDeepConfig(depth int) primitives.MachineConfig {
	depth = max(depth, 1)
	b := primitives.NewMachineBuilder(fmt.Sprintf("deep_%d", depth), "c0")
	parent := b.Compound("c0", "c1")
	path := "c0"
	for i := 1; i < depth; i++ {
		initial := fmt.Sprintf("c%d", i+1)
		if i == depth-1 {
			initial = "leaf1"
		}
		parent = parent.State(fmt.Sprintf("c%d", i), primitives.Compound).WithInitial(initial)
		path = primitives.JoinPath(path, fmt.Sprintf("c%d", i))
	}
	if depth == 1 {
		parent.WithInitial("leaf1")
	}
	parent.State("leaf1").Transition("tick", primitives.JoinPath(path, "leaf2"))
	parent.State("leaf2").Transition("tick", primitives.JoinPath(path, "leaf1"))
	return b.MustBuild()
}

// GenWideTransitions creates one state with n guarded "tick" candidates; only
// the last, unguarded one fires.
func GenWideTransitions(n int) primitives.MachineConfig {
	n = max(n, 1)
	b := primitives.NewMachineBuilder(fmt.Sprintf("wide_%d", n), "main")
	main := b.State("main")
	for i := range n - 1 {
		target := fmt.Sprintf("target%d", i)
		main.AddTransition("tick", primitives.TransitionConfig{Target: target, Guard: "never"})
		b.State(target).Transition("tick", "main")
	}
	main.AddTransition("tick", primitives.TransitionConfig{Actions: []string{"count"}})
	return b.MustBuild()
}

// GenRecordYAML returns the YAML record of a machine after one tick.
func GenRecordYAML(config primitives.MachineConfig) []byte {
	m, err := NewCounterMachine(config)
	if err != nil {
		panic(err)
	}
	defer m.Stop()
	if err := m.Send(primitives.Signal("tick")); err != nil {
		panic(err)
	}
	data, err := yaml.Marshal(m.Record())
	if err != nil {
		panic(err)
	}
	return data
}
