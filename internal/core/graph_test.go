package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/uimachines/internal/primitives"
)

func formConfig() primitives.MachineConfig {
	b := primitives.NewMachineBuilder("form", "editing")
	editing := b.Compound("editing", "name")
	editing.State("name").Transition("NEXT", "editing.email")
	editing.State("email").Transition("HELP", "help")
	editing.State("prior", primitives.ShallowHistory).WithInitial("name")
	b.State("help").Transition("BACK", "editing.prior")
	p := b.ParallelState("toolbar")
	p.State("bold")
	p.State("italic")
	b.On("TOOLS", primitives.TransitionConfig{Target: "toolbar"})
	return b.MustBuild()
}

func TestCompile_PreOrderIDs(t *testing.T) {
	g, err := Compile(formConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"editing", "editing.name", "editing.email", "editing.prior",
		"help", "toolbar", "toolbar.bold", "toolbar.italic",
	}, g.Paths())

	for _, n := range g.nodes[1:] {
		assert.Less(t, n.parent, n.id, "parent of %s must precede it", n.path)
	}

	editing := g.nodes[g.byPath["editing"]]
	assert.Equal(t, g.byPath["editing.name"], editing.initial)
	assert.Equal(t, []nodeID{g.byPath["editing.prior"]}, editing.history)
	assert.NotContains(t, editing.children, g.byPath["editing.prior"])

	prior := g.nodes[g.byPath["editing.prior"]]
	assert.Equal(t, g.byPath["editing.name"], prior.initial, "history default resolves among siblings")

	assert.Equal(t, []primitives.EventType{"BACK", "HELP", "NEXT", "TOOLS"}, g.Events())
}

func TestCompile_Errors(t *testing.T) {
	cfg := formConfig()
	cfg.States[1].On["BACK"][0].Target = "nowhere"

	_, err := Compile(cfg)
	require.Error(t, err)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, ErrUnknownTarget)
	assert.Equal(t, "form", ce.Machine)
}

func TestGraph_LCCA(t *testing.T) {
	g, err := Compile(formConfig())
	require.NoError(t, err)
	id := func(p string) nodeID { return g.byPath[p] }

	tests := []struct {
		name string
		ids  []nodeID
		want nodeID
	}{
		{"siblings", []nodeID{id("editing.name"), id("editing.email")}, id("editing")},
		{"across top level", []nodeID{id("editing.email"), id("help")}, rootID},
		{"self", []nodeID{id("editing.name"), id("editing.name")}, id("editing")},
		{"parallel is skipped", []nodeID{id("toolbar.bold"), id("toolbar.italic")}, rootID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.lcca(tt.ids))
		})
	}
}

func TestAfterEventType(t *testing.T) {
	assert.Equal(t, primitives.EventType("after#before:spin#0"), afterEventType("before:spin", 0))
}
