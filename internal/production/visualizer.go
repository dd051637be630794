package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

// DefaultVisualizer renders descriptors as Graphviz DOT.
type DefaultVisualizer struct{}

var _ core.Visualizer = DefaultVisualizer{}

// Edge represents a transition edge between two state paths.
type Edge struct {
	From  string
	To    string
	Label string
	// Internal edges have no target and are drawn as dashed self loops.
	Internal bool
}

// ExportDOT generates Graphviz DOT source for the statechart. Nodes are keyed
// by full path. Active atomic states are filled green, their active
// ancestors orange.
func (v DefaultVisualizer) ExportDOT(config primitives.MachineConfig, current []string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", config.ID)
	buf.WriteString("  rankdir=LR;\n  compound=true;\n  node [shape=box, fontsize=10, style=rounded];\n  edge [fontsize=9];\n")

	active := activeSet(current)
	initial := config.Initial
	if initial != "" {
		buf.WriteString("  \"__start\" [shape=point];\n")
		fmt.Fprintf(&buf, "  \"__start\" -> %q;\n", initial)
	}
	for _, st := range config.States {
		renderState(&buf, st, "", active, 1)
	}
	for _, e := range CollectEdges(config) {
		switch {
		case e.Internal:
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed];\n", e.From, e.From, e.Label)
		case e.From == "":
			fmt.Fprintf(&buf, "  \"__start\" -> %q [label=%q, style=dotted];\n", e.To, e.Label)
		default:
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, e.Label)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the machine config to JSON.
func (v DefaultVisualizer) ExportJSON(config primitives.MachineConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

func activeSet(current []string) map[string]bool {
	active := make(map[string]bool)
	for _, leaf := range current {
		segs := primitives.SplitPath(leaf)
		for i := range segs {
			active[strings.Join(segs[:i+1], ".")] = true
		}
	}
	return active
}

// CollectEdges lists every transition of the descriptor in document order.
// Root-level transitions have an empty From.
func CollectEdges(config primitives.MachineConfig) []Edge {
	var edges []Edge
	add := func(from string, on map[primitives.EventType][]primitives.TransitionConfig) {
		for _, evt := range primitives.SortedEvents(on) {
			for _, tc := range on[evt] {
				edges = append(edges, edge(from, string(evt), tc))
			}
		}
	}
	add("", config.On)
	config.Walk(func(path string, st *primitives.StateConfig) {
		add(path, st.On)
		for _, d := range st.After {
			edges = append(edges, edge(path, "after "+d.Delay, d.Transition()))
		}
	})
	return edges
}

func edge(from, label string, tc primitives.TransitionConfig) Edge {
	if tc.Guard != "" {
		label += " [" + tc.Guard + "]"
	}
	return Edge{From: from, To: tc.Target, Label: label, Internal: tc.Target == "" && from != ""}
}

// renderState recursively renders states; compound and parallel states become clusters.
func renderState(buf *bytes.Buffer, st *primitives.StateConfig, parent string, active map[string]bool, depth int) {
	path := primitives.JoinPath(parent, st.ID)
	indent := strings.Repeat("  ", depth)

	if len(st.Children) == 0 {
		attrs := fmt.Sprintf("label=%q", st.ID)
		switch {
		case st.Type.IsHistory():
			label := "H"
			if st.Type == primitives.DeepHistory {
				label = "H*"
			}
			attrs = fmt.Sprintf("label=%q, shape=circle", label)
		case active[path]:
			attrs += ", style=\"rounded,filled\", fillcolor=lightgreen"
		}
		fmt.Fprintf(buf, "%s%q [%s];\n", indent, path, attrs)
		return
	}

	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+path)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, fmt.Sprintf("%s (%s)", st.ID, st.Type))
	switch {
	case active[path]:
		fmt.Fprintf(buf, "%s  style=filled; fillcolor=orange;\n", indent)
	case st.Type == primitives.Parallel:
		fmt.Fprintf(buf, "%s  style=filled; fillcolor=lightblue;\n", indent)
	}
	fmt.Fprintf(buf, "%s  %q [label=%q, shape=ellipse];\n", indent, path, st.ID)
	for _, c := range st.Children {
		renderState(buf, c, path, active, depth+1)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}
