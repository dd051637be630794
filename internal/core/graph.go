package core

import (
	"fmt"
	"maps"
	"slices"

	"github.com/comalice/uimachines/internal/primitives"
)

// nodeID addresses a node in the Graph arena. IDs are assigned in document
// order (pre-order), so a parent always has a smaller ID than its children and
// sorting by ID yields entry order.
type nodeID int

const noNode nodeID = -1

type node struct {
	id       nodeID
	key      string
	path     string
	kind     primitives.StateType
	parent   nodeID
	children []nodeID
	// initial is the default child of a compound node, or the fallback sibling
	// of a history node.
	initial    nodeID
	history    []nodeID
	on         map[primitives.EventType][]*transition
	entry      []string
	exit       []string
	activities []string
	after      []*delayed
}

type transition struct {
	source  nodeID
	event   primitives.EventType
	target  nodeID
	guard   string
	actions []string
}

func (n *node) events() []primitives.EventType {
	return slices.Sorted(maps.Keys(n.on))
}

func (t *transition) internal() bool { return t.target == noNode }

type delayed struct {
	transition
	delay string
	index int
}

// Graph is the compiled, index-addressed form of a MachineConfig.
type Graph struct {
	cfg    primitives.MachineConfig
	nodes  []*node
	byPath map[string]nodeID
}

const rootID nodeID = 0

// Compile validates cfg and builds its arena graph.
func Compile(cfg primitives.MachineConfig) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Machine: cfg.ID, Err: err}
	}

	g := &Graph{cfg: cfg, byPath: make(map[string]nodeID)}
	root := cfg.Root()
	sources := []*primitives.StateConfig{root}
	g.nodes = append(g.nodes, &node{
		id:      rootID,
		key:     cfg.ID,
		kind:    root.Type,
		parent:  noNode,
		initial: noNode,
	})
	for _, child := range root.Children {
		if err := g.add(rootID, child, &sources); err != nil {
			return nil, err
		}
	}

	for id, src := range sources {
		if err := g.link(nodeID(id), src); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) add(parent nodeID, sc *primitives.StateConfig, sources *[]*primitives.StateConfig) error {
	path := primitives.JoinPath(g.nodes[parent].path, sc.ID)
	if _, dup := g.byPath[path]; dup {
		return &ConfigError{Machine: g.cfg.ID, Path: path, Err: ErrDuplicateState}
	}
	id := nodeID(len(g.nodes))
	n := &node{
		id:         id,
		key:        sc.ID,
		path:       path,
		kind:       sc.Type,
		parent:     parent,
		initial:    noNode,
		entry:      sc.Entry,
		exit:       sc.Exit,
		activities: sc.Activities,
	}
	g.nodes = append(g.nodes, n)
	*sources = append(*sources, sc)
	g.byPath[path] = id

	p := g.nodes[parent]
	if sc.Type.IsHistory() {
		p.history = append(p.history, id)
	} else {
		p.children = append(p.children, id)
	}
	for _, child := range sc.Children {
		if err := g.add(id, child, sources); err != nil {
			return err
		}
	}
	return nil
}

// link resolves initial children and transition targets once every node exists.
func (g *Graph) link(id nodeID, sc *primitives.StateConfig) error {
	n := g.nodes[id]
	fail := func(err error) error {
		return &ConfigError{Machine: g.cfg.ID, Path: n.path, Err: err}
	}

	if sc.Initial != "" {
		scope := n.path
		if n.kind.IsHistory() {
			scope = g.nodes[n.parent].path
		}
		initial, ok := g.byPath[primitives.JoinPath(scope, sc.Initial)]
		if !ok || g.nodes[initial].kind.IsHistory() {
			return fail(fmt.Errorf("%w: initial %q", ErrUnknownTarget, sc.Initial))
		}
		n.initial = initial
	}

	resolve := func(target string) (nodeID, error) {
		if target == "" {
			return noNode, nil
		}
		tid, ok := g.byPath[target]
		if !ok {
			return noNode, fail(fmt.Errorf("%w %q", ErrUnknownTarget, target))
		}
		return tid, nil
	}

	for _, event := range primitives.SortedEvents(sc.On) {
		if n.on == nil {
			n.on = make(map[primitives.EventType][]*transition)
		}
		for _, tc := range sc.On[event] {
			target, err := resolve(tc.Target)
			if err != nil {
				return err
			}
			n.on[event] = append(n.on[event], &transition{
				source:  id,
				event:   event,
				target:  target,
				guard:   tc.Guard,
				actions: tc.Actions,
			})
		}
	}
	for i, dc := range sc.After {
		target, err := resolve(dc.Target)
		if err != nil {
			return err
		}
		n.after = append(n.after, &delayed{
			transition: transition{
				source:  id,
				event:   afterEventType(n.path, i),
				target:  target,
				guard:   dc.Guard,
				actions: dc.Actions,
			},
			delay: dc.Delay,
			index: i,
		})
	}
	return nil
}

// Config returns the descriptor the graph was compiled from.
func (g *Graph) Config() primitives.MachineConfig { return g.cfg }

// Paths returns every state path in document order.
func (g *Graph) Paths() []string {
	out := make([]string, 0, len(g.nodes)-1)
	for _, n := range g.nodes[1:] {
		out = append(out, n.path)
	}
	return out
}

// Events returns the event types handled anywhere in the graph, in lexical order.
func (g *Graph) Events() []primitives.EventType {
	seen := make(map[primitives.EventType]struct{})
	for _, n := range g.nodes {
		for e := range n.on {
			seen[e] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (g *Graph) isAncestor(anc, n nodeID) bool {
	for p := g.nodes[n].parent; p != noNode; p = g.nodes[p].parent {
		if p == anc {
			return true
		}
	}
	return false
}

// lcca returns the least common compound ancestor of the given nodes: the
// nearest proper ancestor of the first one that is compound (or the root) and
// contains all the others.
func (g *Graph) lcca(ids []nodeID) nodeID {
	for anc := g.nodes[ids[0]].parent; anc != noNode; anc = g.nodes[anc].parent {
		if anc != rootID && g.nodes[anc].kind != primitives.Compound {
			continue
		}
		all := true
		for _, other := range ids[1:] {
			if !g.isAncestor(anc, other) {
				all = false
				break
			}
		}
		if all {
			return anc
		}
	}
	return rootID
}

func afterEventType(path string, index int) primitives.EventType {
	return primitives.EventType(fmt.Sprintf("after#%s#%d", path, index))
}
