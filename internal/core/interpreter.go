package core

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/uimachines/internal/primitives"
)

// InitEvent is the event type reported for the initial entry performed by Start.
const InitEvent primitives.Signal = "uimachine.init"

// afterEvent is queued by a timer. It only acts if its token is still live
// when it is dequeued.
type afterEvent struct {
	node  nodeID
	index int
	token uint64
	typ   primitives.EventType
}

func (e afterEvent) EventType() primitives.EventType { return e.typ }

type effects[C any] struct{ m *Machine[C] }

func (fx effects[C]) Send(evt primitives.Event)  { fx.m.enqueue(evt, false) }
func (fx effects[C]) Defer(evt primitives.Event) { fx.m.enqueue(evt, true) }

func (m *Machine[C]) enqueue(evt primitives.Event, deferred bool) {
	if evt == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != statusRunning {
		return
	}
	if deferred {
		m.deferred = append(m.deferred, evt)
		return
	}
	m.queue = append(m.queue, evt)
}

// idSet collects nodes to enter.
type idSet map[nodeID]struct{}

func (s idSet) add(id nodeID) { s[id] = struct{}{} }

func (s idSet) sorted() []nodeID {
	out := make([]nodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// process runs one dequeued event to completion. Called with proc held.
func (m *Machine[C]) process(evt primitives.Event) error {
	if ae, ok := evt.(afterEvent); ok {
		return m.processAfter(ae)
	}

	selected, err := m.selectTransitions(evt)
	if err != nil {
		m.log.Warn("guard failed", "event", evt.EventType(), "error", err)
		return err
	}
	if len(selected) == 0 {
		m.log.Debug("unmatched event", "event", evt.EventType())
		for _, o := range m.opts.observers {
			o.OnUnmatched(m.id, evt.EventType())
		}
		return nil
	}
	return m.microstep(evt, selected)
}

func (m *Machine[C]) processAfter(ae afterEvent) error {
	if !m.sched.take(ae.token) || !m.active[ae.node] {
		return nil
	}
	d := m.graph.nodes[ae.node].after[ae.index]
	if d.guard != "" {
		ok, err := m.evalGuard(&d.transition, ae, nil)
		if err != nil {
			return err
		}
		if !ok {
			m.log.Debug("delayed transition blocked by guard", "state", m.graph.nodes[ae.node].path, "guard", d.guard)
			return nil
		}
	}
	return m.microstep(ae, []*transition{&d.transition})
}

// selectTransitions picks at most one transition per active leaf, walking from
// the leaf towards the root, then drops duplicates and conflicts.
func (m *Machine[C]) selectTransitions(evt primitives.Event) ([]*transition, error) {
	typ := evt.EventType()
	cache := make(map[string]bool)
	var selected []*transition

	for _, leaf := range m.activeLeaves() {
	walk:
		for id := leaf; id != noNode; id = m.graph.nodes[id].parent {
			for _, t := range m.graph.nodes[id].on[typ] {
				ok, err := m.evalGuard(t, evt, cache)
				if err != nil {
					return nil, err
				}
				if ok {
					if !slices.Contains(selected, t) {
						selected = append(selected, t)
					}
					break walk
				}
			}
		}
	}
	return m.removeConflicts(selected), nil
}

func (m *Machine[C]) removeConflicts(ts []*transition) []*transition {
	if len(ts) < 2 {
		return ts
	}
	kept := ts[:0:0]
	var exits []idSet
	for _, t := range ts {
		ex := m.exitSetOf(t)
		conflict := false
		for _, prev := range exits {
			for id := range ex {
				if _, ok := prev[id]; ok {
					conflict = true
					break
				}
			}
			if conflict {
				break
			}
		}
		if conflict {
			m.log.Debug("dropping conflicting transition", "source", m.graph.nodes[t.source].path, "event", t.event)
			continue
		}
		kept = append(kept, t)
		exits = append(exits, ex)
	}
	return kept
}

func (m *Machine[C]) evalGuard(t *transition, evt primitives.Event, cache map[string]bool) (ok bool, err error) {
	if t.guard == "" {
		return true, nil
	}
	if v, hit := cache[t.guard]; hit {
		return v, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
		if err != nil {
			ok = false
			err = &CallbackError{Kind: KindGuard, Name: t.guard, State: m.graph.nodes[t.source].path, Event: evt.EventType(), Err: err}
			return
		}
		if cache != nil {
			cache[t.guard] = ok
		}
	}()
	return m.guards[t.guard](m.store.Get(), evt)
}

// domain is the node whose active descendants an external transition exits.
func (m *Machine[C]) domain(t *transition) nodeID {
	return m.graph.lcca([]nodeID{t.source, t.target})
}

func (m *Machine[C]) exitSetOf(t *transition) idSet {
	ex := make(idSet)
	if t.internal() {
		return ex
	}
	dom := m.domain(t)
	for id, on := range m.active {
		if on && m.graph.isAncestor(dom, nodeID(id)) {
			ex.add(nodeID(id))
		}
	}
	return ex
}

func (m *Machine[C]) defaultChild(n *node) nodeID {
	if n.initial != noNode {
		return n.initial
	}
	return n.children[0]
}

// historyTargets resolves a history node from the records made by earlier
// microsteps, falling back to its default.
func (m *Machine[C]) historyTargets(h *node) []nodeID {
	if paths, ok := m.history.Restore(h.path); ok {
		ids := make([]nodeID, 0, len(paths))
		for _, p := range paths {
			if id, found := m.graph.byPath[p]; found {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}
	if h.initial != noNode {
		return []nodeID{h.initial}
	}
	parent := m.graph.nodes[h.parent]
	if parent.kind == primitives.Parallel {
		return slices.Clone(parent.children)
	}
	return []nodeID{m.defaultChild(parent)}
}

func (m *Machine[C]) effectiveTargets(target nodeID) []nodeID {
	n := m.graph.nodes[target]
	if n.kind.IsHistory() {
		return m.historyTargets(n)
	}
	return []nodeID{target}
}

func (m *Machine[C]) addDescendants(set idSet, id nodeID) {
	set.add(id)
	n := m.graph.nodes[id]
	switch {
	case len(n.children) == 0:
	case n.kind == primitives.Parallel:
		for _, c := range n.children {
			if !m.containsDescendant(set, c) {
				m.addDescendants(set, c)
			}
		}
	default:
		if !m.containsDescendant(set, id) {
			m.addDescendants(set, m.defaultChild(n))
		}
	}
}

// addAncestors adds the proper ancestors of id below stop, completing the
// regions of any parallel ancestor.
func (m *Machine[C]) addAncestors(set idSet, id, stop nodeID) {
	for a := m.graph.nodes[id].parent; a != stop && a != noNode; a = m.graph.nodes[a].parent {
		set.add(a)
		an := m.graph.nodes[a]
		if an.kind != primitives.Parallel {
			continue
		}
		for _, c := range an.children {
			if _, in := set[c]; !in && !m.containsDescendant(set, c) {
				m.addDescendants(set, c)
			}
		}
	}
}

func (m *Machine[C]) containsDescendant(set idSet, anc nodeID) bool {
	for id := range set {
		if m.graph.isAncestor(anc, id) {
			return true
		}
	}
	return false
}

// microstep takes the selected transitions together.
func (m *Machine[C]) microstep(evt primitives.Event, ts []*transition) error {
	type target struct{ id, dom nodeID }
	exits := make(idSet)
	var targets []target
	for _, t := range ts {
		if t.internal() {
			continue
		}
		for id := range m.exitSetOf(t) {
			exits.add(id)
		}
		dom := m.domain(t)
		for _, et := range m.effectiveTargets(t.target) {
			targets = append(targets, target{et, dom})
		}
	}
	// Descend into every target before completing ancestors, so a parallel
	// region that is itself targeted does not also get its default.
	entries := make(idSet)
	for _, tg := range targets {
		m.addDescendants(entries, tg.id)
	}
	for _, tg := range targets {
		m.addAncestors(entries, tg.id, tg.dom)
	}
	exitOrder := exits.sorted()
	slices.Reverse(exitOrder)
	m.recordHistory(exitOrder)
	return m.apply(evt, ts, exitOrder, entries.sorted(), true)
}

// recordHistory stores, for every region about to lose its active child, what
// its history nodes will restore.
func (m *Machine[C]) recordHistory(exits []nodeID) {
	byParent := make(map[nodeID][]nodeID)
	for _, id := range exits {
		p := m.graph.nodes[id].parent
		if len(m.graph.nodes[p].history) > 0 {
			byParent[p] = append(byParent[p], id)
		}
	}
	for p, kids := range byParent {
		slices.Sort(kids)
		for _, hid := range m.graph.nodes[p].history {
			h := m.graph.nodes[hid]
			var paths []string
			for _, k := range kids {
				if h.kind == primitives.ShallowHistory {
					paths = append(paths, m.graph.nodes[k].path)
					continue
				}
				for _, leaf := range m.activeLeaves() {
					if leaf == k || m.graph.isAncestor(k, leaf) {
						paths = append(paths, m.graph.nodes[leaf].path)
					}
				}
			}
			m.history.Record(h.path, paths)
		}
	}
}

// apply exits, runs transition actions and enters. After the first failing
// callback the remaining callbacks are skipped but the configuration change,
// timers and activities still complete.
func (m *Machine[C]) apply(evt primitives.Event, ts []*transition, exits, entries []nodeID, runEntry bool) error {
	began := m.opts.clock.Now()
	from := m.activePaths()
	fx := effects[C]{m: m}
	var failed error
	call := func(kind CallbackKind, name, state string) {
		if failed != nil {
			return
		}
		failed = m.runAction(kind, name, state, evt, fx)
	}

	exited := make([]string, 0, len(exits))
	for _, id := range exits {
		n := m.graph.nodes[id]
		m.sched.cancel(id)
		m.sched.halt(id)
		for _, a := range n.exit {
			call(KindExit, a, n.path)
		}
		m.active[id] = false
		exited = append(exited, n.path)
	}

	for _, t := range ts {
		for _, a := range t.actions {
			call(KindAction, a, m.graph.nodes[t.source].path)
		}
	}

	entered := make([]string, 0, len(entries))
	for _, id := range entries {
		n := m.graph.nodes[id]
		m.active[id] = true
		if runEntry {
			for _, a := range n.entry {
				call(KindEntry, a, n.path)
			}
		}
		m.arm(n)
		if id != rootID {
			entered = append(entered, n.path)
		}
	}

	m.lastEvt = evt.EventType()
	to := m.activePaths()
	m.log.Debug("transition", "event", evt.EventType(), "from", from, "to", to)
	if failed != nil {
		m.log.Warn("callback failed", "event", evt.EventType(), "error", failed)
	}

	rec := TransitionRecord{
		ID:        uuid.NewString(),
		MachineID: m.id,
		Event:     evt.EventType(),
		From:      from,
		To:        to,
		Exited:    exited,
		Entered:   entered,
		Duration:  m.opts.clock.Now().Sub(began),
		Timestamp: began,
	}
	if failed != nil {
		rec.Err = failed.Error()
	}
	for _, o := range m.opts.observers {
		o.OnTransition(rec)
	}
	if m.opts.publisher != nil {
		if err := m.opts.publisher.Publish(m.baseCtx, rec); err != nil {
			m.log.Warn("publish failed", "event", rec.Event, "error", err)
			m.reportError(err)
		}
	}
	return failed
}

// arm starts the activities and schedules the delays of a node just entered.
func (m *Machine[C]) arm(n *node) {
	for _, name := range n.activities {
		act := m.impl.Activities[name]
		m.sched.start(m.baseCtx, n.id, name, m.sendAsync, func(ctx context.Context, send func(primitives.Event)) func() {
			return act(ctx, m.store.Get(), send)
		})
	}
	for _, d := range n.after {
		dur, err := m.delayOf(d)
		if err != nil {
			m.log.Warn("skipping delayed transition", "state", n.path, "delay", d.delay, "error", err)
			m.reportError(err)
			continue
		}
		typ := d.event
		owner, index := n.id, d.index
		m.sched.schedule(owner, dur, func(token uint64) {
			m.sendAsync(afterEvent{node: owner, index: index, token: token, typ: typ})
		})
	}
}

func (m *Machine[C]) delayOf(d *delayed) (dur time.Duration, err error) {
	if lit, perr := time.ParseDuration(d.delay); perr == nil {
		return lit, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackError{Kind: KindActivity, Name: d.delay, State: m.graph.nodes[d.source].path, Event: d.event, Err: &PanicError{Value: r}}
		}
	}()
	return m.impl.Delays[d.delay](m.store.Get()), nil
}

func (m *Machine[C]) runAction(kind CallbackKind, name, state string, evt primitives.Event, fx Effects) (err error) {
	action := m.impl.Actions[name]
	run := func() (runErr error) {
		defer func() {
			if r := recover(); r != nil {
				runErr = &PanicError{Value: r}
			}
		}()
		_, err := m.store.Update(func(c C) (C, error) { return action(c, evt, fx) })
		return err
	}

	if m.opts.runner != nil {
		err = m.opts.runner.Run(name, evt, run)
	} else {
		err = run()
	}
	if err == nil {
		return nil
	}
	var ce *CallbackError
	if errors.As(err, &ce) {
		return err
	}
	return &CallbackError{Kind: kind, Name: name, State: state, Event: evt.EventType(), Err: err}
}

// enterInitial performs the default entry from the root.
func (m *Machine[C]) enterInitial() error {
	entries := make(idSet)
	m.addDescendants(entries, rootID)
	return m.apply(InitEvent, nil, nil, entries.sorted(), true)
}

// enterRestored activates a restored configuration. Entry actions do not run;
// activities and delays are re-armed.
func (m *Machine[C]) enterRestored() {
	entries := make(idSet)
	for _, leaf := range m.restored {
		m.addDescendants(entries, leaf)
	}
	for _, leaf := range m.restored {
		m.addAncestors(entries, leaf, noNode)
	}
	m.restored = nil
	for _, id := range entries.sorted() {
		m.active[id] = true
		m.arm(m.graph.nodes[id])
	}
	m.log.Debug("restored", "value", m.activePaths())
}

func (m *Machine[C]) activeLeaves() []nodeID {
	var out []nodeID
	for id, on := range m.active {
		if on && id != int(rootID) && len(m.graph.nodes[id].children) == 0 {
			out = append(out, nodeID(id))
		}
	}
	return out
}

// activePaths lists the active atomic states in document order.
func (m *Machine[C]) activePaths() []string {
	leaves := m.activeLeaves()
	out := make([]string, 0, len(leaves))
	for _, id := range leaves {
		out = append(out, m.graph.nodes[id].path)
	}
	return out
}
