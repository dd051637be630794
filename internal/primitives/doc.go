// Package primitives provides the foundational data structures for the widget
// statechart engine.
//
// A machine is described as data: MachineConfig holds an ordered tree of
// StateConfig nodes, each carrying transitions keyed by event type, named entry
// and exit actions, named activities and delayed transitions. Function
// references are resolved by the core interpreter at construction time, which
// keeps descriptors serializable (see LoadMachineConfig).
//
// Core invariants:
//   - Events are immutable values identified by EventType
//   - State paths are dot-separated local IDs from the root ("a.b.c")
//   - Declaration order of states and transitions is preserved and significant
package primitives
