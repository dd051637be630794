package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

// Runtime is the part of a machine handle the helpers need. Both
// *core.Machine and the widget services satisfy it.
type Runtime[C any] interface {
	Send(evt primitives.Event) error
	Snapshot() *core.Snapshot[C]
	Subscribe(fn func(*core.Snapshot[C])) (unsubscribe func())
}

// Recorder collects every published snapshot.
type Recorder[C any] struct {
	mu    sync.Mutex
	snaps []*core.Snapshot[C]
	stop  func()
}

// Record subscribes a Recorder to rt. It unsubscribes when the test ends.
func Record[C any](t testing.TB, rt Runtime[C]) *Recorder[C] {
	t.Helper()
	r := &Recorder[C]{}
	r.stop = rt.Subscribe(func(s *core.Snapshot[C]) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.snaps = append(r.snaps, s)
	})
	t.Cleanup(r.stop)
	return r
}

// Snapshots returns a copy of what was recorded so far.
func (r *Recorder[C]) Snapshots() []*core.Snapshot[C] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*core.Snapshot[C](nil), r.snaps...)
}

// Len reports how many snapshots were published.
func (r *Recorder[C]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

// Values returns the active configuration of each recorded snapshot.
func (r *Recorder[C]) Values() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.snaps))
	for i, s := range r.snaps {
		out[i] = s.Value
	}
	return out
}

// SendAll sends each event in order and fails the test on the first error.
func SendAll[C any](t testing.TB, rt Runtime[C], events ...primitives.Event) {
	t.Helper()
	for _, evt := range events {
		require.NoError(t, rt.Send(evt), "send %s", evt.EventType())
	}
}

// RequireState fails the test unless every path is active.
func RequireState[C any](t testing.TB, rt Runtime[C], paths ...string) {
	t.Helper()
	snap := rt.Snapshot()
	for _, p := range paths {
		require.True(t, snap.Matches(p), "state %q not active in %v", p, snap.Value)
	}
}
