// Package testutil holds helpers for driving machines deterministically in tests.
package testutil

import (
	"slices"
	"sync"
	"time"

	"github.com/comalice/uimachines/internal/primitives"
)

// ManualClock is a primitives.Clock that only moves when Advance is called.
// Callbacks never run inside AfterFunc, even for zero delays.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	clock *ManualClock
	at    time.Time
	seq   uint64
	fn    func()
	done  bool
}

var _ primitives.Clock = (*ManualClock)(nil)

// NewManualClock returns a clock reading start. A zero start uses a fixed date.
func NewManualClock(start time.Time) *ManualClock {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) primitives.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.clock.timers = slices.DeleteFunc(t.clock.timers, func(o *manualTimer) bool { return o == t })
	return true
}

// Advance moves the clock forward by d and runs every timer that comes due, in
// deadline order. Timers armed by those callbacks run too when they fall
// within the window. It returns the number of callbacks run.
func (c *ManualClock) Advance(d time.Duration) int {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	fired := 0
	for {
		c.mu.Lock()
		next := c.nextDue(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return fired
		}
		next.done = true
		c.timers = slices.DeleteFunc(c.timers, func(o *manualTimer) bool { return o == next })
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.fn()
		fired++
	}
}

func (c *ManualClock) nextDue(target time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range c.timers {
		if t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// Pending reports the number of armed timers.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
