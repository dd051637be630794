package extensibility

import (
	"sync"
	"time"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

// ChannelEventSource is an EventSource implementation backed by a Go channel.
// Provides a simple way to feed external events into the Machine via Send().
type ChannelEventSource struct {
	ch chan primitives.Event
}

var _ core.EventSource = (*ChannelEventSource)(nil)

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// TickerEventSource emits the same event every interval of its clock. Ticks
// are dropped while the buffer is full.
type TickerEventSource struct {
	mu      sync.Mutex
	ch      chan primitives.Event
	clock   primitives.Clock
	every   time.Duration
	evt     primitives.Event
	timer   primitives.Timer
	stopped bool
	dropped int
}

// NewTickerEventSource starts ticking immediately. A nil clock uses the wall clock.
func NewTickerEventSource(evt primitives.Event, every time.Duration, clock primitives.Clock) *TickerEventSource {
	if clock == nil {
		clock = primitives.SystemClock{}
	}
	t := &TickerEventSource{
		ch:    make(chan primitives.Event, 10),
		clock: clock,
		every: every,
		evt:   evt,
	}
	t.mu.Lock()
	t.arm()
	t.mu.Unlock()
	return t
}

func (t *TickerEventSource) arm() {
	t.timer = t.clock.AfterFunc(t.every, t.tick)
}

func (t *TickerEventSource) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	select {
	case t.ch <- t.evt:
	default:
		t.dropped++
	}
	t.arm()
}

// Events returns the event channel.
func (t *TickerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Dropped reports how many ticks were lost to a full buffer.
func (t *TickerEventSource) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Stop stops the ticker and closes the channel. It is safe to call twice.
func (t *TickerEventSource) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	t.timer.Stop()
	close(t.ch)
}
