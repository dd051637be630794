package core

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/uimachines/internal/primitives"
)

// stubClock records callbacks instead of running them.
type stubClock struct {
	fns []func()
}

type stubTimer struct{ stopped bool }

func (t *stubTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

func (c *stubClock) Now() time.Time { return time.Time{} }

func (c *stubClock) AfterFunc(_ time.Duration, f func()) primitives.Timer {
	c.fns = append(c.fns, f)
	return &stubTimer{}
}

func newTestScheduler(onError func(error)) (*scheduler, *stubClock) {
	clock := &stubClock{}
	return newScheduler(clock, log.New(io.Discard), onError), clock
}

func TestScheduler_TakeIsAtMostOnce(t *testing.T) {
	s, clock := newTestScheduler(nil)

	var fired []uint64
	tok := s.schedule(3, time.Second, func(token uint64) { fired = append(fired, token) })
	require.Equal(t, 1, s.pending())

	clock.fns[0]()
	assert.Equal(t, []uint64{tok}, fired)
	assert.True(t, s.take(tok))
	assert.False(t, s.take(tok))
	assert.Equal(t, 0, s.pending())
}

func TestScheduler_CancelBeatsTake(t *testing.T) {
	s, _ := newTestScheduler(nil)
	a := s.schedule(1, time.Second, func(uint64) {})
	b := s.schedule(1, time.Second, func(uint64) {})
	other := s.schedule(2, time.Second, func(uint64) {})

	assert.Equal(t, 2, s.cancel(1))
	assert.False(t, s.take(a))
	assert.False(t, s.take(b))
	assert.True(t, s.take(other))
	assert.Equal(t, 0, s.cancel(1))
}

func TestScheduler_ActivityStopsOnce(t *testing.T) {
	s, _ := newTestScheduler(nil)

	var stops, delivered atomic.Int32
	var captured func(primitives.Event)
	var actx context.Context
	s.start(context.Background(), 4, "listen", func(primitives.Event) { delivered.Add(1) },
		func(ctx context.Context, send func(primitives.Event)) func() {
			actx, captured = ctx, send
			return func() { stops.Add(1) }
		})
	require.Equal(t, 1, s.running())

	captured(primitives.Signal("PING"))
	assert.Equal(t, int32(1), delivered.Load())

	assert.Equal(t, 1, s.halt(4))
	assert.Equal(t, 0, s.halt(4))
	s.shutdown()

	assert.Equal(t, int32(1), stops.Load())
	assert.Error(t, actx.Err(), "activity context is cancelled on stop")

	captured(primitives.Signal("PING"))
	assert.Equal(t, int32(1), delivered.Load(), "send goes quiet after stop")
}

func TestScheduler_RefusesWorkAfterShutdown(t *testing.T) {
	s, clock := newTestScheduler(nil)
	s.shutdown()

	assert.Equal(t, uint64(0), s.schedule(1, time.Second, func(uint64) {}))
	assert.Empty(t, clock.fns)

	var ran bool
	s.start(context.Background(), 1, "late", func(primitives.Event) {},
		func(context.Context, func(primitives.Event)) func() {
			ran = true
			return nil
		})
	assert.False(t, ran)
	assert.Equal(t, 0, s.pending())
	assert.Equal(t, 0, s.running())
}

func TestScheduler_PanicsAreRecovered(t *testing.T) {
	var reported []error
	s, _ := newTestScheduler(func(err error) { reported = append(reported, err) })

	s.start(context.Background(), 1, "bad-start", func(primitives.Event) {},
		func(context.Context, func(primitives.Event)) func() { panic("start") })
	s.start(context.Background(), 1, "bad-stop", func(primitives.Event) {},
		func(context.Context, func(primitives.Event)) func() { return func() { panic("stop") } })

	var stopped bool
	s.start(context.Background(), 2, "good", func(primitives.Event) {},
		func(context.Context, func(primitives.Event)) func() { return func() { stopped = true } })

	s.shutdown()
	assert.True(t, stopped, "a panicking stop must not block other teardowns")
	require.Len(t, reported, 2)
	var pe *PanicError
	assert.True(t, errors.As(reported[0], &pe))
	assert.Equal(t, 0, s.running())
}
