package extensibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/uimachines/internal/primitives"
	"github.com/comalice/uimachines/testutil"
)

func TestChannelEventSource(t *testing.T) {
	ch := make(chan primitives.Event, 1)
	src := NewChannelEventSource(ch)
	ch <- primitives.Signal("FOCUS")
	assert.Equal(t, primitives.Signal("FOCUS"), <-src.Events())
}

func TestTickerEventSource(t *testing.T) {
	clock := testutil.NewManualClock(time.Time{})
	src := NewTickerEventSource(primitives.Signal("SPIN"), 50*time.Millisecond, clock)

	clock.Advance(120 * time.Millisecond)
	require.Len(t, src.Events(), 2)
	assert.Equal(t, primitives.Signal("SPIN"), <-src.Events())

	clock.Advance(time.Second)
	assert.Len(t, src.Events(), 10)
	assert.Positive(t, src.Dropped())

	src.Stop()
	src.Stop()
	assert.Equal(t, 0, clock.Pending())
	for range src.Events() {
	}
	_, open := <-src.Events()
	assert.False(t, open)
}
