package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_Advance(t *testing.T) {
	c := NewManualClock(time.Time{})
	start := c.Now()

	var order []string
	c.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	c.AfterFunc(0, func() { order = append(order, "zero") })
	assert.Empty(t, order, "AfterFunc never runs the callback itself")

	assert.Equal(t, 2, c.Advance(10*time.Millisecond))
	assert.Equal(t, []string{"zero", "a"}, order)
	assert.Equal(t, start.Add(10*time.Millisecond), c.Now())

	assert.Equal(t, 1, c.Advance(time.Second))
	assert.Equal(t, []string{"zero", "a", "b"}, order)
	assert.Equal(t, 0, c.Pending())
}

func TestManualClock_Stop(t *testing.T) {
	c := NewManualClock(time.Time{})
	fired := false
	timer := c.AfterFunc(time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Second)
	assert.False(t, fired)
}

func TestManualClock_ReArmWithinWindow(t *testing.T) {
	c := NewManualClock(time.Time{})
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(50*time.Millisecond, tick)
	}
	c.AfterFunc(50*time.Millisecond, tick)

	c.Advance(200 * time.Millisecond)
	assert.Equal(t, 4, ticks)
	assert.Equal(t, 1, c.Pending())
}
