package primitives

import "time"

// Timer is a pending callback created by a Clock.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Clock abstracts time for delayed transitions and activities so tests can
// advance it by hand.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
