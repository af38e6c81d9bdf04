package csp

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Timeout returns a channel that receives once after delay elapses, backed
// by clockz.RealClock. It is the scheduler-yield primitive for code that
// has no channel of its own to scope a clock to; anything hung off a
// particular Channel should use that Channel's Timeout method instead, so
// WithClock can substitute a fake clock in tests.
func Timeout(delay time.Duration) <-chan time.Time {
	return clockz.RealClock.After(delay)
}

// Timeout returns a channel that receives once after delay elapses,
// measured against ch's clock (clockz.RealClock by default, or whatever
// was passed to WithClock). Use this instead of the package-level Timeout
// wherever a wait is logically scoped to a channel, so tests can drive it
// with a fake clock deterministically.
func (ch *Channel[T]) Timeout(delay time.Duration) <-chan time.Time {
	return ch.clock.After(delay)
}
