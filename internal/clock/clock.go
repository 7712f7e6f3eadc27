// Package clock provides an abstraction for time operations.
// Commit messages and completion lines are stamped through a Clock so tests
// can pin the timestamp.
package clock

import "time"

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	Time time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.Time
}

var (
	_ Clock = RealClock{}
	_ Clock = FixedClock{}
)
