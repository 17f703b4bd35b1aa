package clock

import "time"

// Clock provides the current time; session expiry and token checks read it
// through this interface so tests can pin it
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Expired reports whether deadline has passed according to clk.
// A zero deadline never expires.
func Expired(clk Clock, deadline time.Time) bool {
	if deadline.IsZero() {
		return false
	}
	return clk.Now().After(deadline)
}
