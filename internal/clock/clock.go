// Package clock abstracts "now" so the booking rules that depend on it
// (future-only booking, review eligibility, the completion sweeper) can be
// tested deterministically.  Production code injects Real(); tests inject
// Fake().
package clock

import (
    "sync"
    "time"
)

// Clock returns the current time.
type Clock interface {
    Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns a Clock backed by time.Now.
func Real() Clock { return realClock{} }

// FakeClock is a Clock whose time only moves when told to.  It is safe for
// concurrent use.
type FakeClock struct {
    mu      sync.Mutex
    current time.Time
}

// Fake returns a FakeClock set to initial.
func Fake(initial time.Time) *FakeClock {
    return &FakeClock{current: initial}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
    c.mu.Lock()
    c.current = c.current.Add(d)
    c.mu.Unlock()
}

// Set jumps the clock to t.
func (c *FakeClock) Set(t time.Time) {
    c.mu.Lock()
    c.current = t
    c.mu.Unlock()
}
