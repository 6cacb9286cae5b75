package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source for tests. Services take a
// now func; NowFunc plugs straight into that slot.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock starting at the supplied instant, or at
// ReferenceTime when start is the zero value.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the instant the clock currently points at.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now in the shape service constructors expect.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to the provided instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// Current is Now under a name that reads better in assertions.
func (c *Clock) Current() time.Time {
	return c.Now()
}
