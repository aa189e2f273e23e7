package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. Tests inject its Now method where
// production code takes time.Now, then move time with Set or Advance to cross
// check-in windows and no-show cutoffs deterministically.
type Clock struct {
	mu sync.RWMutex
	at time.Time
}

// NewClock returns a clock pinned to start, or to ReferenceTime when start is
// the zero value.
func NewClock(start time.Time) *Clock {
	c := &Clock{at: start}
	if start.IsZero() {
		c.at = ReferenceTime()
	}
	return c
}

// Now reports the instant the clock is pinned to.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.at
}

// Current is an alias for Now used where the caller only reads the time.
func (c *Clock) Current() time.Time {
	return c.Now()
}

// NowFunc adapts the clock for injection as a func() time.Time dependency.
// A nil receiver degrades to the real clock.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = t
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
	return c.at
}
