package testfixtures

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// IDGenerator yields sequential identifiers ("booking-1", "booking-2", ...)
// so tests can assert on the IDs a service assigns.
type IDGenerator struct {
	mu      sync.RWMutex
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator returns a generator using the given prefix, defaulting to
// "id" when empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.RLock()
	prefix := g.prefix
	g.mu.RUnlock()
	return fmt.Sprintf("%s-%d", prefix, g.counter.Add(1))
}

// NextFunc adapts the generator for injection as a func() string dependency.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetPrefix changes the prefix for subsequently generated identifiers.
func (g *IDGenerator) SetPrefix(prefix string) {
	g.mu.Lock()
	g.prefix = prefix
	g.mu.Unlock()
}

// SetCounter rewinds or fast-forwards the sequence.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.counter.Store(counter)
}
