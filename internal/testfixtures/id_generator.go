package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator yields sequential identifiers ("id-1", "id-2", ...) so
// tests can predict the IDs a service will assign.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator constructs a generator with the given prefix, falling
// back to "id" when empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next in the shape service constructors expect.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetPrefix updates the generator prefix.
func (g *IDGenerator) SetPrefix(prefix string) {
	g.mu.Lock()
	g.prefix = prefix
	g.mu.Unlock()
}

// SetCounter overrides the internal counter for deterministic resets.
func (g *IDGenerator) SetCounter(counter uint64) {
	g.mu.Lock()
	g.counter = counter
	g.mu.Unlock()
}
