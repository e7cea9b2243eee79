package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predetermined IDs, then numbered fallbacks.
//
// This keeps run IDs stable across test executions so golden traces can be
// compared byte for byte.
//
// Thread-safety: FixedIDGenerator is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedIDGenerator("run-1", "run-2")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//	gen.Generate() // "test-id-3"
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("test-id-%d", g.idx)
}
