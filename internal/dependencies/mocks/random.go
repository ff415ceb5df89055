package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/savebridge/internal/dependencies/random"
)

// MockRandom returns queued strings, then a deterministic sequence ("mock1", "mock2", ...)
type MockRandom struct {
	mu       sync.Mutex
	queue    []string
	fallback int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result, ignoring length and alphabet
func (r *MockRandom) String(_ int, _ string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		result := r.queue[0]
		r.queue = r.queue[1:]
		return result
	}
	r.fallback++
	return fmt.Sprintf("mock%d", r.fallback)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, values...)
}

// Reset clears queued results and restarts the fallback sequence
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = nil
	r.fallback = 0
}
