package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/gamehub-console/internal/dependencies/random"
)

// MockRandom returns queued strings, then a predictable sequence
// ("tok-1", "tok-2", ...) once the queue is drained
type MockRandom struct {
	mu      sync.Mutex
	queued  []string
	counter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result or the next sequence value
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queued) > 0 {
		next := r.queued[0]
		r.queued = r.queued[1:]
		return next
	}
	r.counter++
	return fmt.Sprintf("tok-%d", r.counter)
}

// QueueString adds values to the result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, values...)
}
