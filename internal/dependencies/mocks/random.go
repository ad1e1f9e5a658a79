package mocks

import (
	"sync"

	"github.com/mcoot/tworoomsboom/internal/dependencies/random"
)

// MockRandom returns queued values from Intn. Once the queue is empty it
// returns Fallback, clamped into [0, n).
type MockRandom struct {
	mu       sync.Mutex
	queue    []int
	Fallback int
	calls    int
}

var _ random.Random = (*MockRandom)(nil)

func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	v := r.Fallback
	if len(r.queue) > 0 {
		v = r.queue[0]
		r.queue = r.queue[1:]
	}
	if n <= 0 || v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	r.queue = append(r.queue, values...)
	r.mu.Unlock()
}

// Calls returns how many times Intn has been called
func (r *MockRandom) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Reset clears queued results and the call count
func (r *MockRandom) Reset() {
	r.mu.Lock()
	r.queue = nil
	r.calls = 0
	r.Fallback = 0
	r.mu.Unlock()
}
