package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/tworoomsboom/internal/model"
)

// DefaultLimit is used when a caller asks for a non-positive number of results
const DefaultLimit = 20

// Archive stores the outcome of finished games
type Archive interface {
	Record(ctx context.Context, summary *model.GameSummary) error
	// Recent returns up to limit summaries, most recently finished first
	Recent(ctx context.Context, limit int) ([]model.GameSummary, error)
}

// Memory keeps a bounded number of summaries in process
type Memory struct {
	mu        sync.RWMutex
	summaries []model.GameSummary
	capacity  int
}

var _ Archive = (*Memory)(nil)

// NewMemory creates an in-memory archive holding at most capacity summaries
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Record(ctx context.Context, summary *model.GameSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.summaries = append(m.summaries, *summary)
	sort.SliceStable(m.summaries, func(i, j int) bool {
		return m.summaries[i].FinishedAt.After(m.summaries[j].FinishedAt)
	})
	if len(m.summaries) > m.capacity {
		m.summaries = m.summaries[:m.capacity]
	}
	return nil
}

func (m *Memory) Recent(ctx context.Context, limit int) ([]model.GameSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit > len(m.summaries) {
		limit = len(m.summaries)
	}
	out := make([]model.GameSummary, limit)
	copy(out, m.summaries[:limit])
	return out, nil
}
