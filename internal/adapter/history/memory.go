package history

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps the most recent records in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	limit int
	order []string // Oldest first.
	byID  map[string]Record
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most limit records.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 1
	}
	return &MemoryStore{
		limit: limit,
		byID:  make(map[string]Record),
		now:   time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// Save implements Store. The oldest record is evicted when the store is full.
func (s *MemoryStore) Save(_ context.Context, rec Record) (Record, error) {
	rec = prepare(rec, s.now)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.ID]; exists {
		return Record{}, fmt.Errorf("chart %s already stored", rec.ID)
	}
	for len(s.order) >= s.limit {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	s.order = append(s.order, rec.ID)
	s.byID[rec.ID] = rec
	return rec, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Recent implements Store.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]Record, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out, nil
}
