package plans

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, r *Record) error {
	if err := prepare(r); err != nil {
		return err
	}
	s.mu.Lock()
	s.records = append(s.records, *r)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
