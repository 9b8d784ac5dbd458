package frontier

import (
	"context"
	"sync"
)

// SeenSet records every dedup key a crawl has accepted, whatever the
// request's later outcome.
type SeenSet interface {
	// Add inserts key and reports whether it was new.
	Add(ctx context.Context, key string) (bool, error)
	// Len reports how many keys have been added.
	Len(ctx context.Context) (int64, error)
}

// MemorySeen is an in-process SeenSet owned by one crawl run.
type MemorySeen struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemorySeen creates an empty MemorySeen.
func NewMemorySeen() *MemorySeen {
	return &MemorySeen{keys: make(map[string]struct{})}
}

// Add implements SeenSet.
func (s *MemorySeen) Add(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

// Len implements SeenSet.
func (s *MemorySeen) Len(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.keys)), nil
}
