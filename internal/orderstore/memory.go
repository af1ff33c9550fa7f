package orderstore

import (
	"context"
	"sync"

	"github.com/orderforge/order-export-conversion/internal/types"
)

// MemoryStore is an in-process Store. It backs the "memory" driver for runs
// that do not need persistence, and it is the swap-in fake for pipeline
// tests.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string][]types.RawRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]types.RawRecord)}
}

// ReplaceAll implements Store.
func (s *MemoryStore) ReplaceAll(_ context.Context, collection string, records []types.RawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]types.RawRecord, len(records))
	copy(stored, records)
	s.collections[collection] = stored

	return nil
}

// Query implements Store. Records come back in insertion order.
func (s *MemoryStore) Query(_ context.Context, collection string, filter Filter) ([]types.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []types.RawRecord
	for _, record := range s.collections[collection] {
		if filter.Matches(record) {
			matched = append(matched, record)
		}
	}

	return matched, nil
}

// Len returns the number of records stored under a collection key.
func (s *MemoryStore) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collections[collection])
}
