package dataset

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the dataset in process memory. Used for tests and demo
// mode.
type MemoryStore struct {
	mu sync.Mutex
	ds *Dataset
}

// NewMemoryStore creates a store seeded with the default dataset.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ds: Default(time.Now())}
}

// NewMemoryStoreWith creates a store holding a copy of the given dataset.
func NewMemoryStoreWith(ds *Dataset) *MemoryStore {
	return &MemoryStore{ds: ds.Clone()}
}

func (s *MemoryStore) Load(_ context.Context) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ds.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, fn func(*Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Mutate a copy so a failed update leaves the stored state untouched.
	next := s.ds.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.ds = next
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
