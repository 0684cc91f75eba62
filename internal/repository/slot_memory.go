package repository

import (
	"context"
	"slices"
	"sync"
)

// InMemorySlotRepository keeps slots in process memory, for development and tests.
type InMemorySlotRepository struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInMemorySlotRepository creates an empty in-memory slot store.
func NewInMemorySlotRepository() *InMemorySlotRepository {
	return &InMemorySlotRepository{data: make(map[string][]byte)}
}

func (r *InMemorySlotRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(v), nil
}

func (r *InMemorySlotRepository) Put(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = slices.Clone(value)
	return nil
}

func (r *InMemorySlotRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}
