package projection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/debatequest/platform/internal/domain"
)

// ErrMiss is returned by Store.Get for absent or expired keys.
var ErrMiss = errors.New("projection cache miss")

// Store is the interface for projection caching.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// InMemoryStore is an in-process projection cache with optional expiry.
type InMemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewInMemoryStore creates a new in-memory projection store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]entry)}
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMiss, key)
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.data, key)
		return nil, fmt.Errorf("%w: %s expired", ErrMiss, key)
	}
	return e.value, nil
}

func (s *InMemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry{value: value, expiresAt: exp}
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// SetJSON is a convenience helper to serialize and store a value.
func SetJSON(ctx context.Context, store Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal projection: %w", err)
	}
	return store.Set(ctx, key, data, ttl)
}

// GetJSON is a convenience helper to retrieve and deserialize a value.
func GetJSON(ctx context.Context, store Store, key string, dest any) error {
	data, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

const statsTTL = 5 * time.Minute

// Projector caches computed stats per progress snapshot.
type Projector struct {
	store   Store
	catalog *domain.Catalog
}

// NewProjector creates a projector over a cache store.
func NewProjector(store Store, catalog *domain.Catalog) *Projector {
	return &Projector{store: store, catalog: catalog}
}

// Stats returns cached stats for state, computing and caching on a miss.
func (p *Projector) Stats(ctx context.Context, state domain.PlayerState) (ProgressStats, error) {
	key, err := StatsKey(state)
	if err != nil {
		return ProgressStats{}, err
	}

	var cached ProgressStats
	if err := GetJSON(ctx, p.store, key, &cached); err == nil {
		return cached, nil
	}

	stats := Compute(state, p.catalog)
	if err := SetJSON(ctx, p.store, key, stats, statsTTL); err != nil {
		return ProgressStats{}, err
	}
	return stats, nil
}

// StatsKey identifies a snapshot by a hash of its persisted form, so two
// states share a key only when they would produce the same stats.
func StatsKey(state domain.PlayerState) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(raw)
	return "projection:stats:" + hex.EncodeToString(sum[:]), nil
}
