// Package settings is the key-value seam for dashboard configuration
// (currency preference, tax profile, business profile). Swappable so tests
// run against the in-memory fake.
package settings

import (
	"context"
	"sync"

	"github.com/sahelpay/momo/internal/domain/errors"
)

// Store is the settings contract. Keys are flat strings; values are opaque
// to the store.
type Store interface {
	// Get returns the value for key, or ErrSettingNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores or overwrites the value for key.
	Set(ctx context.Context, key, value string) error
	// List returns all settings as a key -> value map.
	List(ctx context.Context) (map[string]string, error)
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the in-process Store used in tests and single-node
// deployments without Redis.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", errors.ErrSettingNotFound
	}
	return v, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
