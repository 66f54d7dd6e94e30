// Package memdb is a docstore backend keeping payloads in process memory, used by tests and
// by deployments that do not need durability.
package memdb

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/openxai/oepindexer/internal/store"
)

// DefaultMemSize is the number of documents the store is sized for up front.
const DefaultMemSize = 16

type config struct {
	memSize int
}

type Option func(*config)

// WithMemSize sets the number of documents to preallocate room for. Negative values are ignored.
func WithMemSize(memSize int) Option {
	return func(c *config) {
		if memSize >= 0 {
			c.memSize = memSize
		}
	}
}

// DocumentStore keeps document payloads in memory. Nothing survives a restart.
type DocumentStore struct {
	docs map[string][]byte
	mu   sync.RWMutex
}

func NewDocumentStore(opts ...Option) *DocumentStore {
	cfg := &config{memSize: DefaultMemSize}
	for opt := range slices.Values(opts) {
		opt(cfg)
	}

	return &DocumentStore{
		docs: make(map[string][]byte, cfg.memSize),
	}
}

// Load returns a copy of the payload stored under key.
func (s *DocumentStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[key]
	if !ok {
		return nil, store.ErrNotFound
	}

	return slices.Clone(data), nil
}

// Save replaces the payload stored under key.
func (s *DocumentStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = slices.Clone(data)
	return nil
}

// Keys returns the keys currently holding a payload.
func (s *DocumentStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.docs))
}
