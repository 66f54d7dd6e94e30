// Package docstore keeps one JSON document per key on top of a durable Backend.
//
// Every read and write of a key happens under an exclusive per-key lock, so no caller can
// observe a partially applied update and concurrent updates of the same key are applied
// one at a time. Distinct keys never contend with each other.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/openxai/oepindexer/internal/store"
)

// ErrSkipWrite can be returned by an update mutator to leave the stored document untouched.
var ErrSkipWrite = errors.New("skip write")

// Backend is the durable storage a Store persists documents to.
type Backend interface {
	// Load returns the stored payload of key, or store.ErrNotFound if nothing is stored yet.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save durably replaces the payload of key. The previous payload must remain intact if
	// Save fails.
	Save(ctx context.Context, key string, data []byte) error
}

type entry struct {
	sem    *semaphore.Weighted
	loaded bool
	// raw is the committed JSON encoding of the document, nil if nothing is stored.
	raw []byte
}

type Store struct {
	logger  *logrus.Logger
	backend Backend
	cfg     config

	mu      sync.Mutex
	entries map[string]*entry
}

func New(logger *logrus.Logger, backend Backend, opts ...Option) *Store {
	cfg := config{lockTimeout: DefaultLockTimeout}
	for opt := range slices.Values(opts) {
		opt(&cfg)
	}

	return &Store{
		logger:  logger,
		backend: backend,
		cfg:     cfg,
		entries: make(map[string]*entry),
	}
}

func (s *Store) entry(key string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		s.entries[key] = e
	}
	return e
}

// lock acquires exclusive access to key. The returned func releases it.
func (s *Store) lock(ctx context.Context, key string) (*entry, func(), error) {
	e := s.entry(key)

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.lockTimeout)
	defer cancel()

	err := e.sem.Acquire(lockCtx, 1)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, fmt.Errorf("acquire lock for %q: %w", key, ctx.Err())
		}
		lockTimeouts.WithLabelValues(key).Inc()
		return nil, nil, fmt.Errorf("%w: key %q after %s", store.ErrLockTimeout, key, s.cfg.lockTimeout)
	}

	return e, func() { e.sem.Release(1) }, nil
}

// load returns the committed payload of key, reading the backend on first access only.
// The caller must hold the key lock.
func (s *Store) load(ctx context.Context, key string, e *entry) ([]byte, error) {
	if e.loaded {
		return e.raw, nil
	}

	raw, err := s.backend.Load(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load %q from backend: %w", key, err)
	}

	e.raw = raw
	e.loaded = true
	return e.raw, nil
}

// commit persists data and only then makes it the cached value of key.
// The caller must hold the key lock.
func (s *Store) commit(ctx context.Context, key string, e *entry, data []byte) error {
	err := s.backend.Save(ctx, key, data)
	if err != nil {
		failedDocumentWrites.WithLabelValues(key).Inc()
		return fmt.Errorf("%w: key %q: %w", store.ErrStorageWrite, key, err)
	}

	e.raw = data
	e.loaded = true
	documentWrites.WithLabelValues(key).Inc()
	return nil
}

// quarantine copies an undecodable payload aside and forgets it, so the document falls back
// to its default until the next successful update replaces the payload.
func (s *Store) quarantine(ctx context.Context, key string, e *entry, decodeErr error) {
	logger := s.logger.WithField("key", key).WithError(decodeErr)

	corruptKey := key + ".corrupted"
	err := s.backend.Save(ctx, corruptKey, e.raw)
	if err != nil {
		logger.WithField("backup_error", err.Error()).Error("Failed to back up corrupted document payload")
	} else {
		logger = logger.WithField("backup_key", corruptKey)
	}
	logger.WithField("size", len(e.raw)).Warn("Stored document is corrupted, falling back to its default value")

	e.raw = nil
}
