package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openxai/oepindexer/internal/store"
)

// Document is a typed handle to the JSON document stored under a single key.
// Several handles to the same key on the same Store share its lock and cache.
type Document[T any] struct {
	store      *Store
	key        string
	newDefault func() T
}

// NewDocument returns a handle for key. newDefault builds the value returned while nothing
// is stored under key yet.
func NewDocument[T any](s *Store, key string, newDefault func() T) *Document[T] {
	if newDefault == nil {
		newDefault = func() T {
			var zero T
			return zero
		}
	}

	return &Document[T]{
		store:      s,
		key:        key,
		newDefault: newDefault,
	}
}

func (d *Document[T]) Key() string {
	return d.key
}

// Get returns the current value of the document. The returned value is a private copy.
func (d *Document[T]) Get(ctx context.Context) (T, error) {
	e, unlock, err := d.store.lock(ctx, d.key)
	if err != nil {
		var zero T
		return zero, err
	}
	defer unlock()

	return d.current(ctx, e)
}

// Update applies mutate to the current value and durably stores its result. The mutator runs
// while the key is locked and may either modify its argument and return it, or return a
// replacement. If mutate fails nothing is written; ErrSkipWrite is not reported as an error.
// The new value is only visible to other callers once it has been persisted.
func (d *Document[T]) Update(ctx context.Context, mutate func(current T) (T, error)) (T, error) {
	var zero T

	e, unlock, err := d.store.lock(ctx, d.key)
	if err != nil {
		return zero, err
	}
	defer unlock()

	current, err := d.current(ctx, e)
	if err != nil {
		return zero, err
	}

	next, err := mutate(current)
	if err != nil {
		if errors.Is(err, ErrSkipWrite) {
			// current may have been modified in place by the mutator
			return d.current(ctx, e)
		}
		return zero, fmt.Errorf("mutate document %q: %w", d.key, err)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return zero, fmt.Errorf("encode document %q: %w", d.key, err)
	}

	err = d.store.commit(ctx, d.key, e, data)
	if err != nil {
		return zero, err
	}

	return next, nil
}

func (d *Document[T]) current(ctx context.Context, e *entry) (T, error) {
	var zero T

	raw, err := d.store.load(ctx, d.key, e)
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return d.newDefault(), nil
	}

	var v T
	err = json.Unmarshal(raw, &v)
	if err != nil {
		corruptedDocuments.WithLabelValues(d.key).Inc()
		if d.store.cfg.strictDecoding {
			return zero, fmt.Errorf("%w: key %q: %w", store.ErrStorageCorrupted, d.key, err)
		}
		d.store.quarantine(ctx, d.key, e, err)
		return d.newDefault(), nil
	}

	return v, nil
}
