// Package boltdb stores documents in a single bbolt bucket.
package boltdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/openxai/oepindexer/internal/store"
)

// Bucket holds every document, keyed by document key.
var Bucket = []byte("documents")

type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database file at path.
func New(path string) (*Store, error) {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("create dir for bolt db: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %q: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		if err != nil {
			return fmt.Errorf("create documents bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(Bucket).Get([]byte(key))
		if v == nil {
			return store.ErrNotFound
		}
		// v is only valid for the lifetime of the transaction
		data = slices.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Bucket).Put([]byte(key), data)
	})
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
