// Package filedb stores every document as a plain <key>.json file in a single directory.
package filedb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/openxai/oepindexer/internal/store"
)

const fileExt = ".json"

type Store struct {
	dir  string
	perm os.FileMode
}

// New returns a Store writing into dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create data dir %q: %w", dir, err)
	}

	return &Store{
		dir:  dir,
		perm: 0o644,
	}, nil
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	return data, nil
}

// Save atomically replaces the document file: a reader sees either the old or the new
// payload, never a partial one.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	err = renameio.WriteFile(path, data, s.perm)
	if err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}

	return nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid document key %q", key)
	}

	return filepath.Join(s.dir, key+fileExt), nil
}
