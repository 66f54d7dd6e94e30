package watcher

import (
	"context"
	"time"

	"github.com/openxai/oepindexer/internal/store"
	"github.com/openxai/oepindexer/internal/store/docstore"
)

// DocumentCursors keeps each watcher cursor in its own document.
type DocumentCursors struct {
	store *docstore.Store
}

func NewDocumentCursors(s *docstore.Store) *DocumentCursors {
	return &DocumentCursors{store: s}
}

// GetCursor returns store.ErrNotFound if the watcher has not stored a cursor yet.
func (c *DocumentCursors) GetCursor(ctx context.Context, name string) (*store.Cursor, error) {
	cursor, err := c.doc(name).Get(ctx)
	if err != nil {
		return nil, err
	}
	if cursor == nil {
		return nil, store.ErrNotFound
	}
	return cursor, nil
}

func (c *DocumentCursors) SaveCursor(ctx context.Context, name string, cursor *store.Cursor) error {
	_, err := c.doc(name).Update(ctx, func(*store.Cursor) (*store.Cursor, error) {
		if cursor.UpdatedAt.IsZero() {
			cursor.UpdatedAt = time.Now().UTC()
		}
		return cursor, nil
	})
	return err
}

func (c *DocumentCursors) doc(name string) *docstore.Document[*store.Cursor] {
	return docstore.NewDocument[*store.Cursor](c.store, store.CursorKeyPrefix+name, nil)
}
