// Package users keeps the metadata accounts submit about themselves.
package users

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openxai/oepindexer/internal/store"
)

// UsersDocument maps normalized account addresses to their record.
type UsersDocument interface {
	Get(ctx context.Context) (map[string]*store.UserRecord, error)
	Update(ctx context.Context, mutate func(map[string]*store.UserRecord) (map[string]*store.UserRecord, error)) (map[string]*store.UserRecord, error)
}

type Registry struct {
	logger *logrus.Logger
	users  UsersDocument
	now    func() time.Time
}

func NewRegistry(logger *logrus.Logger, users UsersDocument) *Registry {
	return &Registry{
		logger: logger,
		users:  users,
		now:    time.Now,
	}
}

// SetMetadata creates or replaces the metadata of account. account is expected to be a
// validated address; it is lower-cased before use as the record key.
func (r *Registry) SetMetadata(ctx context.Context, account string, metadata store.UserMetadata) (*store.UserRecord, error) {
	account = strings.ToLower(account)
	record := &store.UserRecord{
		Account:   account,
		Metadata:  metadata,
		UpdatedAt: r.now().UTC(),
	}

	_, err := r.users.Update(ctx, func(users map[string]*store.UserRecord) (map[string]*store.UserRecord, error) {
		if users == nil {
			users = make(map[string]*store.UserRecord)
		}
		users[account] = record
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not store user metadata: %w", err)
	}

	r.logger.WithContext(ctx).WithField("account", account).Debug("Stored user metadata")
	return record, nil
}

// List returns every user record ordered by account.
func (r *Registry) List(ctx context.Context) ([]*store.UserRecord, error) {
	users, err := r.users.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get users from store: %w", err)
	}

	records := make([]*store.UserRecord, 0, len(users))
	for account := range slices.Values(slices.Sorted(maps.Keys(users))) {
		records = append(records, users[account])
	}
	return records, nil
}
