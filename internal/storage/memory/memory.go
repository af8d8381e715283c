// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

// Store keeps every user's subscriptions in insertion order.
type Store struct {
	mu    sync.RWMutex
	subs  map[string][]core.Subscription
	users []core.User
	now   func() time.Time
}

func New() *Store {
	return &Store{
		subs: make(map[string][]core.Subscription),
		now:  time.Now,
	}
}

func (s *Store) ListSubscriptions(_ context.Context, userID string) ([]core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Subscription, len(s.subs[userID]))
	copy(out, s.subs[userID])
	return out, nil
}

func (s *Store) CreateSubscription(_ context.Context, userID string, sub core.Subscription) (string, error) {
	if userID == "" {
		return "", core.ErrEmptyUserID
	}
	sub.ID = storage.NewID()
	sub.CreatedAt = s.now().UTC()

	s.mu.Lock()
	s.subs[userID] = append(s.subs[userID], sub)
	s.mu.Unlock()
	return sub.ID, nil
}

func (s *Store) DeleteSubscription(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.subs[userID]
	i := slices.IndexFunc(list, func(sub core.Subscription) bool { return sub.ID == id })
	if i < 0 {
		return storage.ErrNotFound
	}
	s.subs[userID] = slices.Delete(list, i, i+1)
	return nil
}

func (s *Store) UpsertUser(_ context.Context, u core.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = u
			return nil
		}
	}
	s.users = append(s.users, u)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var _ storage.Store = (*Store)(nil)
