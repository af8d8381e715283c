package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"subtrack/internal/core"
)

var ErrNotFound = errors.New("subscription not found")

// Ports implemented by every storage backend.
type (
	// SubscriptionStore keeps each user's subscriptions isolated; ids of
	// another user's records behave as missing.
	SubscriptionStore interface {
		// ListSubscriptions returns the user's full set in insertion order.
		ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error)
		// CreateSubscription stores s and returns the assigned id.
		CreateSubscription(ctx context.Context, userID string, s core.Subscription) (string, error)
		// DeleteSubscription removes one record or returns ErrNotFound.
		DeleteSubscription(ctx context.Context, userID, id string) error
	}

	UserStore interface {
		UpsertUser(ctx context.Context, u core.User) error
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	Store interface {
		SubscriptionStore
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// NewID returns an opaque subscription id.
func NewID() string {
	return uuid.NewString()
}
