package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

func sub(name string) core.Subscription {
	return core.Subscription{
		Name:            name,
		Cost:            core.Money{Cents: 999},
		Currency:        core.USD,
		Cycle:           core.Monthly,
		Category:        core.Other,
		NextBillingDate: core.NewDate(2025, 5, 1),
	}
}

func TestStoreInsertionOrderAndIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	idA, err := s.CreateSubscription(ctx, "alice", sub("A"))
	require.NoError(t, err)
	_, err = s.CreateSubscription(ctx, "alice", sub("B"))
	require.NoError(t, err)
	_, err = s.CreateSubscription(ctx, "bob", sub("C"))
	require.NoError(t, err)

	alice, err := s.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "A", alice[0].Name)
	assert.Equal(t, "B", alice[1].Name)
	assert.Equal(t, idA, alice[0].ID)
	assert.False(t, alice[0].CreatedAt.IsZero())

	assert.ErrorIs(t, s.DeleteSubscription(ctx, "bob", idA), storage.ErrNotFound)
	require.NoError(t, s.DeleteSubscription(ctx, "alice", idA))
	assert.ErrorIs(t, s.DeleteSubscription(ctx, "alice", idA), storage.ErrNotFound)

	alice, _ = s.ListSubscriptions(ctx, "alice")
	assert.Len(t, alice, 1)
	empty, err := s.ListSubscriptions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.UpsertUser(ctx, core.User{ID: "u1", Email: "a@example.com"}))
	require.NoError(t, s.UpsertUser(ctx, core.User{ID: "u1", Email: "b@example.com"}))
	assert.Error(t, s.UpsertUser(ctx, core.User{}))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "b@example.com", users[0].Email)
}
