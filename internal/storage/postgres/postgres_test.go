//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

func setupRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("subtrack"),
		tcpostgres.WithUsername("subtrack"),
		tcpostgres.WithPassword("subtrack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_Subscriptions(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	s := core.Subscription{
		Name:            "Netflix",
		Cost:            core.Money{Cents: 1549},
		Currency:        core.USD,
		Cycle:           core.Monthly,
		Category:        core.Entertainment,
		NextBillingDate: core.NewDate(2025, 1, 31),
	}
	id, err := repo.CreateSubscription(ctx, "alice", s)
	require.NoError(t, err)
	s.Name = "Spotify"
	_, err = repo.CreateSubscription(ctx, "alice", s)
	require.NoError(t, err)

	subs, err := repo.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, id, subs[0].ID)
	assert.Equal(t, core.NewDate(2025, 1, 31), subs[0].NextBillingDate)
	assert.Equal(t, "Spotify", subs[1].Name)

	assert.ErrorIs(t, repo.DeleteSubscription(ctx, "bob", id), storage.ErrNotFound)
	require.NoError(t, repo.DeleteSubscription(ctx, "alice", id))
	assert.ErrorIs(t, repo.DeleteSubscription(ctx, "alice", "not-a-uuid"), storage.ErrNotFound)
}

func TestRepository_Users(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertUser(ctx, core.User{ID: "u1", Email: "a@example.com"}))
	require.NoError(t, repo.UpsertUser(ctx, core.User{ID: "u1", Email: "b@example.com"}))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "b@example.com", users[0].Email)
}
