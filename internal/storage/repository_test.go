package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "subtrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositorySubscriptions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Ping(ctx))

	netflix := core.Subscription{
		Name:            "Netflix",
		Cost:            core.Money{Cents: 1549},
		Currency:        core.USD,
		Cycle:           core.Monthly,
		Category:        core.Entertainment,
		NextBillingDate: core.NewDate(2025, 2, 10),
		Color:           "#E50914",
	}
	spotify := netflix
	spotify.Name = "Spotify"
	spotify.Currency = core.EUR
	spotify.Cycle = core.Yearly

	id1, err := repo.CreateSubscription(ctx, "alice", netflix)
	require.NoError(t, err)
	_, err = repo.CreateSubscription(ctx, "alice", spotify)
	require.NoError(t, err)
	_, err = repo.CreateSubscription(ctx, "bob", netflix)
	require.NoError(t, err)

	subs, err := repo.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, id1, subs[0].ID)
	assert.Equal(t, "Netflix", subs[0].Name)
	assert.Equal(t, core.NewDate(2025, 2, 10), subs[0].NextBillingDate)
	assert.Equal(t, "#E50914", subs[0].Color)
	assert.Equal(t, core.Yearly, subs[1].Cycle)
	assert.Equal(t, core.EUR, subs[1].Currency)

	assert.ErrorIs(t, repo.DeleteSubscription(ctx, "bob", id1), ErrNotFound)
	require.NoError(t, repo.DeleteSubscription(ctx, "alice", id1))

	subs, err = repo.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Spotify", subs[0].Name)
}

func TestSQLiteRepositoryUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertUser(ctx, core.User{ID: "u1", Email: "old@example.com"}))
	require.NoError(t, repo.UpsertUser(ctx, core.User{ID: "u1", Email: "new@example.com", DisplayName: "Ada"}))
	require.NoError(t, repo.UpsertUser(ctx, core.User{ID: "u2"}))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "new@example.com", users[0].Email)
	assert.Equal(t, "Ada", users[0].DisplayName)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}

func TestSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")

	v, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Zero(t, v, "fresh database")
	assert.False(t, dirty)

	require.NoError(t, RunMigrations(path))
	v, dirty, err = SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}

func TestRunMigrationsRefusesDirtySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, RunMigrations(path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = RunMigrations(path)
	require.ErrorIs(t, err, ErrDirtySchema)
	assert.Contains(t, err.Error(), "version 1")
}
