package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
	"subtrack/internal/storage"
	"subtrack/internal/storage/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (n *recordingNotifier) Publish(_ context.Context, userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	return n.err
}

func (n *recordingNotifier) PublishSubscriptionsChanged(ctx context.Context, userID string) error {
	return n.Publish(ctx, userID)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func validInput() core.NewSubscription {
	return core.NewSubscription{
		Name:      " Netflix ",
		Cost:      core.Money{Cents: 1549},
		Currency:  "usd",
		Cycle:     core.Monthly,
		Category:  core.Entertainment,
		StartDate: core.NewDate(2025, 3, 1),
	}
}

func TestSubscriptionService_Create(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	feed := &recordingNotifier{}
	mirror := &recordingNotifier{}
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	svc := NewSubscriptionService(store, feed, mirror, WithClock(fixedClock(now)))

	id, err := svc.CreateSubscription(ctx, "alice", validInput())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	subs, err := svc.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, id, subs[0].ID)
	assert.Equal(t, "Netflix", subs[0].Name)
	assert.Equal(t, core.USD, subs[0].Currency)
	assert.Equal(t, core.NewDate(2025, 4, 1), subs[0].NextBillingDate)

	assert.Equal(t, []string{"alice"}, feed.users)
	assert.Equal(t, []string{"alice"}, mirror.users)
}

func TestSubscriptionService_CreateUsesClockZone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	// 21:00 UTC on Mar 23 is already Mar 24 in UTC+5.
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2025, 3, 23, 21, 0, 0, 0, time.UTC).In(loc)
	svc := NewSubscriptionService(store, nil, nil, WithClock(fixedClock(now)))

	in := validInput()
	in.StartDate = core.NewDate(2025, 3, 20)
	_, err := svc.CreateSubscription(ctx, "alice", in)
	require.NoError(t, err)

	subs, err := svc.ListSubscriptions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	// A UTC clock would keep Mar 20, which is already past the grace window locally.
	assert.Equal(t, core.NewDate(2025, 4, 20), subs[0].NextBillingDate)
}

func TestSubscriptionService_CreateValidation(t *testing.T) {
	svc := NewSubscriptionService(memory.New(), nil, nil)

	in := validInput()
	in.Currency = "JPY"
	_, err := svc.CreateSubscription(context.Background(), "alice", in)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, core.ErrUnknownCurrency)

	_, err = svc.CreateSubscription(context.Background(), "", validInput())
	assert.ErrorIs(t, err, core.ErrEmptyUserID)
}

func TestSubscriptionService_NotifyFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	feed := &recordingNotifier{err: errors.New("redis down")}
	svc := NewSubscriptionService(store, feed, nil)

	_, err := svc.CreateSubscription(ctx, "alice", validInput())
	require.NoError(t, err)

	subs, _ := store.ListSubscriptions(ctx, "alice")
	assert.Len(t, subs, 1)
}

func TestSubscriptionService_Delete(t *testing.T) {
	ctx := context.Background()
	feed := &recordingNotifier{}
	svc := NewSubscriptionService(memory.New(), feed, nil)

	id, err := svc.CreateSubscription(ctx, "alice", validInput())
	require.NoError(t, err)

	err = svc.DeleteSubscription(ctx, "bob", id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, svc.DeleteSubscription(ctx, "alice", id))
	subs, _ := svc.ListSubscriptions(ctx, "alice")
	assert.Empty(t, subs)
	assert.Equal(t, []string{"alice", "alice"}, feed.users)
}

func TestSubscriptionService_Close(t *testing.T) {
	svc := NewSubscriptionService(memory.New(), nil, nil)
	assert.NoError(t, svc.Close())

	calls := 0
	svc = NewSubscriptionService(memory.New(), nil, nil,
		WithCloser(func() error { calls++; return nil }),
		WithCloser(func() error { calls++; return errors.New("amqp") }))
	assert.Error(t, svc.Close())
	assert.Equal(t, 2, calls)
}
