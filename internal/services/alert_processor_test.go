package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/core"
	"subtrack/internal/storage/memory"
)

type fakeAlertNotifier struct {
	calls map[string][]Alert
	fail  map[string]bool
}

func (f *fakeAlertNotifier) NotifyDue(_ context.Context, u core.User, _ core.Date, alerts []Alert) error {
	if f.fail[u.ID] {
		return errors.New("send failed")
	}
	if f.calls == nil {
		f.calls = map[string][]Alert{}
	}
	f.calls[u.ID] = alerts
	return nil
}

func seedAlerts(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.UpsertUser(ctx, core.User{ID: "alice"}))
	require.NoError(t, store.UpsertUser(ctx, core.User{ID: "bob"}))
	require.NoError(t, store.UpsertUser(ctx, core.User{ID: "carol"}))

	add := func(user, name string, next core.Date) {
		s := mkSub(name, 999, core.USD, core.Monthly, core.Other)
		s.NextBillingDate = next
		_, err := store.CreateSubscription(ctx, user, s)
		require.NoError(t, err)
	}
	add("alice", "far", core.NewDate(2025, 6, 30))
	add("alice", "soon", core.NewDate(2025, 6, 12))
	add("alice", "late", core.NewDate(2025, 6, 8))
	add("bob", "far", core.NewDate(2025, 7, 1))
	add("carol", "today", core.NewDate(2025, 6, 10))
	return store
}

func TestAlertProcessor_ProcessDueSubscriptions(t *testing.T) {
	ctx := context.Background()
	store := seedAlerts(t)
	notifier := &fakeAlertNotifier{}
	p := NewAlertProcessor(store, notifier)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	n, err := p.ProcessDueSubscriptions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, notifier.calls["alice"], 2)
	assert.Equal(t, "late", notifier.calls["alice"][0].Subscription.Name)
	assert.True(t, notifier.calls["alice"][0].Urgency.Overdue)
	assert.Equal(t, "soon", notifier.calls["alice"][1].Subscription.Name)
	assert.NotContains(t, notifier.calls, "bob")
	assert.Len(t, notifier.calls["carol"], 1)

	// Same day again: already notified.
	n, err = p.ProcessDueSubscriptions(ctx, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAlertProcessor_RetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := seedAlerts(t)
	notifier := &fakeAlertNotifier{fail: map[string]bool{"alice": true}}
	p := NewAlertProcessor(store, notifier)
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	n, err := p.ProcessDueSubscriptions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	notifier.fail = nil
	n, err = p.ProcessDueSubscriptions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, notifier.calls, "alice")
}

func TestAlertProcessor_NotInitialized(t *testing.T) {
	p := &AlertProcessor{}
	_, err := p.ProcessDueSubscriptions(context.Background(), time.Now())
	assert.Error(t, err)
}
