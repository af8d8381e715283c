package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/cache"
	"subtrack/internal/core"
	"subtrack/internal/storage"
)

// Alert is one due-soon or overdue subscription.
type Alert struct {
	Subscription core.Subscription
	Urgency      Urgency
}

// AlertNotifier delivers a user's alerts for one day.
type AlertNotifier interface {
	NotifyDue(ctx context.Context, user core.User, today core.Date, alerts []Alert) error
}

type alertSource interface {
	storage.SubscriptionStore
	storage.UserStore
}

// AlertProcessor scans every user for upcoming and missed payments.
type AlertProcessor struct {
	store    alertSource
	notifier AlertNotifier
	sent     *cache.LRUCache[struct{}]
}

// NewAlertProcessor returns a processor that notifies each user at most once per day.
func NewAlertProcessor(store alertSource, notifier AlertNotifier) *AlertProcessor {
	return &AlertProcessor{
		store:    store,
		notifier: notifier,
		sent:     cache.NewLRUCache[struct{}](10000, 36*time.Hour),
	}
}

// Cache exposes the de-duplication cache for registration with a cache.Manager.
func (p *AlertProcessor) Cache() cache.Cleaner {
	return p.sent
}

// CollectAlerts returns due-soon and overdue subscriptions ordered by billing date.
func CollectAlerts(subs []core.Subscription, today core.Date) []Alert {
	var alerts []Alert
	for _, s := range SortByNextBilling(subs) {
		u := ClassifyUrgency(s.NextBillingDate, today)
		if u.Overdue || u.DueSoon {
			alerts = append(alerts, Alert{Subscription: s, Urgency: u})
		}
	}
	return alerts
}

// ProcessDueSubscriptions notifies every user with alerts and returns how
// many users were notified. Per-user failures are logged and skipped.
func (p *AlertProcessor) ProcessDueSubscriptions(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.notifier == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	users, err := p.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing subscription alerts",
		"users", len(users),
		"processing_date", today.String())

	notified := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return notified, err
		}

		subs, err := p.store.ListSubscriptions(ctx, u.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load subscriptions", "user_id", u.ID, "error", err)
			continue
		}

		alerts := CollectAlerts(subs, today)
		if len(alerts) == 0 {
			continue
		}

		key := u.ID + "|" + today.String()
		if !p.sent.SetIfAbsent(key, struct{}{}) {
			continue
		}

		if err := p.notifier.NotifyDue(ctx, u, today, alerts); err != nil {
			p.sent.Delete(key)
			slog.ErrorContext(ctx, "Failed to deliver alerts",
				"user_id", u.ID,
				"alerts", len(alerts),
				"error", err)
			continue
		}

		notified++
		slog.InfoContext(ctx, "Delivered subscription alerts",
			"user_id", u.ID,
			"alerts", len(alerts))
	}

	slog.InfoContext(ctx, "Alert processing complete",
		"notified", notified,
		"total_checked", len(users))
	return notified, nil
}
