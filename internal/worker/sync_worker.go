package worker

import (
	"context"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/sheets"
	"subtrack/internal/storage"
)

// SyncWorker mirrors users' subscription snapshots from storage to Google Sheets.
type SyncWorker struct {
	store  storage.Store
	mirror sheets.SnapshotMirror
}

func NewSyncWorker(store storage.Store, mirror sheets.SnapshotMirror) *SyncWorker {
	return &SyncWorker{
		store:  store,
		mirror: mirror,
	}
}

// HandleSubscriptionsChanged reloads the user's full set and mirrors it.
// Messages only name the user, so replays and reordering are harmless.
func (w *SyncWorker) HandleSubscriptionsChanged(ctx context.Context, msg *amqp.SubscriptionsChangedMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"user_id", msg.UserID,
		"timestamp", msg.Timestamp)

	return w.syncUser(ctx, msg.UserID)
}

func (w *SyncWorker) syncUser(ctx context.Context, userID string) error {
	subs, err := w.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	if err := w.mirror.MirrorSnapshot(ctx, userID, subs); err != nil {
		return fmt.Errorf("mirror snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Successfully mirrored subscriptions",
		"user_id", userID,
		"count", len(subs))
	return nil
}

// StartupSyncCheck mirrors every known user once. It recovers from messages
// missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users for startup check: %w", err)
	}
	if len(users) == 0 {
		slog.InfoContext(ctx, "No users found on startup")
		return nil
	}

	successCount := 0
	errorCount := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncUser(ctx, u.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror user during startup",
				"user_id", u.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(users),
		"synced", successCount,
		"errors", errorCount)
	return nil
}
