package sheets

import (
	"context"

	"subtrack/internal/core"
)

// SnapshotMirror replaces a user's mirrored copy with a full snapshot.
type SnapshotMirror interface {
	MirrorSnapshot(ctx context.Context, userID string, subs []core.Subscription) error
}
