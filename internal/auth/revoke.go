package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"subtrack/internal/cache"
)

// Revoker remembers logged-out session ids until the token would expire.
type Revoker interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// MemoryRevoker keeps revocations in process.
type MemoryRevoker struct {
	entries *cache.LRUCache[struct{}]
}

func NewMemoryRevoker(maxEntries int) *MemoryRevoker {
	return &MemoryRevoker{entries: cache.NewLRUCache[struct{}](maxEntries, 24*time.Hour)}
}

func (r *MemoryRevoker) Revoke(_ context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	r.entries.SetWithTTL(sessionID, struct{}{}, ttl)
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	_, ok := r.entries.Get(sessionID)
	return ok, nil
}

// Cache exposes the underlying cache for periodic cleanup.
func (r *MemoryRevoker) Cache() cache.Cleaner {
	return r.entries
}

// RedisRevoker shares revocations across instances.
type RedisRevoker struct {
	client *redis.Client
	prefix string
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, prefix: "subtrack:revoked:"}
}

func (r *RedisRevoker) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.prefix+sessionID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return n > 0, nil
}
