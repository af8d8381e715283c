package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel carrying change notifications.
const DefaultChannel = "subtrack:changes"

// Feed carries "user X changed" notifications between writers and hubs,
// possibly across processes.
type Feed interface {
	Publish(ctx context.Context, userID string) error
	// Listen calls handle for every notification until ctx is done.
	Listen(ctx context.Context, handle func(ctx context.Context, userID string)) error
}

// LocalFeed dispatches synchronously inside one process.
type LocalFeed struct {
	mu       sync.RWMutex
	handlers map[int]func(context.Context, string)
	next     int
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{handlers: make(map[int]func(context.Context, string))}
}

func (f *LocalFeed) Publish(ctx context.Context, userID string) error {
	f.mu.RLock()
	handlers := make([]func(context.Context, string), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, userID)
	}
	return nil
}

func (f *LocalFeed) Listen(ctx context.Context, handle func(context.Context, string)) error {
	f.mu.Lock()
	id := f.next
	f.next++
	f.handlers[id] = handle
	f.mu.Unlock()

	<-ctx.Done()

	f.mu.Lock()
	delete(f.handlers, id)
	f.mu.Unlock()
	return nil
}

// RedisFeed fans notifications out through Redis pub/sub so every server
// instance refreshes its own listeners.
type RedisFeed struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisFeed(client *redis.Client, channel string, logger *slog.Logger) *RedisFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisFeed{client: client, channel: channel, logger: logger}
}

func (f *RedisFeed) Publish(ctx context.Context, userID string) error {
	if err := f.client.Publish(ctx, f.channel, userID).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (f *RedisFeed) Listen(ctx context.Context, handle func(context.Context, string)) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", f.channel, err)
	}
	f.logger.InfoContext(ctx, "Listening for subscription changes", "channel", f.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis channel %s closed", f.channel)
			}
			handle(ctx, msg.Payload)
		}
	}
}

// HubHandler adapts a hub to a feed handler, logging refresh failures.
func HubHandler(h *Hub, logger *slog.Logger) func(context.Context, string) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, userID string) {
		if err := h.Notify(ctx, userID); err != nil {
			logger.ErrorContext(ctx, "Failed to push snapshot", "user_id", userID, "error", err)
		}
	}
}
