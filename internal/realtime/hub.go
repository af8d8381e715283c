// Package realtime pushes complete subscription snapshots to live sessions.
//
// Every delivery is the user's full set at one instant, so listeners treat
// it as an authoritative replacement and never merge.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"subtrack/internal/core"
)

var ErrHubClosed = errors.New("realtime hub closed")

// SnapshotLoader reads a user's current subscription set.
type SnapshotLoader interface {
	ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error)
}

// Listener receives full snapshots. Calls for one registration never overlap.
type Listener func(snapshot []core.Subscription)

// Hub fans snapshots out to every registration of a user.
type Hub struct {
	loader SnapshotLoader
	logger *slog.Logger

	mu     sync.Mutex
	users  map[string]*userListeners
	nextID uint64
	closed bool
}

type userListeners struct {
	// notifyMu orders load+fanout so a stale snapshot never overtakes a newer one.
	notifyMu  sync.Mutex
	listeners map[uint64]*mailbox
	// pending counts registrations still loading their first snapshot; the
	// entry stays in Hub.users while it is non-zero.
	pending int
}

func (ul *userListeners) idle() bool {
	return len(ul.listeners) == 0 && ul.pending == 0
}

func NewHub(loader SnapshotLoader, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		loader: loader,
		logger: logger,
		users:  make(map[string]*userListeners),
	}
}

// Subscribe registers fn for userID and delivers the current snapshot
// immediately. The registration ends on Cancel or when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, userID string, fn Listener) (*Registration, error) {
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}
	if fn == nil {
		return nil, fmt.Errorf("nil listener")
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	ul, ok := h.users[userID]
	if !ok {
		ul = &userListeners{listeners: make(map[uint64]*mailbox)}
		h.users[userID] = ul
	}
	ul.pending++
	h.nextID++
	id := h.nextID
	h.mu.Unlock()

	ul.notifyMu.Lock()
	snapshot, err := h.loader.ListSubscriptions(ctx, userID)
	if err != nil {
		ul.notifyMu.Unlock()
		h.abandon(userID, ul)
		return nil, fmt.Errorf("load initial snapshot: %w", err)
	}
	mb := newMailbox(fn)
	h.mu.Lock()
	ul.pending--
	if h.closed {
		h.mu.Unlock()
		ul.notifyMu.Unlock()
		return nil, ErrHubClosed
	}
	ul.listeners[id] = mb
	h.mu.Unlock()
	mb.offer(snapshot)
	ul.notifyMu.Unlock()

	reg := &Registration{hub: h, userID: userID, id: id, box: mb}
	stop := context.AfterFunc(ctx, reg.Cancel)
	reg.mu.Lock()
	reg.stop = stop
	reg.mu.Unlock()

	h.logger.DebugContext(ctx, "Listener registered", "user_id", userID, "listener_id", id)
	return reg, nil
}

// Notify reloads userID's snapshot and pushes it to every registration.
// It is a no-op when nobody is listening.
func (h *Hub) Notify(ctx context.Context, userID string) error {
	h.mu.Lock()
	ul, ok := h.users[userID]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	ul.notifyMu.Lock()
	defer ul.notifyMu.Unlock()

	snapshot, err := h.loader.ListSubscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	h.mu.Lock()
	boxes := make([]*mailbox, 0, len(ul.listeners))
	for _, mb := range ul.listeners {
		boxes = append(boxes, mb)
	}
	h.mu.Unlock()

	for _, mb := range boxes {
		mb.offer(snapshot)
	}
	h.logger.DebugContext(ctx, "Snapshot pushed",
		"user_id", userID,
		"listeners", len(boxes),
		"subscriptions", len(snapshot))
	return nil
}

// Listeners returns the number of live registrations for userID.
func (h *Hub) Listeners(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ul, ok := h.users[userID]; ok {
		return len(ul.listeners)
	}
	return 0
}

// Close stops every registration.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var boxes []*mailbox
	for _, ul := range h.users {
		for _, mb := range ul.listeners {
			boxes = append(boxes, mb)
		}
	}
	h.users = make(map[string]*userListeners)
	h.mu.Unlock()

	for _, mb := range boxes {
		mb.close()
	}
}

func (h *Hub) remove(userID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ul, ok := h.users[userID]
	if !ok {
		return
	}
	delete(ul.listeners, id)
	if ul.idle() {
		delete(h.users, userID)
	}
}

// abandon undoes a registration whose initial load failed.
func (h *Hub) abandon(userID string, ul *userListeners) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ul.pending--
	if cur, ok := h.users[userID]; ok && cur == ul && ul.idle() {
		delete(h.users, userID)
	}
}

// Registration is a live subscription to one user's snapshots.
type Registration struct {
	hub    *Hub
	userID string
	id     uint64
	box    *mailbox

	mu   sync.Mutex
	stop func() bool
	once sync.Once
}

// Cancel stops delivery. It is safe to call more than once.
func (r *Registration) Cancel() {
	r.once.Do(func() {
		r.mu.Lock()
		stop := r.stop
		r.mu.Unlock()
		if stop != nil {
			stop()
		}
		r.hub.remove(r.userID, r.id)
		r.box.close()
	})
}

// Done is closed once the registration has stopped delivering.
func (r *Registration) Done() <-chan struct{} {
	return r.box.finished
}
