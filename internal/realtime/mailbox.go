package realtime

import (
	"slices"
	"sync"

	"subtrack/internal/core"
)

// mailbox holds at most one pending snapshot. A newer snapshot replaces an
// undelivered older one, which is lossless because each is complete.
type mailbox struct {
	fn       Listener
	slot     chan []core.Subscription
	done     chan struct{}
	finished chan struct{}
	mu       sync.Mutex
	closed   bool
}

func newMailbox(fn Listener) *mailbox {
	mb := &mailbox{
		fn:       fn,
		slot:     make(chan []core.Subscription, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go mb.run()
	return mb
}

func (mb *mailbox) run() {
	defer close(mb.finished)
	for {
		select {
		case <-mb.done:
			return
		case snapshot := <-mb.slot:
			select {
			case <-mb.done:
				return
			default:
			}
			mb.fn(snapshot)
		}
	}
}

func (mb *mailbox) offer(snapshot []core.Subscription) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	select {
	case <-mb.slot:
	default:
	}
	mb.slot <- slices.Clone(snapshot)
}

func (mb *mailbox) close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.done)
}
