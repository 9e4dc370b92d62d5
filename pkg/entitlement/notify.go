package entitlement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Change identifies a team whose subscription record mutated.
type Change struct {
	TeamID uuid.UUID
}

// Hub is the in-process subscription-change channel: the billing service
// publishes into it, entitlement clients subscribe. Sends are non-blocking -
// a full subscriber buffer drops the notification rather than stalling the
// webhook path; a dropped change only delays convergence until the next
// change or explicit refresh.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Change]struct{}
	bufferSize  int
	closed      bool
}

// NewHub creates a change hub. A minimum buffer size of 1 is enforced so
// sends stay non-blocking.
func NewHub(bufferSize int) *Hub {
	return &Hub{
		subscribers: make(map[chan Change]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

// Publish implements billing.ChangePublisher.
func (h *Hub) Publish(ctx context.Context, teamID uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for ch := range h.subscribers {
		select {
		case ch <- Change{TeamID: teamID}:
		default:
		}
	}
}

// Subscribe returns a channel receiving all future changes. The subscription
// is cleaned up and the channel closed when ctx is cancelled or the hub
// closes.
func (h *Hub) Subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, h.bufferSize)

	h.mu.Lock()
	if h.closed {
		close(ch)
		h.mu.Unlock()
		return ch
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			h.unsubscribe(ch)
		}()
	}
	return ch
}

// Close shuts down the hub and closes all subscriber channels. Idempotent.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
	}
	clear(h.subscribers)
	return nil
}

func (h *Hub) unsubscribe(ch chan Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
}
