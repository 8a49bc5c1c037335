package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub is an in-process registration emitter for live notification streams.
// Connected clients subscribe per user; publishes fan out to every channel
// registered for the target user. A slow subscriber never blocks a publish,
// the event is dropped for that subscriber instead.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[chan Notification]struct{}
	buffer  int
}

// NewHub creates an empty hub. buffer is the per-subscriber channel capacity.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[chan Notification]struct{}),
		buffer:  buffer,
	}
}

// Subscribe registers a channel receiving the user's notifications. The
// caller must release it with Unsubscribe.
func (h *Hub) Subscribe(userID uuid.UUID) chan Notification {
	ch := make(chan Notification, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[userID]
	if !ok {
		subs = make(map[chan Notification]struct{})
		h.clients[userID] = subs
	}
	subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a previously subscribed channel.
func (h *Hub) Unsubscribe(userID uuid.UUID, ch chan Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.clients, userID)
	}
}

// Publish implements Emitter. It never blocks.
func (h *Hub) Publish(_ context.Context, n Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[n.UserID] {
		select {
		case ch <- n:
		default:
		}
	}
	return nil
}

// Subscribers reports the number of channels registered for a user.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
