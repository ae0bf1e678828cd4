// Package notify fans mark lifecycle events out to in-process subscribers
// (the SSE endpoint, tests). Delivery is strictly best-effort: publishing
// never blocks a data mutation and never reports failure to the caller.
package notify

import "sync"

// Event types emitted by the marks service.
const (
	EventMarkCreated = "mark.created"
	EventMarkUpdated = "mark.updated"
	EventMarkDeleted = "mark.deleted"
)

// Event is a mark lifecycle notification.
type Event struct {
	Type   string `json:"type"`
	MarkID string `json:"markId"`
	Owner  string `json:"owner"`
}

// Publisher is the write side of the hub. The marks service depends on this
// interface only.
type Publisher interface {
	Publish(e Event)
}

// Hub is a non-blocking fan-out of events to subscriber channels. A
// subscriber that falls behind its buffer loses events rather than stalling
// publishers; onDrop is invoked once per lost event.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
	onDrop func()
}

// NewHub creates a hub whose subscriber channels hold buffer events. onDrop
// may be nil.
func NewHub(buffer int, onDrop func()) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		buffer: buffer,
		onDrop: onDrop,
	}
}

// Subscribe registers a new subscriber and returns its channel along with a
// cancel function. Cancel closes the channel; the subscriber must stop
// receiving after calling it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers e to every subscriber whose buffer has room.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			if h.onDrop != nil {
				h.onDrop()
			}
		}
	}
}
