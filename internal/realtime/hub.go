package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DefaultOutboxSize is the number of undelivered messages a subscriber may
// hold before new ones are dropped.
const DefaultOutboxSize = 16

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("realtime hub closed")

// Subscriber is one registered client.
type Subscriber struct {
	id   string
	send chan []byte
}

// ID returns the connection id sent in the connected message.
func (s *Subscriber) ID() string { return s.id }

// Messages yields encoded messages. It is closed when the subscriber is
// removed from the hub.
func (s *Subscriber) Messages() <-chan []byte { return s.send }

// Hub is the in-process subscriber registry.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]*Subscriber
	outboxSize int
	closed     bool
	logger     *slog.Logger
}

// NewHub creates a hub whose subscribers buffer up to outboxSize messages.
func NewHub(logger *slog.Logger, outboxSize int) *Hub {
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &Hub{
		subs:       make(map[string]*Subscriber),
		outboxSize: outboxSize,
		logger:     logger,
	}
}

// Subscribe registers a new client. Its first message is the connected
// acknowledgment carrying its connection id.
func (h *Hub) Subscribe() (*Subscriber, error) {
	sub := &Subscriber{
		id:   uuid.NewString(),
		send: make(chan []byte, h.outboxSize),
	}
	ack, err := Message{Type: EventConnected, ConnectionID: sub.id}.encode()
	if err != nil {
		return nil, err
	}
	sub.send <- ack

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	h.subs[sub.id] = sub
	return sub, nil
}

// Unsubscribe removes sub and closes its message channel. Calling it more
// than once is harmless.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.send)
}

// Broadcast offers data to every subscriber without blocking and returns how
// many accepted it.
func (h *Hub) Broadcast(data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, sub := range h.subs {
		select {
		case sub.send <- data:
			delivered++
		default:
			h.logger.Debug("dropping message for slow subscriber", "connection_id", id)
		}
	}
	return delivered
}

// Publish encodes msg and broadcasts it to local subscribers.
func (h *Hub) Publish(_ context.Context, msg Message) error {
	data, err := msg.encode()
	if err != nil {
		return err
	}
	n := h.Broadcast(data)
	h.logger.Debug("broadcast order event", "type", msg.Type, "order_id", msg.OrderID, "delivered", n)
	return nil
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close removes every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.send)
	}
}
