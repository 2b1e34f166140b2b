// Package realtime broadcasts order events to connected WebSocket clients.
//
// Delivery is at-most-once and best effort: events are not persisted, a
// client that connects later sees nothing that happened before, and a client
// whose outbox is full misses the event.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType names a message on the wire.
type EventType string

// Event types.
const (
	EventConnected   EventType = "connected"
	EventNewOrder    EventType = "new_order"
	EventOrderUpdate EventType = "order_update"
)

// timestampLayout matches millisecond ISO-8601 in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message is the JSON envelope sent to clients.
type Message struct {
	Type         EventType `json:"type"`
	ConnectionID string    `json:"connectionId,omitempty"`
	OrderID      string    `json:"orderId,omitempty"`
	Timestamp    string    `json:"timestamp,omitempty"`
}

// NewOrderEvent builds an order event stamped at at.
func NewOrderEvent(t EventType, orderID uuid.UUID, at time.Time) Message {
	return Message{
		Type:      t,
		OrderID:   orderID.String(),
		Timestamp: at.UTC().Format(timestampLayout),
	}
}

func (m Message) encode() ([]byte, error) {
	return json.Marshal(m)
}

// Publisher fans an event out to subscribers. *Hub delivers locally;
// *RedisRelay delivers to every replica.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

const publishTimeout = 2 * time.Second

// Notifier adapts a Publisher to the order service's notification hooks.
// Publish failures are logged and never reach the caller.
type Notifier struct {
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewNotifier creates a notifier publishing through pub.
func NewNotifier(pub Publisher, logger *slog.Logger) *Notifier {
	return &Notifier{pub: pub, logger: logger, now: time.Now}
}

// NotifyNewOrder announces a placed order.
func (n *Notifier) NotifyNewOrder(orderID uuid.UUID) {
	n.publish(EventNewOrder, orderID)
}

// NotifyOrderUpdate announces a status or delivery change.
func (n *Notifier) NotifyOrderUpdate(orderID uuid.UUID) {
	n.publish(EventOrderUpdate, orderID)
}

func (n *Notifier) publish(t EventType, orderID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := n.pub.Publish(ctx, NewOrderEvent(t, orderID, n.now())); err != nil {
		n.logger.Warn("failed to publish order event",
			"type", t,
			"order_id", orderID,
			"error", err,
		)
	}
}
