package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published on the order topic
const (
	EventOrderCreated         = "order.created"
	EventStatusChanged        = "order.status_changed"
	EventPaymentStatusChanged = "order.payment_status_changed"
)

// Event describes something that happened to an order after it was committed
type Event struct {
	Type           string          `json:"type"`
	OrderID        uuid.UUID       `json:"order_id"`
	UserID         uuid.UUID       `json:"user_id"`
	Status         Status          `json:"status,omitempty"`
	PreviousStatus Status          `json:"previous_status,omitempty"`
	PaymentStatus  PaymentStatus   `json:"payment_status,omitempty"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
	ChangedBy      uuid.UUID       `json:"changed_by,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// EventPublisher delivers order events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Notifier tells the customer about their order
type Notifier interface {
	OrderPlaced(ctx context.Context, buyer Buyer, order *Order) error
}

// ReceiptRenderer turns an order into a printable document
type ReceiptRenderer interface {
	RenderReceipt(order *Order, customerEmail string) ([]byte, error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, Buyer, *Order) error { return nil }

func newEvent(eventType string, o *Order) Event {
	return Event{
		Type:          eventType,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		ItemCount:     o.ItemCount(),
		OccurredAt:    time.Now().UTC(),
	}
}
