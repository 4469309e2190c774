package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationOrderCreated     = "order_created"
	NotificationPaymentCompleted = "payment_completed"
)

// NotificationEvent is the payload written to the outbox and published to
// the notification topic. Consumers re-fetch the order by id instead of
// trusting any data carried alongside it.
type NotificationEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}
