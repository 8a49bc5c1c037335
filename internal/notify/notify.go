package notify

import (
	"context"

	"github.com/google/uuid"
)

// Notification event types emitted on user-visible payment transitions.
const (
	TypePaymentCreated   = "payment.created"
	TypePaymentCompleted = "payment.completed"
	TypePaymentFailed    = "payment.failed"
	TypePaymentRefunded  = "payment.refunded"
)

// TopicNotificationEvents carries notification CloudEvents to the delivery services.
const TopicNotificationEvents = "notification.events"

// Notification is the delivery-agnostic contract: emit event Type for user
// UserID. Transport (email, SSE, push) is owned by downstream consumers.
type Notification struct {
	UserID    uuid.UUID         `json:"user_id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	RelatedID string            `json:"related_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Emitter publishes notifications. Implementations must be safe for
// concurrent use; callers treat failures as log-only.
type Emitter interface {
	Publish(ctx context.Context, n Notification) error
}

// Fanout publishes to every wrapped emitter and returns the first error seen,
// after attempting all of them.
type Fanout []Emitter

// Publish implements Emitter.
func (f Fanout) Publish(ctx context.Context, n Notification) error {
	var firstErr error
	for _, e := range f {
		if err := e.Publish(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
