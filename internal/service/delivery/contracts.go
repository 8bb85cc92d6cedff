package delivery

import (
	"context"

	"service-dispatch/internal/event"
)

// CodeService gates the OTP-pending and delivered transitions.
type CodeService interface {
	Issue(ctx context.Context, orderID, courierID, customerID string) error
	Verify(orderID, submitted string) error
	Invalidate(orderID string)
}

// PresenceSender fans events out to an identity's live connections.
type PresenceSender interface {
	SendTo(identity string, ev event.Event) bool
}

// OrderNotifier pushes terminal lifecycle notifications to the external
// order system.
type OrderNotifier interface {
	DeliveryCompleted(ctx context.Context, orderID string) error
	DeliveryCancelled(ctx context.Context, orderID, reason string) error
}
