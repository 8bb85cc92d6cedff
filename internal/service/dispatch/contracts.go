package dispatch

import (
	"context"

	"service-dispatch/internal/event"
)

// PresenceSender fans events out to an identity's live connections.
// Delivery is best-effort; false means nobody was listening.
type PresenceSender interface {
	SendTo(identity string, ev event.Event) bool
}

// OrderNotifier tells the external order system that a broadcast went
// unanswered so it can re-dispatch.
type OrderNotifier interface {
	AssignmentExpired(ctx context.Context, orderID string) error
}

type counter interface {
	Inc()
}
