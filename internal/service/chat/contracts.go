package chat

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
)

// PresenceSender fans events out to an identity's live connections.
type PresenceSender interface {
	SendTo(identity string, ev event.Event) bool
}

// Mirror hands a relayed message to the external history store. Best-effort:
// a mirror failure never fails the relay.
type Mirror interface {
	Mirror(ctx context.Context, m domain.Message) error
}

// SuggestionGenerator produces candidate replies from recent room context.
// Purely advisory; failures are swallowed and surfaced as no suggestions.
type SuggestionGenerator interface {
	Suggest(ctx context.Context, recent []string) ([]string, error)
}
