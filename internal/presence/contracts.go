package presence

import "service-dispatch/internal/event"

// Sink is one live connection belonging to an identity. TrySend must never
// block; it reports false when the connection cannot take the event (its
// outbound queue is full), in which case the registry drops the connection.
type Sink interface {
	TrySend(ev event.Event) bool
	Close()
}

type counter interface {
	Inc()
}
