package domain

import "time"

// CallState is the lifecycle state of a two-party call session.
// Keep values stable because they are part of the public event payloads.
type CallState string

// List of possible call session states
const (
	CallRinging CallState = "ringing"
	CallActive  CallState = "active"
	CallEnded   CallState = "ended"
)

// CallSession - a two-party call keyed by the room the parties share. The
// initiator is distinguished from the callee for offer/answer ordering; the
// signaling payloads themselves are opaque to the core.
type CallSession struct {
	ID        string
	RoomID    string
	Initiator string
	Callee    string
	State     CallState
	StartedAt time.Time
}
