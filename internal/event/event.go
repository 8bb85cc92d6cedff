// Package event defines the connection-level event vocabulary shared by the
// core services and the WebSocket transport. Each event name maps to exactly
// one payload shape.
package event

import (
	"encoding/json"
	"time"

	"service-dispatch/internal/domain"
)

// Event names delivered to (and accepted from) client connections.
const (
	NewAssignment       = "new-assignment"
	AssignmentWithdrawn = "assignment-withdrawn"
	OrderStatusUpdate   = "order-status-update"
	LocationUpdate      = "location-update"
	SendMessage         = "send-message"
	Typing              = "typing"
	StopTyping          = "stop-typing"
	UserStatusChange    = "user-status-change"
	CallRing            = "call-ring"
	CallAnswer          = "call-answer"
	CallICE             = "call-ice"
	CallEnd             = "call-end"
)

// Event is a single wire event. Payload holds one of the payload structs
// below (outbound) or raw JSON (inbound, decoded per event name).
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// NewAssignmentPayload mirrors "new-assignment" sent to candidate couriers.
type NewAssignmentPayload struct {
	AssignmentID string          `json:"assignment_id"`
	OrderID      string          `json:"order_id"`
	Drop         domain.GeoPoint `json:"drop_location"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// WithdrawnPayload mirrors "assignment-withdrawn" sent to losing candidates.
type WithdrawnPayload struct {
	AssignmentID string `json:"assignment_id"`
	OrderID      string `json:"order_id"`
}

// OrderStatusPayload mirrors "order-status-update".
type OrderStatusPayload struct {
	OrderID    string `json:"order_id"`
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// LocationPayload mirrors "location-update" streamed to subscribers.
type LocationPayload struct {
	DeliveryID string    `json:"delivery_id"`
	CourierID  string    `json:"courier_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessagePayload mirrors "send-message".
type MessagePayload struct {
	RoomID string    `json:"room_id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// TypingPayload mirrors "typing" and "stop-typing".
type TypingPayload struct {
	RoomID string `json:"room_id"`
	Sender string `json:"sender"`
}

// StatusChangePayload mirrors "user-status-change".
type StatusChangePayload struct {
	Identity string                `json:"identity"`
	Status   domain.PresenceStatus `json:"status"`
}

// CallPayload mirrors "call-ring", "call-answer", "call-ice" and "call-end".
// Signal carries the peer-connection negotiation blob verbatim; the core
// never inspects it.
type CallPayload struct {
	RoomID string          `json:"room_id"`
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal,omitempty"`
	Reason string          `json:"reason,omitempty"`
}
