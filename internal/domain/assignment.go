package domain

import "time"

// AssignmentState represents the lifecycle state of a dispatch assignment.
type AssignmentState string

// List of possible assignment states
const (
	AssignmentBroadcast AssignmentState = "broadcast"
	AssignmentAccepted  AssignmentState = "accepted"
	AssignmentExpired   AssignmentState = "expired"
	AssignmentCancelled AssignmentState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s AssignmentState) Terminal() bool {
	return s == AssignmentAccepted || s == AssignmentExpired || s == AssignmentCancelled
}

// Assignment - a dispatch offer of one order to an ordered set of candidate
// couriers. At most one assignment per order is in the broadcast state at a
// time; once accepted, the winner is immutable.
type Assignment struct {
	ID          string
	OrderID     string
	Candidates  []string
	State       AssignmentState
	Winner      string
	BroadcastAt time.Time
	Deadline    time.Time
}

// AcceptResult - struct representing the outcome of a won accept race.
type AcceptResult struct {
	AssignmentID string
	OrderID      string
	CourierID    string
	DeliveryID   string
}
