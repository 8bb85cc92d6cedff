package domain

import "time"

// DeliveryState represents the lifecycle state of an accepted assignment.
type DeliveryState string

// List of possible delivery states
const (
	DeliveryEnroute    DeliveryState = "enroute"
	DeliveryArrived    DeliveryState = "arrived"
	DeliveryOTPPending DeliveryState = "otp_pending"
	DeliveryDelivered  DeliveryState = "delivered"
	DeliveryCancelled  DeliveryState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s DeliveryState) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// GeoPoint is a static position (the customer drop-off location).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a timestamped courier position. Positions are ordered by
// Timestamp, not by arrival order.
type Location struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// Delivery - the stateful lifecycle of an accepted assignment through
// physical handoff. 1:1 with the assignment that produced it.
type Delivery struct {
	ID           string
	AssignmentID string
	OrderID      string
	CourierID    string
	CustomerID   string
	State        DeliveryState
	LastSeen     *Location
	Drop         GeoPoint
}
