package handlers

import (
	"time"

	"service-dispatch/internal/domain"
)

type createAssignmentRequest struct {
	OrderID    string          `json:"order_id"`
	Drop       domain.GeoPoint `json:"drop_location"`
	Candidates []string        `json:"candidates"`
}

type assignmentResponse struct {
	AssignmentID string    `json:"assignment_id"`
	OrderID      string    `json:"order_id"`
	State        string    `json:"state"`
	Winner       string    `json:"winner,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type courierActionRequest struct {
	CourierID string `json:"courier_id"`
}

type acceptResponse struct {
	AssignmentID string `json:"assignment_id"`
	OrderID      string `json:"order_id"`
	CourierID    string `json:"courier_id"`
	DeliveryID   string `json:"delivery_id,omitempty"`
}

type startDeliveryRequest struct {
	AssignmentID string          `json:"assignment_id"`
	CustomerID   string          `json:"customer_id"`
	Drop         domain.GeoPoint `json:"drop_location"`
}

type submitOTPRequest struct {
	Code string `json:"code"`
}

type cancelDeliveryRequest struct {
	Reason string `json:"reason"`
}

type deliveryResponse struct {
	DeliveryID string           `json:"delivery_id"`
	OrderID    string           `json:"order_id"`
	CourierID  string           `json:"courier_id"`
	CustomerID string           `json:"customer_id"`
	State      string           `json:"state"`
	LastSeen   *domain.Location `json:"last_seen,omitempty"`
}

type presenceResponse struct {
	Identity string `json:"identity"`
	Status   string `json:"status"`
}

type suggestionsRequest struct {
	Recent []string `json:"recent"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func assignmentToResponse(a domain.Assignment) assignmentResponse {
	return assignmentResponse{
		AssignmentID: a.ID,
		OrderID:      a.OrderID,
		State:        string(a.State),
		Winner:       a.Winner,
		ExpiresAt:    a.Deadline,
	}
}

func deliveryToResponse(d domain.Delivery) deliveryResponse {
	return deliveryResponse{
		DeliveryID: d.ID,
		OrderID:    d.OrderID,
		CourierID:  d.CourierID,
		CustomerID: d.CustomerID,
		State:      string(d.State),
		LastSeen:   d.LastSeen,
	}
}
