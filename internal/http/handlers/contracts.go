package handlers

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/presence"
	chatsvc "service-dispatch/internal/service/chat"
	deliverysvc "service-dispatch/internal/service/delivery"
	dispatchsvc "service-dispatch/internal/service/dispatch"
)

type dispatchUsecase interface {
	CreateAndBroadcast(ctx context.Context, order dispatchsvc.OrderInfo, candidates []string) (domain.Assignment, error)
	Accept(assignmentID, courierID string) (domain.AcceptResult, error)
	Reject(ctx context.Context, assignmentID, courierID string) error
	Get(assignmentID string) (domain.Assignment, error)
}

// NewDispatchUsecase wires a Dispatcher into a dispatchUsecase.
func NewDispatchUsecase(d *dispatchsvc.Dispatcher) dispatchUsecase {
	return d
}

type deliveryUsecase interface {
	Start(a domain.Assignment, customerID string, drop domain.GeoPoint) (domain.Delivery, error)
	MarkArrived(ctx context.Context, deliveryID string) error
	SubmitOTP(ctx context.Context, deliveryID, code string) error
	Cancel(ctx context.Context, deliveryID, reason string) error
	Get(deliveryID string) (domain.Delivery, error)
}

// NewDeliveryUsecase wires a delivery Service into a deliveryUsecase.
func NewDeliveryUsecase(svc *deliverysvc.Service) deliveryUsecase {
	return svc
}

type presenceReader interface {
	StatusOf(identity string) domain.PresenceStatus
}

// NewPresenceReader wires the presence registry into a presenceReader.
func NewPresenceReader(r *presence.Registry) presenceReader {
	return r
}

type suggester interface {
	Suggestions(ctx context.Context, recent []string) []string
}

// NewSuggester wires the chat service into a suggester.
func NewSuggester(s *chatsvc.Service) suggester {
	return s
}
