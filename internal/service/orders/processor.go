package orders

import (
	"context"
	"errors"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/service/dispatch"
)

// Processor maps order events onto dispatch actions: a created order is
// broadcast to its eligible couriers, a canceled order withdraws its
// assignment or cancels its in-flight delivery.
type Processor struct {
	dispatcher DispatchPort
	deliveries DeliveryPort
	gateway    Gateway
	factory    *actionFactory
}

// NewProcessor creates a new orders.Processor
func NewProcessor(dispatcher DispatchPort, deliveries DeliveryPort, gw Gateway) *Processor {
	p := &Processor{
		dispatcher: dispatcher,
		deliveries: deliveries,
		gateway:    gw,
	}
	p.factory = newActionFactory(p.onCreated, p.onCanceled, p.onCompleted)
	return p
}

// Handle processes a single orders.Event
func (p *Processor) Handle(ctx context.Context, e Event) error {
	if p.factory == nil {
		return nil
	}
	fn, ok := p.factory.get(e.Status)
	if !ok {
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onCreated(ctx context.Context, e Event) error {
	if p.gateway == nil {
		// no orders endpoint, nothing to enrich or broadcast from
		return nil
	}
	ord, err := p.gateway.GetByID(ctx, e.OrderID)
	if err != nil {
		return err
	}
	if ord == nil {
		return nil
	}
	candidates, err := p.gateway.Candidates(ctx, e.OrderID)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		// nobody eligible right now; the order system re-dispatches later
		return nil
	}

	_, err = p.dispatcher.CreateAndBroadcast(ctx, dispatch.OrderInfo{ID: ord.ID, Drop: ord.Drop}, candidates)
	if errors.Is(err, apperr.ErrAlreadyBroadcasting) {
		return nil
	}
	return err
}

func (p *Processor) onCanceled(ctx context.Context, e Event) error {
	err := p.deliveries.CancelByOrder(ctx, e.OrderID, "order canceled")
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	// no delivery yet; withdraw the broadcast if one is out
	err = p.dispatcher.CancelByOrder(e.OrderID)
	switch {
	case err == nil,
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrAlreadyAccepted),
		errors.Is(err, apperr.ErrAssignmentExpired):
		return nil
	default:
		return err
	}
}

func (p *Processor) onCompleted(context.Context, Event) error {
	// the order system is authoritative for completion; nothing to do here
	return nil
}
