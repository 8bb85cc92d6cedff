package orders

import (
	"context"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/dispatch"
)

// DispatchPort abstracts the subset of dispatcher operations needed by the
// Processor when handling order events
type DispatchPort interface {
	CreateAndBroadcast(ctx context.Context, order dispatch.OrderInfo, candidates []string) (domain.Assignment, error)
	CancelByOrder(orderID string) error
}

// DeliveryPort abstracts the subset of delivery operations needed by the
// Processor when handling order events
type DeliveryPort interface {
	CancelByOrder(ctx context.Context, orderID, reason string) error
}

// Gateway supplies order details and the eligible-courier list.
type Gateway interface {
	GetByID(ctx context.Context, id string) (*OrderDetails, error)
	Candidates(ctx context.Context, id string) ([]string, error)
}

// OrderDetails is what the order system knows about a dispatchable order.
type OrderDetails struct {
	ID         string
	Status     string
	CustomerID string
	Drop       domain.GeoPoint
}
