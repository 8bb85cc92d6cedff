package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/dispatch"
	"service-dispatch/internal/service/orders"
)

type stubDispatch struct {
	mu           sync.Mutex
	broadcastErr error
	cancelErr    error
	broadcasts   []dispatch.OrderInfo
	candidates   [][]string
	cancelled    []string
}

func (s *stubDispatch) CreateAndBroadcast(_ context.Context, order dispatch.OrderInfo, candidates []string) (domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broadcastErr != nil {
		return domain.Assignment{}, s.broadcastErr
	}
	s.broadcasts = append(s.broadcasts, order)
	s.candidates = append(s.candidates, candidates)
	return domain.Assignment{ID: "assignment-1", OrderID: order.ID}, nil
}

func (s *stubDispatch) CancelByOrder(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, orderID)
	return s.cancelErr
}

type stubDeliveries struct {
	mu        sync.Mutex
	cancelErr error
	cancelled []string
}

func (s *stubDeliveries) CancelByOrder(_ context.Context, orderID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, orderID)
	return s.cancelErr
}

type stubGateway struct {
	order      *orders.OrderDetails
	orderErr   error
	candidates []string
	candErr    error
}

func (s stubGateway) GetByID(context.Context, string) (*orders.OrderDetails, error) {
	return s.order, s.orderErr
}

func (s stubGateway) Candidates(context.Context, string) ([]string, error) {
	return s.candidates, s.candErr
}

func TestHandle_CreatedBroadcastsToCandidates(t *testing.T) {
	t.Parallel()

	d := &stubDispatch{}
	gw := stubGateway{
		order:      &orders.OrderDetails{ID: "order-1", Status: "created", Drop: domain.GeoPoint{Lat: 1}},
		candidates: []string{"c1", "c2"},
	}
	p := orders.NewProcessor(d, &stubDeliveries{}, gw)

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "created"}))
	require.Equal(t, []dispatch.OrderInfo{{ID: "order-1", Drop: domain.GeoPoint{Lat: 1}}}, d.broadcasts)
	require.Equal(t, [][]string{{"c1", "c2"}}, d.candidates)
}

func TestHandle_CreatedNoCandidatesIsNoOp(t *testing.T) {
	t.Parallel()

	d := &stubDispatch{}
	gw := stubGateway{order: &orders.OrderDetails{ID: "order-1"}}
	p := orders.NewProcessor(d, &stubDeliveries{}, gw)

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "created"}))
	require.Empty(t, d.broadcasts)
}

func TestHandle_CreatedUnknownOrderIsNoOp(t *testing.T) {
	t.Parallel()

	d := &stubDispatch{}
	p := orders.NewProcessor(d, &stubDeliveries{}, stubGateway{})

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-404", Status: "created"}))
	require.Empty(t, d.broadcasts)
}

func TestHandle_CreatedAlreadyBroadcastingIsIdempotent(t *testing.T) {
	t.Parallel()

	d := &stubDispatch{broadcastErr: apperr.ErrAlreadyBroadcasting}
	gw := stubGateway{order: &orders.OrderDetails{ID: "order-1"}, candidates: []string{"c1"}}
	p := orders.NewProcessor(d, &stubDeliveries{}, gw)

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "created"}))
}

func TestHandle_CreatedGatewayErrorPropagates(t *testing.T) {
	t.Parallel()

	gwErr := errors.New("orders service down")
	p := orders.NewProcessor(&stubDispatch{}, &stubDeliveries{}, stubGateway{orderErr: gwErr})

	require.ErrorIs(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "created"}), gwErr)
}

func TestHandle_CanceledPrefersDeliveryThenAssignment(t *testing.T) {
	t.Parallel()

	d := &stubDispatch{}
	del := &stubDeliveries{}
	p := orders.NewProcessor(d, del, stubGateway{})

	// an in-flight delivery takes the cancellation
	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "canceled"}))
	require.Equal(t, []string{"order-1"}, del.cancelled)
	require.Empty(t, d.cancelled)

	// no delivery: fall back to withdrawing the broadcast
	del.cancelErr = apperr.ErrNotFound
	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-2", Status: "deleted"}))
	require.Equal(t, []string{"order-2"}, d.cancelled)
}

func TestHandle_CanceledToleratesSettledStates(t *testing.T) {
	t.Parallel()

	for _, settled := range []error{apperr.ErrNotFound, apperr.ErrAlreadyAccepted, apperr.ErrAssignmentExpired} {
		d := &stubDispatch{cancelErr: settled}
		del := &stubDeliveries{cancelErr: apperr.ErrNotFound}
		p := orders.NewProcessor(d, del, stubGateway{})
		require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "canceled"}))
	}
}

func TestHandle_CompletedAndUnknownStatusesIgnored(t *testing.T) {
	t.Parallel()

	d := &stubDispatch{}
	del := &stubDeliveries{}
	p := orders.NewProcessor(d, del, stubGateway{})

	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "completed"}))
	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: "cooking"}))
	require.NoError(t, p.Handle(context.Background(), orders.Event{OrderID: "order-1", Status: " CANCELED "}))
	require.Equal(t, []string{"order-1"}, del.cancelled)
	require.Empty(t, d.broadcasts)
}
