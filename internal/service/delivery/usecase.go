package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

type entry struct {
	mu sync.Mutex // per-delivery lock
	d  domain.Delivery
}

// Service owns the delivery lifecycle of accepted assignments:
// enroute → arrived → otp_pending → delivered, with cancelled reachable from
// any non-terminal state. The otp_pending and delivered transitions are gated
// by the code service.
type Service struct {
	mu        sync.Mutex
	byID      map[string]*entry
	byCourier map[string]*entry // courier id -> active delivery
	byOrder   map[string]*entry

	codes    CodeService
	presence PresenceSender
	orders   OrderNotifier
	logger   logx.Logger
	now      func() time.Time
}

// NewService creates a delivery state machine service.
func NewService(codes CodeService, presence PresenceSender, orders OrderNotifier, logger logx.Logger) *Service {
	return &Service{
		byID:      make(map[string]*entry),
		byCourier: make(map[string]*entry),
		byOrder:   make(map[string]*entry),
		codes:     codes,
		presence:  presence,
		orders:    orders,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start creates the 1:1 delivery for an accepted assignment, in the enroute
// state, and announces it to both parties.
func (s *Service) Start(a domain.Assignment, customerID string, drop domain.GeoPoint) (domain.Delivery, error) {
	if a.State != domain.AssignmentAccepted || a.Winner == "" {
		return domain.Delivery{}, apperr.ErrBadState
	}

	e := &entry{d: domain.Delivery{
		ID:           uuid.NewString(),
		AssignmentID: a.ID,
		OrderID:      a.OrderID,
		CourierID:    a.Winner,
		CustomerID:   customerID,
		State:        domain.DeliveryEnroute,
		Drop:         drop,
	}}

	s.mu.Lock()
	if s.byOrder[a.OrderID] != nil {
		s.mu.Unlock()
		return domain.Delivery{}, apperr.ErrConflict
	}
	s.byID[e.d.ID] = e
	s.byCourier[a.Winner] = e
	s.byOrder[a.OrderID] = e
	s.mu.Unlock()

	s.announce(e.d, "")
	s.logger.Info("delivery started",
		logx.String("event", "delivery_started"),
		logx.String("delivery_id", e.d.ID),
		logx.String("order_id", e.d.OrderID),
		logx.String("courier_id", e.d.CourierID),
	)
	return e.d, nil
}

// MarkArrived moves the delivery to arrived and then requests a code issue.
// Only a successful issue (the customer was actually notified) completes the
// transition to otp_pending; a failed send leaves the delivery in arrived so
// the courier can retry. Re-invoking from arrived re-issues, which is also
// the recovery path after an exhausted attempt counter.
func (s *Service) MarkArrived(ctx context.Context, deliveryID string) error {
	e, err := s.lookup(deliveryID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	switch e.d.State {
	case domain.DeliveryEnroute, domain.DeliveryArrived:
	default:
		e.mu.Unlock()
		return apperr.ErrBadState
	}
	e.d.State = domain.DeliveryArrived
	d := e.d
	e.mu.Unlock()

	if err := s.codes.Issue(ctx, d.OrderID, d.CourierID, d.CustomerID); err != nil {
		// rollback: stay in arrived rather than strand an otp_pending
		// delivery whose code never reached the customer
		s.announce(d, "")
		return err
	}

	e.mu.Lock()
	if e.d.State == domain.DeliveryArrived {
		e.d.State = domain.DeliveryOTPPending
	}
	d = e.d
	e.mu.Unlock()

	s.announce(d, "")
	return nil
}

// SubmitOTP verifies the courier-submitted code. Success completes the
// delivery; an exhausted attempt counter drops the delivery back to arrived
// so that a fresh MarkArrived can re-issue.
func (s *Service) SubmitOTP(ctx context.Context, deliveryID, code string) error {
	e, err := s.lookup(deliveryID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.d.State != domain.DeliveryOTPPending {
		e.mu.Unlock()
		return apperr.ErrBadState
	}
	orderID := e.d.OrderID
	e.mu.Unlock()

	verr := s.codes.Verify(orderID, code)

	e.mu.Lock()
	if e.d.State != domain.DeliveryOTPPending {
		// cancelled while the code was in flight; the terminal state wins
		e.mu.Unlock()
		return apperr.ErrBadState
	}
	switch verr {
	case nil:
		e.d.State = domain.DeliveryDelivered
	case apperr.ErrAttemptsExceeded, apperr.ErrCodeExpired:
		e.d.State = domain.DeliveryArrived
	}
	d := e.d
	e.mu.Unlock()

	if verr != nil {
		if d.State == domain.DeliveryArrived {
			s.announce(d, "")
		}
		return verr
	}

	s.release(d)
	s.announce(d, "")
	if err := s.orders.DeliveryCompleted(ctx, d.OrderID); err != nil {
		s.logger.Error("order system notify failed",
			logx.String("order_id", d.OrderID),
			logx.Any("err", err),
		)
	}
	s.logger.Info("delivery completed",
		logx.String("event", "delivery_completed"),
		logx.String("delivery_id", d.ID),
		logx.String("order_id", d.OrderID),
	)
	return nil
}

// Cancel is terminal and reachable from any non-terminal state. Any in-flight
// code is invalidated and no further transitions are accepted.
func (s *Service) Cancel(ctx context.Context, deliveryID, reason string) error {
	e, err := s.lookup(deliveryID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.d.State.Terminal() {
		e.mu.Unlock()
		return apperr.ErrBadState
	}
	e.d.State = domain.DeliveryCancelled
	d := e.d
	e.mu.Unlock()

	s.codes.Invalidate(d.OrderID)
	s.release(d)
	s.announce(d, reason)
	if err := s.orders.DeliveryCancelled(ctx, d.OrderID, reason); err != nil {
		s.logger.Error("order system notify failed",
			logx.String("order_id", d.OrderID),
			logx.Any("err", err),
		)
	}
	return nil
}

// CancelByOrder cancels the active delivery for an order, if any.
func (s *Service) CancelByOrder(ctx context.Context, orderID, reason string) error {
	s.mu.Lock()
	e := s.byOrder[orderID]
	s.mu.Unlock()
	if e == nil {
		return apperr.ErrNotFound
	}
	e.mu.Lock()
	id := e.d.ID
	e.mu.Unlock()
	return s.Cancel(ctx, id, reason)
}

// CurrentState returns the delivery's lifecycle state.
func (s *Service) CurrentState(deliveryID string) (domain.DeliveryState, error) {
	e, err := s.lookup(deliveryID)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.d.State, nil
}

// Get returns a snapshot of the delivery.
func (s *Service) Get(deliveryID string) (domain.Delivery, error) {
	e, err := s.lookup(deliveryID)
	if err != nil {
		return domain.Delivery{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.d, nil
}

// ActiveByCourier resolves the courier's in-flight delivery, used by the
// location relay to route position updates.
func (s *Service) ActiveByCourier(courierID string) (domain.Delivery, bool) {
	s.mu.Lock()
	e := s.byCourier[courierID]
	s.mu.Unlock()
	if e == nil {
		return domain.Delivery{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.d.State.Terminal() {
		return domain.Delivery{}, false
	}
	return e.d, true
}

// RecordLocation stores the courier's last known position on the delivery.
// Timestamp ordering is enforced upstream by the relay.
func (s *Service) RecordLocation(deliveryID string, loc domain.Location) {
	e, err := s.lookup(deliveryID)
	if err != nil {
		return
	}
	e.mu.Lock()
	if !e.d.State.Terminal() {
		e.d.LastSeen = &loc
	}
	e.mu.Unlock()
}

func (s *Service) lookup(deliveryID string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.byID[deliveryID]; e != nil {
		return e, nil
	}
	return nil, apperr.ErrNotFound
}

// release frees the courier slot once the delivery reached a terminal state.
func (s *Service) release(d domain.Delivery) {
	s.mu.Lock()
	if e := s.byCourier[d.CourierID]; e != nil && e.d.ID == d.ID {
		delete(s.byCourier, d.CourierID)
	}
	if e := s.byOrder[d.OrderID]; e != nil && e.d.ID == d.ID {
		delete(s.byOrder, d.OrderID)
	}
	s.mu.Unlock()
}

// announce pushes an order-status-update to both parties.
func (s *Service) announce(d domain.Delivery, reason string) {
	ev := event.Event{
		Name: event.OrderStatusUpdate,
		Payload: event.OrderStatusPayload{
			OrderID:    d.OrderID,
			DeliveryID: d.ID,
			Status:     string(d.State),
			Reason:     reason,
		},
	}
	s.presence.SendTo(d.CustomerID, ev)
	s.presence.SendTo(d.CourierID, ev)
}
