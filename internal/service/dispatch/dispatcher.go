package dispatch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

// OrderInfo is what the dispatcher needs to know about an order to broadcast
// it; eligibility of the candidates is determined externally.
type OrderInfo struct {
	ID   string
	Drop domain.GeoPoint
}

type assignment struct {
	mu      sync.Mutex // per-assignment lock; every state change goes through it
	a       domain.Assignment
	pending map[string]struct{} // candidates that have not accepted or rejected
	timer   *time.Timer
}

// Dispatcher broadcasts delivery jobs to candidate couriers and arbitrates
// concurrent accepts with a single-winner guarantee.
type Dispatcher struct {
	mu      sync.Mutex // guards the lookup tables only, never held across sends
	byID    map[string]*assignment
	byOrder map[string]*assignment // order id -> assignment in broadcast state

	presence PresenceSender
	orders   OrderNotifier
	window   time.Duration
	logger   logx.Logger
	accepts  counter
	raceLost counter
	now      func() time.Time
}

// NewDispatcher creates an assignment dispatcher with the given broadcast
// window.
func NewDispatcher(p PresenceSender, orders OrderNotifier, window time.Duration, logger logx.Logger, accepts, raceLost counter) *Dispatcher {
	if window <= 0 {
		window = 90 * time.Second
	}
	return &Dispatcher{
		byID:     make(map[string]*assignment),
		byOrder:  make(map[string]*assignment),
		presence: p,
		orders:   orders,
		window:   window,
		logger:   logger,
		accepts:  accepts,
		raceLost: raceLost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateAndBroadcast creates one assignment for the order and offers it to
// every candidate. Idempotent per order: while an assignment for the same
// order is still broadcasting, a second call fails with ErrAlreadyBroadcasting.
func (d *Dispatcher) CreateAndBroadcast(ctx context.Context, order OrderInfo, candidates []string) (domain.Assignment, error) {
	if strings.TrimSpace(order.ID) == "" || len(candidates) == 0 {
		return domain.Assignment{}, apperr.ErrInvalid
	}

	now := d.now()
	entry := &assignment{
		a: domain.Assignment{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			Candidates:  append([]string(nil), candidates...),
			State:       domain.AssignmentBroadcast,
			BroadcastAt: now,
			Deadline:    now.Add(d.window),
		},
		pending: make(map[string]struct{}, len(candidates)),
	}
	for _, c := range candidates {
		entry.pending[c] = struct{}{}
	}

	d.mu.Lock()
	if cur := d.byOrder[order.ID]; cur != nil {
		d.mu.Unlock()
		return domain.Assignment{}, apperr.ErrAlreadyBroadcasting
	}
	d.byID[entry.a.ID] = entry
	d.byOrder[order.ID] = entry
	d.mu.Unlock()

	entry.mu.Lock()
	entry.timer = time.AfterFunc(d.window, func() { d.expire(entry.a.ID) })
	entry.mu.Unlock()

	offer := event.Event{
		Name: event.NewAssignment,
		Payload: event.NewAssignmentPayload{
			AssignmentID: entry.a.ID,
			OrderID:      order.ID,
			Drop:         order.Drop,
			ExpiresAt:    entry.a.Deadline,
		},
	}
	for _, c := range candidates {
		d.presence.SendTo(c, offer)
	}

	d.logger.Info("assignment broadcast",
		logx.String("event", "assignment_broadcast"),
		logx.String("assignment_id", entry.a.ID),
		logx.String("order_id", order.ID),
		logx.Int("candidates", len(candidates)),
	)
	return entry.snapshot(), nil
}

// Accept is the single-winner arbitration point. It is a compare-and-set on
// the assignment state: it succeeds only while the state is still broadcast,
// as one atomic step under the per-assignment lock. Losers receive a typed,
// non-retryable error and should look for new assignments instead.
func (d *Dispatcher) Accept(assignmentID, courierID string) (domain.AcceptResult, error) {
	entry, err := d.lookup(assignmentID)
	if err != nil {
		return domain.AcceptResult{}, err
	}

	entry.mu.Lock()
	if err := raceError(entry.a.State); err != nil {
		entry.mu.Unlock()
		if d.raceLost != nil {
			d.raceLost.Inc()
		}
		return domain.AcceptResult{}, err
	}
	if _, ok := entry.pending[courierID]; !ok {
		entry.mu.Unlock()
		return domain.AcceptResult{}, apperr.ErrNotFound
	}
	entry.a.State = domain.AssignmentAccepted
	entry.a.Winner = courierID
	delete(entry.pending, courierID)
	losers := pendingSnapshot(entry)
	if entry.timer != nil {
		entry.timer.Stop()
	}
	a := entry.a
	entry.mu.Unlock()

	d.clearOrder(a.OrderID, entry)
	d.withdraw(a, losers)

	if d.accepts != nil {
		d.accepts.Inc()
	}
	d.logger.Info("assignment accepted",
		logx.String("event", "assignment_accepted"),
		logx.String("assignment_id", a.ID),
		logx.String("order_id", a.OrderID),
		logx.String("courier_id", courierID),
	)
	return domain.AcceptResult{AssignmentID: a.ID, OrderID: a.OrderID, CourierID: courierID}, nil
}

// Reject removes the courier from further consideration. When the last
// pending candidate rejects, the assignment expires immediately instead of
// waiting out the timer, and the order system is told to re-dispatch.
func (d *Dispatcher) Reject(ctx context.Context, assignmentID, courierID string) error {
	entry, err := d.lookup(assignmentID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	if err := raceError(entry.a.State); err != nil {
		entry.mu.Unlock()
		return err
	}
	if _, ok := entry.pending[courierID]; !ok {
		entry.mu.Unlock()
		return apperr.ErrNotFound
	}
	delete(entry.pending, courierID)
	allRejected := len(entry.pending) == 0
	if allRejected {
		entry.a.State = domain.AssignmentExpired
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	a := entry.a
	entry.mu.Unlock()

	if allRejected {
		d.clearOrder(a.OrderID, entry)
		d.notifyExpired(ctx, a.OrderID)
		d.logger.Info("assignment expired: all candidates rejected",
			logx.String("assignment_id", a.ID),
			logx.String("order_id", a.OrderID),
		)
	}
	return nil
}

// CancelByOrder withdraws a still-broadcasting assignment because the order
// itself went away.
func (d *Dispatcher) CancelByOrder(orderID string) error {
	d.mu.Lock()
	entry := d.byOrder[orderID]
	d.mu.Unlock()
	if entry == nil {
		return apperr.ErrNotFound
	}

	entry.mu.Lock()
	if err := raceError(entry.a.State); err != nil {
		entry.mu.Unlock()
		return err
	}
	entry.a.State = domain.AssignmentCancelled
	if entry.timer != nil {
		entry.timer.Stop()
	}
	losers := pendingSnapshot(entry)
	a := entry.a
	entry.mu.Unlock()

	d.clearOrder(orderID, entry)
	d.withdraw(a, losers)
	return nil
}

// Get returns a snapshot of an assignment.
func (d *Dispatcher) Get(assignmentID string) (domain.Assignment, error) {
	entry, err := d.lookup(assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}
	return entry.snapshot(), nil
}

// expire is the broadcast deadline firing. It shares the compare-and-set
// guard with Accept, so a last-instant accept and the timer cannot both win,
// and a duplicate fire is harmless.
func (d *Dispatcher) expire(assignmentID string) {
	entry, err := d.lookup(assignmentID)
	if err != nil {
		return
	}

	entry.mu.Lock()
	if entry.a.State != domain.AssignmentBroadcast {
		entry.mu.Unlock()
		return
	}
	entry.a.State = domain.AssignmentExpired
	losers := pendingSnapshot(entry)
	a := entry.a
	entry.mu.Unlock()

	d.clearOrder(a.OrderID, entry)
	d.withdraw(a, losers)
	d.notifyExpired(context.Background(), a.OrderID)

	d.logger.Info("assignment expired",
		logx.String("event", "assignment_expired"),
		logx.String("assignment_id", a.ID),
		logx.String("order_id", a.OrderID),
	)
}

func (d *Dispatcher) lookup(assignmentID string) (*assignment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e := d.byID[assignmentID]; e != nil {
		return e, nil
	}
	return nil, apperr.ErrNotFound
}

// clearOrder releases the one-broadcast-per-order slot once entry left the
// broadcast state.
func (d *Dispatcher) clearOrder(orderID string, entry *assignment) {
	d.mu.Lock()
	if d.byOrder[orderID] == entry {
		delete(d.byOrder, orderID)
	}
	d.mu.Unlock()
}

// withdraw tells every candidate that had not yet acted that the offer is
// gone, so their UI can drop it without polling.
func (d *Dispatcher) withdraw(a domain.Assignment, candidates []string) {
	if len(candidates) == 0 {
		return
	}
	ev := event.Event{
		Name:    event.AssignmentWithdrawn,
		Payload: event.WithdrawnPayload{AssignmentID: a.ID, OrderID: a.OrderID},
	}
	for _, c := range candidates {
		d.presence.SendTo(c, ev)
	}
}

func (d *Dispatcher) notifyExpired(ctx context.Context, orderID string) {
	if d.orders == nil {
		return
	}
	if err := d.orders.AssignmentExpired(ctx, orderID); err != nil {
		d.logger.Error("order system notify failed",
			logx.String("order_id", orderID),
			logx.Any("err", err),
		)
	}
}

// raceError maps a non-broadcast state to the loser-facing error.
func raceError(s domain.AssignmentState) error {
	switch s {
	case domain.AssignmentBroadcast:
		return nil
	case domain.AssignmentAccepted:
		return apperr.ErrAlreadyAccepted
	default:
		return apperr.ErrAssignmentExpired
	}
}

func pendingSnapshot(e *assignment) []string {
	out := make([]string, 0, len(e.pending))
	for c := range e.pending {
		out = append(out, c)
	}
	return out
}

func (e *assignment) snapshot() domain.Assignment {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.a
	a.Candidates = append([]string(nil), e.a.Candidates...)
	return a
}
