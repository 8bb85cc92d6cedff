package location

import (
	"sync"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

// DeliveryResolver routes a courier's positions to its active delivery.
type DeliveryResolver interface {
	ActiveByCourier(courierID string) (domain.Delivery, bool)
	RecordLocation(deliveryID string, loc domain.Location)
}

// PresenceSender fans events out to an identity's live connections.
type PresenceSender interface {
	SendTo(identity string, ev event.Event) bool
}

// Relay accepts periodic courier positions and streams them to the
// subscribers of the courier's active delivery. Last-write-wins is decided by
// the position timestamp, never by arrival order.
type Relay struct {
	mu     sync.Mutex
	latest map[string]domain.Location          // courier id -> newest position
	subs   map[string]map[string]struct{}      // delivery id -> subscriber identities

	deliveries DeliveryResolver
	presence   PresenceSender
	logger     logx.Logger
}

// NewRelay creates a location relay.
func NewRelay(deliveries DeliveryResolver, presence PresenceSender, logger logx.Logger) *Relay {
	return &Relay{
		latest:     make(map[string]domain.Location),
		subs:       make(map[string]map[string]struct{}),
		deliveries: deliveries,
		presence:   presence,
		logger:     logger,
	}
}

// Publish stores the courier's newest position and forwards it to the active
// delivery's subscribers. An update whose timestamp is not newer than the
// stored one is dropped, never applied.
func (r *Relay) Publish(courierID string, loc domain.Location) {
	r.mu.Lock()
	if prev, ok := r.latest[courierID]; ok && !loc.Timestamp.After(prev.Timestamp) {
		r.mu.Unlock()
		r.logger.Debug("stale location dropped", logx.String("courier_id", courierID))
		return
	}
	r.latest[courierID] = loc
	r.mu.Unlock()

	d, ok := r.deliveries.ActiveByCourier(courierID)
	if !ok {
		return
	}
	r.deliveries.RecordLocation(d.ID, loc)

	r.mu.Lock()
	targets := make([]string, 0, len(r.subs[d.ID]))
	for id := range r.subs[d.ID] {
		targets = append(targets, id)
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		return
	}
	ev := event.Event{
		Name: event.LocationUpdate,
		Payload: event.LocationPayload{
			DeliveryID: d.ID,
			CourierID:  courierID,
			Lat:        loc.Lat,
			Lon:        loc.Lon,
			Timestamp:  loc.Timestamp,
		},
	}
	for _, id := range targets {
		r.presence.SendTo(id, ev)
	}
}

// Latest returns the newest stored position for a courier.
func (r *Relay) Latest(courierID string) (domain.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.latest[courierID]
	return loc, ok
}

// Subscribe registers an identity (the customer, optionally an observer) for
// the delivery's position stream.
func (r *Relay) Subscribe(deliveryID, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.subs[deliveryID]
	if s == nil {
		s = make(map[string]struct{})
		r.subs[deliveryID] = s
	}
	s[identity] = struct{}{}
}

// Unsubscribe removes the identity from the delivery's stream.
func (r *Relay) Unsubscribe(deliveryID, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.subs[deliveryID]; s != nil {
		delete(s, identity)
		if len(s) == 0 {
			delete(r.subs, deliveryID)
		}
	}
}
