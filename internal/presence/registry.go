package presence

import (
	"sync"
	"time"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

type entry struct {
	conns        map[Sink]struct{}
	status       domain.PresenceStatus
	offlineTimer *time.Timer
}

// Registry maps a participant identity to its live connections and status.
// Connection sets are mutated only by Register/Unregister; business logic
// only reads status and sends.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	watchers map[string]map[string]struct{} // target -> observers
	grace    time.Duration
	logger   logx.Logger
	drops    counter
}

// NewRegistry creates a presence registry. grace delays the offline
// transition after the last connection closes to absorb reconnect churn.
func NewRegistry(grace time.Duration, logger logx.Logger, drops counter) *Registry {
	if grace < 0 {
		grace = 0
	}
	return &Registry{
		entries:  make(map[string]*entry),
		watchers: make(map[string]map[string]struct{}),
		grace:    grace,
		logger:   logger,
		drops:    drops,
	}
}

// Register adds a connection to the identity's set. The first live connection
// flips the identity online and notifies watchers.
func (r *Registry) Register(identity string, conn Sink) {
	r.mu.Lock()
	e := r.entries[identity]
	if e == nil {
		e = &entry{conns: make(map[Sink]struct{}), status: domain.StatusOffline}
		r.entries[identity] = e
	}
	if e.offlineTimer != nil {
		e.offlineTimer.Stop()
		e.offlineTimer = nil
	}
	e.conns[conn] = struct{}{}
	changed := e.status == domain.StatusOffline
	if changed {
		e.status = domain.StatusOnline
	}
	r.mu.Unlock()

	if changed {
		r.notifyWatchers(identity, domain.StatusOnline)
	}
	r.logger.Debug("connection registered", logx.String("identity", identity))
}

// Unregister removes a connection. When the set drains, the identity goes
// offline after the grace window unless it reconnects first.
func (r *Registry) Unregister(identity string, conn Sink) {
	r.mu.Lock()
	e := r.entries[identity]
	if e == nil {
		r.mu.Unlock()
		return
	}
	delete(e.conns, conn)
	if len(e.conns) > 0 || e.status == domain.StatusOffline {
		r.mu.Unlock()
		return
	}
	if e.offlineTimer != nil {
		e.offlineTimer.Stop()
	}
	e.offlineTimer = time.AfterFunc(r.grace, func() { r.markOffline(identity) })
	r.mu.Unlock()
}

// markOffline flips the identity offline if it is still drained. A duplicate
// or late timer fire is a harmless no-op.
func (r *Registry) markOffline(identity string) {
	r.mu.Lock()
	e := r.entries[identity]
	if e == nil || len(e.conns) > 0 || e.status == domain.StatusOffline {
		r.mu.Unlock()
		return
	}
	e.status = domain.StatusOffline
	e.offlineTimer = nil
	r.mu.Unlock()

	r.notifyWatchers(identity, domain.StatusOffline)
	r.logger.Info("participant offline", logx.String("identity", identity))
}

// SetStatus switches a connected identity between online and away. It is a
// no-op for identities with no live connection; offline is derived from the
// connection lifecycle only.
func (r *Registry) SetStatus(identity string, status domain.PresenceStatus) {
	if status != domain.StatusOnline && status != domain.StatusAway {
		return
	}
	r.mu.Lock()
	e := r.entries[identity]
	if e == nil || len(e.conns) == 0 || e.status == status {
		r.mu.Unlock()
		return
	}
	e.status = status
	r.mu.Unlock()

	r.notifyWatchers(identity, status)
}

// StatusOf is a synchronous status lookup; unknown identities are offline.
func (r *Registry) StatusOf(identity string) domain.PresenceStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.entries[identity]; e != nil {
		return e.status
	}
	return domain.StatusOffline
}

// SendTo fans one event out to every live connection of the identity. It
// reports whether at least one connection took the event; no delivery is a
// silent no-op, not an error. Callers must not assume delivery.
func (r *Registry) SendTo(identity string, ev event.Event) bool {
	r.mu.Lock()
	e := r.entries[identity]
	if e == nil || len(e.conns) == 0 {
		r.mu.Unlock()
		return false
	}
	conns := make([]Sink, 0, len(e.conns))
	for c := range e.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	delivered := false
	for _, c := range conns {
		if c.TrySend(ev) {
			delivered = true
			continue
		}
		// full outbound queue: drop the connection instead of back-pressuring
		if r.drops != nil {
			r.drops.Inc()
		}
		r.logger.Warn("slow consumer dropped", logx.String("identity", identity))
		c.Close()
		r.Unregister(identity, c)
	}
	return delivered
}

// Watch subscribes observer to target's status changes, delivered as
// user-status-change events over the observer's own connections.
func (r *Registry) Watch(observer, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.watchers[target]
	if w == nil {
		w = make(map[string]struct{})
		r.watchers[target] = w
	}
	w[observer] = struct{}{}
}

// Unwatch removes the subscription.
func (r *Registry) Unwatch(observer, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w := r.watchers[target]; w != nil {
		delete(w, observer)
		if len(w) == 0 {
			delete(r.watchers, target)
		}
	}
}

func (r *Registry) notifyWatchers(identity string, status domain.PresenceStatus) {
	r.mu.Lock()
	observers := make([]string, 0, len(r.watchers[identity]))
	for o := range r.watchers[identity] {
		observers = append(observers, o)
	}
	r.mu.Unlock()

	ev := event.Event{
		Name:    event.UserStatusChange,
		Payload: event.StatusChangePayload{Identity: identity, Status: status},
	}
	for _, o := range observers {
		r.SendTo(o, ev)
	}
}
