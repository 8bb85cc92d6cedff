package call

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

// PresenceSender fans events out to an identity's live connections.
type PresenceSender interface {
	SendTo(identity string, ev event.Event) bool
}

type session struct {
	mu    sync.Mutex // per-session lock
	s     domain.CallSession
	timer *time.Timer
}

// Service relays connection-negotiation payloads between the two identities
// of a room. Payloads are opaque blobs; the service only validates that
// the session state permits each transition.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session // keyed by room id; one call per room

	presence    PresenceSender
	ringTimeout time.Duration
	logger      logx.Logger
	now         func() time.Time
}

// NewService creates a call signaling relay.
func NewService(p PresenceSender, ringTimeout time.Duration, logger logx.Logger) *Service {
	if ringTimeout <= 0 {
		ringTimeout = 30 * time.Second
	}
	return &Service{
		sessions:    make(map[string]*session),
		presence:    p,
		ringTimeout: ringTimeout,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ring starts a session: the initiator offers a signaling payload to the
// other member of the room. Unanswered rings end on the ring timeout.
func (s *Service) Ring(roomID, from string, payload json.RawMessage) error {
	callee, err := domain.RoomPeer(roomID, from)
	if err != nil {
		return err
	}

	sess := &session{s: domain.CallSession{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Initiator: from,
		Callee:    callee,
		State:     domain.CallRinging,
		StartedAt: s.now(),
	}}

	s.mu.Lock()
	if cur := s.sessions[roomID]; cur != nil {
		s.mu.Unlock()
		return apperr.ErrConflict
	}
	s.sessions[roomID] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	sess.timer = time.AfterFunc(s.ringTimeout, func() { s.timeout(roomID, sess) })
	sess.mu.Unlock()

	s.presence.SendTo(callee, event.Event{
		Name:    event.CallRing,
		Payload: event.CallPayload{RoomID: roomID, From: from, Signal: payload},
	})
	s.logger.Info("call ringing",
		logx.String("event", "call_ringing"),
		logx.String("room_id", roomID),
		logx.String("call_id", sess.s.ID),
	)
	return nil
}

// Answer moves a ringing session to active and relays the answer payload
// back to the initiator.
func (s *Service) Answer(roomID string, payload json.RawMessage) error {
	sess, err := s.lookup(roomID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.s.State != domain.CallRinging {
		sess.mu.Unlock()
		return apperr.ErrBadState
	}
	sess.s.State = domain.CallActive
	if sess.timer != nil {
		sess.timer.Stop()
	}
	initiator, callee := sess.s.Initiator, sess.s.Callee
	sess.mu.Unlock()

	s.presence.SendTo(initiator, event.Event{
		Name:    event.CallAnswer,
		Payload: event.CallPayload{RoomID: roomID, From: callee, Signal: payload},
	})
	return nil
}

// Decline ends a ringing session from the callee side.
func (s *Service) Decline(roomID string) error {
	return s.end(roomID, "declined", domain.CallRinging)
}

// RelayICE forwards a connectivity candidate to the other party. Permitted
// while the session is ringing or active.
func (s *Service) RelayICE(roomID, from string, payload json.RawMessage) error {
	sess, err := s.lookup(roomID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.s.State == domain.CallEnded {
		sess.mu.Unlock()
		return apperr.ErrBadState
	}
	other := sess.s.Callee
	if from == sess.s.Callee {
		other = sess.s.Initiator
	}
	sess.mu.Unlock()

	s.presence.SendTo(other, event.Event{
		Name:    event.CallICE,
		Payload: event.CallPayload{RoomID: roomID, From: from, Signal: payload},
	})
	return nil
}

// End hangs up from either side, in any non-ended state.
func (s *Service) End(roomID string) error {
	return s.end(roomID, "hangup", domain.CallRinging, domain.CallActive)
}

// State returns the session state for a room.
func (s *Service) State(roomID string) (domain.CallState, error) {
	sess, err := s.lookup(roomID)
	if err != nil {
		return "", err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.s.State, nil
}

// timeout fires when a ring goes unanswered. Guarded by the session state,
// so firing after an answer or hangup is a harmless no-op.
func (s *Service) timeout(roomID string, sess *session) {
	sess.mu.Lock()
	if sess.s.State != domain.CallRinging {
		sess.mu.Unlock()
		return
	}
	sess.s.State = domain.CallEnded
	initiator, callee := sess.s.Initiator, sess.s.Callee
	sess.mu.Unlock()

	s.remove(roomID, sess)
	ev := event.Event{
		Name:    event.CallEnd,
		Payload: event.CallPayload{RoomID: roomID, Reason: "timeout"},
	}
	s.presence.SendTo(initiator, ev)
	s.presence.SendTo(callee, ev)
}

func (s *Service) end(roomID, reason string, allowed ...domain.CallState) error {
	sess, err := s.lookup(roomID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	permitted := false
	for _, st := range allowed {
		if sess.s.State == st {
			permitted = true
			break
		}
	}
	if !permitted {
		sess.mu.Unlock()
		return apperr.ErrBadState
	}
	sess.s.State = domain.CallEnded
	if sess.timer != nil {
		sess.timer.Stop()
	}
	initiator, callee := sess.s.Initiator, sess.s.Callee
	sess.mu.Unlock()

	s.remove(roomID, sess)
	ev := event.Event{
		Name:    event.CallEnd,
		Payload: event.CallPayload{RoomID: roomID, Reason: reason},
	}
	s.presence.SendTo(initiator, ev)
	s.presence.SendTo(callee, ev)
	return nil
}

func (s *Service) lookup(roomID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.sessions[roomID]; sess != nil {
		return sess, nil
	}
	return nil, apperr.ErrNotFound
}

// remove frees the room's call slot once the session ended.
func (s *Service) remove(roomID string, sess *session) {
	s.mu.Lock()
	if s.sessions[roomID] == sess {
		delete(s.sessions, roomID)
	}
	s.mu.Unlock()
}
