package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
)

type room struct {
	members map[string]struct{}
	typing  map[string]*time.Timer // sender -> auto-clear timer
}

// Service relays negotiation messages and typing indicators between the two
// members of a room. Messages are not stored here; durability belongs to the
// external history store behind Mirror.
type Service struct {
	mu    sync.Mutex
	rooms map[string]*room

	presence      PresenceSender
	mirror        Mirror
	suggestions   SuggestionGenerator
	typingTimeout time.Duration
	logger        logx.Logger
	now           func() time.Time
}

// NewService creates a negotiation channel service.
func NewService(p PresenceSender, mirror Mirror, sg SuggestionGenerator, typingTimeout time.Duration, logger logx.Logger) *Service {
	if typingTimeout <= 0 {
		typingTimeout = 2500 * time.Millisecond
	}
	return &Service{
		rooms:         make(map[string]*room),
		presence:      p,
		mirror:        mirror,
		suggestions:   sg,
		typingTimeout: typingTimeout,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Join registers the identity as a member of the room. The room id must be
// the deterministic pairing key that names the identity.
func (s *Service) Join(roomID, identity string) error {
	if _, err := domain.RoomPeer(roomID, identity); err != nil {
		return err
	}
	s.mu.Lock()
	rm := s.rooms[roomID]
	if rm == nil {
		rm = &room{members: make(map[string]struct{}), typing: make(map[string]*time.Timer)}
		s.rooms[roomID] = rm
	}
	rm.members[identity] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Leave drops the identity's ephemeral membership; the last member leaving
// removes the room and stops any typing timers.
func (s *Service) Leave(roomID, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm := s.rooms[roomID]
	if rm == nil {
		return
	}
	delete(rm.members, identity)
	if t := rm.typing[identity]; t != nil {
		t.Stop()
		delete(rm.typing, identity)
	}
	if len(rm.members) == 0 {
		for _, t := range rm.typing {
			t.Stop()
		}
		delete(s.rooms, roomID)
	}
}

// Send relays a message to the other member. Delivery is best-effort: an
// offline peer is not an error, presence resolves it on reconnect. The
// message is mirrored to the external history store on the side.
func (s *Service) Send(ctx context.Context, roomID, sender, text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.ErrInvalid
	}
	peer, err := domain.RoomPeer(roomID, sender)
	if err != nil {
		return err
	}

	m := domain.Message{RoomID: roomID, Sender: sender, Text: text, SentAt: s.now()}
	s.presence.SendTo(peer, event.Event{
		Name:    event.SendMessage,
		Payload: event.MessagePayload{RoomID: roomID, Sender: sender, Text: text, SentAt: m.SentAt},
	})

	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, m); err != nil {
			s.logger.Warn("message mirror failed",
				logx.String("room_id", roomID),
				logx.Any("err", err),
			)
		}
	}
	return nil
}

// SetTyping relays the typing flag to the peer. A set indicator auto-clears
// after the debounce window so a dropped stop-typing cannot leave it stuck.
func (s *Service) SetTyping(roomID, sender string, isTyping bool) error {
	peer, err := domain.RoomPeer(roomID, sender)
	if err != nil {
		return err
	}

	s.mu.Lock()
	rm := s.rooms[roomID]
	if rm == nil {
		rm = &room{members: make(map[string]struct{}), typing: make(map[string]*time.Timer)}
		s.rooms[roomID] = rm
	}
	if t := rm.typing[sender]; t != nil {
		t.Stop()
		delete(rm.typing, sender)
	}
	if isTyping {
		rm.typing[sender] = time.AfterFunc(s.typingTimeout, func() { s.clearTyping(roomID, sender, peer) })
	}
	s.mu.Unlock()

	name := event.StopTyping
	if isTyping {
		name = event.Typing
	}
	s.presence.SendTo(peer, event.Event{
		Name:    name,
		Payload: event.TypingPayload{RoomID: roomID, Sender: sender},
	})
	return nil
}

// clearTyping fires on the debounce deadline; if the indicator was already
// cleared or re-armed, the stale timer is a no-op.
func (s *Service) clearTyping(roomID, sender, peer string) {
	s.mu.Lock()
	rm := s.rooms[roomID]
	if rm == nil || rm.typing[sender] == nil {
		s.mu.Unlock()
		return
	}
	delete(rm.typing, sender)
	s.mu.Unlock()

	s.presence.SendTo(peer, event.Event{
		Name:    event.StopTyping,
		Payload: event.TypingPayload{RoomID: roomID, Sender: sender},
	})
}

// Suggestions passes recent room context to the external generator. Failures
// surface as an empty result.
func (s *Service) Suggestions(ctx context.Context, recent []string) []string {
	if s.suggestions == nil || len(recent) == 0 {
		return nil
	}
	out, err := s.suggestions.Suggest(ctx, recent)
	if err != nil {
		s.logger.Debug("suggestion generator failed", logx.Any("err", err))
		return nil
	}
	return out
}
