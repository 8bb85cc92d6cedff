package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/event"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/chat"
)

type stubPresence struct {
	mu   sync.Mutex
	byID map[string][]event.Event
}

func newStubPresence() *stubPresence {
	return &stubPresence{byID: make(map[string][]event.Event)}
}

func (s *stubPresence) SendTo(identity string, ev event.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[identity] = append(s.byID[identity], ev)
	return false // peer offline; relays stay best-effort
}

func (s *stubPresence) sent(identity string) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Event(nil), s.byID[identity]...)
}

type stubMirror struct {
	mu       sync.Mutex
	err      error
	messages []domain.Message
}

func (s *stubMirror) Mirror(_ context.Context, m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m)
	return nil
}

func (s *stubMirror) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type stubSuggester struct {
	out []string
	err error
}

func (s stubSuggester) Suggest(context.Context, []string) ([]string, error) {
	return s.out, s.err
}

func TestJoin_ValidatesMembership(t *testing.T) {
	t.Parallel()

	s := chat.NewService(newStubPresence(), nil, nil, time.Minute, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	require.NoError(t, s.Join(room, "courier-1"))
	require.NoError(t, s.Join(room, "customer-1"))
	require.ErrorIs(t, s.Join(room, "stranger"), apperr.ErrNotFound)
	require.ErrorIs(t, s.Join("not-a-room", "courier-1"), apperr.ErrInvalid)
}

func TestSend_RelaysToPeerAndMirrors(t *testing.T) {
	t.Parallel()

	p := newStubPresence()
	mirror := &stubMirror{}
	s := chat.NewService(p, mirror, nil, time.Minute, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	// the peer is offline (SendTo returns false) yet Send still succeeds
	require.NoError(t, s.Send(context.Background(), room, "courier-1", "5 minutes away"))

	evs := p.sent("customer-1")
	require.Len(t, evs, 1)
	require.Equal(t, event.SendMessage, evs[0].Name)
	payload, ok := evs[0].Payload.(event.MessagePayload)
	require.True(t, ok)
	require.Equal(t, "courier-1", payload.Sender)
	require.Equal(t, "5 minutes away", payload.Text)
	require.False(t, payload.SentAt.IsZero())

	require.Equal(t, 1, mirror.count())
}

func TestSend_EmptyTextRejected(t *testing.T) {
	t.Parallel()

	s := chat.NewService(newStubPresence(), nil, nil, time.Minute, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	require.ErrorIs(t, s.Send(context.Background(), room, "courier-1", "   "), apperr.ErrInvalid)
}

func TestSend_MirrorFailureDoesNotFailRelay(t *testing.T) {
	t.Parallel()

	p := newStubPresence()
	mirror := &stubMirror{err: errors.New("broker down")}
	s := chat.NewService(p, mirror, nil, time.Minute, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	require.NoError(t, s.Send(context.Background(), room, "courier-1", "hello"))
	require.Len(t, p.sent("customer-1"), 1)
}

func TestSetTyping_RelayAndAutoClear(t *testing.T) {
	t.Parallel()

	p := newStubPresence()
	s := chat.NewService(p, nil, nil, 20*time.Millisecond, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	require.NoError(t, s.SetTyping(room, "courier-1", true))
	evs := p.sent("customer-1")
	require.Len(t, evs, 1)
	require.Equal(t, event.Typing, evs[0].Name)

	// a dropped stop-typing cannot leave the indicator stuck
	require.Eventually(t, func() bool {
		evs := p.sent("customer-1")
		return len(evs) == 2 && evs[1].Name == event.StopTyping
	}, time.Second, 5*time.Millisecond)
}

func TestSetTyping_ExplicitStopCancelsTimer(t *testing.T) {
	t.Parallel()

	p := newStubPresence()
	s := chat.NewService(p, nil, nil, 30*time.Millisecond, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	require.NoError(t, s.SetTyping(room, "courier-1", true))
	require.NoError(t, s.SetTyping(room, "courier-1", false))

	time.Sleep(80 * time.Millisecond)
	evs := p.sent("customer-1")
	require.Len(t, evs, 2) // typing + the explicit stop, no timer duplicate
	require.Equal(t, event.StopTyping, evs[1].Name)
}

func TestSetTyping_RearmResetsDebounce(t *testing.T) {
	t.Parallel()

	p := newStubPresence()
	s := chat.NewService(p, nil, nil, 40*time.Millisecond, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	require.NoError(t, s.SetTyping(room, "courier-1", true))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.SetTyping(room, "courier-1", true))

	require.Eventually(t, func() bool {
		evs := p.sent("customer-1")
		return evs[len(evs)-1].Name == event.StopTyping
	}, time.Second, 5*time.Millisecond)

	// two typing relays, exactly one auto-clear
	evs := p.sent("customer-1")
	require.Len(t, evs, 3)
}

func TestLeave_LastMemberDropsRoom(t *testing.T) {
	t.Parallel()

	s := chat.NewService(newStubPresence(), nil, nil, time.Minute, logx.Nop())
	room := domain.RoomID("courier-1", "customer-1")

	require.NoError(t, s.Join(room, "courier-1"))
	require.NoError(t, s.Join(room, "customer-1"))
	s.Leave(room, "courier-1")
	s.Leave(room, "customer-1")
	// leaving an unknown room is a no-op
	s.Leave("room:a:b", "a")
}

func TestSuggestions(t *testing.T) {
	t.Parallel()

	recent := []string{"courier: I am outside", "customer: which entrance?"}

	s := chat.NewService(newStubPresence(), nil, stubSuggester{out: []string{"Main entrance", "By the gate"}}, time.Minute, logx.Nop())
	require.Equal(t, []string{"Main entrance", "By the gate"}, s.Suggestions(context.Background(), recent))

	s = chat.NewService(newStubPresence(), nil, stubSuggester{err: errors.New("quota")}, time.Minute, logx.Nop())
	require.Nil(t, s.Suggestions(context.Background(), recent))

	// no generator configured
	s = chat.NewService(newStubPresence(), nil, nil, time.Minute, logx.Nop())
	require.Nil(t, s.Suggestions(context.Background(), recent))
	require.Nil(t, s.Suggestions(context.Background(), nil))
}
