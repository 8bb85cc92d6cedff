package otp_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/otp"
)

// stubNotifier captures the last delivered message so tests can extract the
// generated code exactly like a customer reading the SMS would.
type stubNotifier struct {
	mu       sync.Mutex
	messages []string
	to       []string
	err      error
}

func (s *stubNotifier) Notify(_ context.Context, identity, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, identity)
	s.messages = append(s.messages, message)
	return nil
}

func (s *stubNotifier) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.messages)
	msg := s.messages[len(s.messages)-1]
	i := strings.LastIndexByte(msg, ' ')
	require.Greater(t, i, 0)
	return msg[i+1:]
}

type stubCounter struct {
	mu sync.Mutex
	n  int
}

func (c *stubCounter) Inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *stubCounter) value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestIssueAndVerify_ConsumedOnce(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{}
	s := otp.NewService(n, time.Minute, 6, 5, logx.Nop(), nil)

	require.NoError(t, s.Issue(context.Background(), "order-1", "courier-1", "customer-1"))
	require.Equal(t, []string{"customer-1"}, n.to)

	code := n.lastCode(t)
	require.Len(t, code, 6)

	require.NoError(t, s.Verify("order-1", code))
	// consumed on success: the same code never verifies twice
	require.ErrorIs(t, s.Verify("order-1", code), apperr.ErrInvalidCode)
}

func TestIssue_NotificationFailureDiscardsCode(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{err: errors.New("carrier unavailable")}
	s := otp.NewService(n, time.Minute, 6, 5, logx.Nop(), nil)

	err := s.Issue(context.Background(), "order-1", "courier-1", "customer-1")
	require.ErrorIs(t, err, apperr.ErrNotificationFailed)

	// nothing usable was stored
	require.ErrorIs(t, s.Verify("order-1", "000000"), apperr.ErrInvalidCode)
}

func TestIssue_ReplacesPriorCode(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{}
	s := otp.NewService(n, time.Minute, 6, 5, logx.Nop(), nil)

	require.NoError(t, s.Issue(context.Background(), "order-1", "courier-1", "customer-1"))
	first := n.lastCode(t)

	require.NoError(t, s.Issue(context.Background(), "order-1", "courier-1", "customer-1"))
	second := n.lastCode(t)

	if first != second {
		require.ErrorIs(t, s.Verify("order-1", first), apperr.ErrInvalidCode)
	}
	require.NoError(t, s.Verify("order-1", second))
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{}
	s := otp.NewService(n, time.Millisecond, 6, 5, logx.Nop(), nil)

	require.NoError(t, s.Issue(context.Background(), "order-1", "courier-1", "customer-1"))
	code := n.lastCode(t)

	time.Sleep(10 * time.Millisecond)
	require.ErrorIs(t, s.Verify("order-1", code), apperr.ErrCodeExpired)

	// the expired code was discarded, not left to retry against
	require.ErrorIs(t, s.Verify("order-1", code), apperr.ErrInvalidCode)
}

func TestVerify_AttemptCapBeforeComparison(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{}
	failures := &stubCounter{}
	s := otp.NewService(n, time.Minute, 6, 5, logx.Nop(), failures)

	require.NoError(t, s.Issue(context.Background(), "order-1", "courier-1", "customer-1"))
	code := n.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < 4; i++ {
		require.ErrorIs(t, s.Verify("order-1", wrong), apperr.ErrInvalidCode)
	}
	require.ErrorIs(t, s.Verify("order-1", wrong), apperr.ErrAttemptsExceeded)

	// the correct code submitted after the cap must not verify
	require.ErrorIs(t, s.Verify("order-1", code), apperr.ErrAttemptsExceeded)
	require.ErrorIs(t, s.Verify("order-1", code), apperr.ErrInvalidCode)
	require.Equal(t, 7, failures.value())
}

func TestInvalidate_DiscardsActiveCode(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{}
	s := otp.NewService(n, time.Minute, 6, 5, logx.Nop(), nil)

	require.NoError(t, s.Issue(context.Background(), "order-1", "courier-1", "customer-1"))
	code := n.lastCode(t)

	s.Invalidate("order-1")
	require.ErrorIs(t, s.Verify("order-1", code), apperr.ErrInvalidCode)
}

func TestNewService_ClampsConfig(t *testing.T) {
	t.Parallel()

	n := &stubNotifier{}
	s := otp.NewService(n, -1, 99, 0, logx.Nop(), nil)
	require.NoError(t, s.Issue(context.Background(), "order-1", "courier-1", "customer-1"))
	require.Len(t, n.lastCode(t), 6)
}
