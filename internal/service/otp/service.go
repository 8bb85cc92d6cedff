package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

// Service issues and verifies proof-of-delivery codes. One active code per
// order; issuing a new one invalidates the previous.
type Service struct {
	mu          sync.Mutex
	codes       map[string]*domain.OneTimeCode // keyed by order id
	notifier    Notifier
	ttl         time.Duration
	digits      int
	maxAttempts int
	logger      logx.Logger
	failures    counter
	now         func() time.Time
}

// NewService creates an OTP service.
func NewService(n Notifier, ttl time.Duration, digits, maxAttempts int, logger logx.Logger, failures counter) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if digits < 4 || digits > 6 {
		digits = 6
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{
		codes:       make(map[string]*domain.OneTimeCode),
		notifier:    n,
		ttl:         ttl,
		digits:      digits,
		maxAttempts: maxAttempts,
		logger:      logger,
		failures:    failures,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh code for the (order, courier) pair, stores it with
// the TTL and hands it to the notifier addressed to the customer. Any prior
// active code for the order no longer verifies. When the send fails the code
// is discarded and ErrNotificationFailed is returned.
func (s *Service) Issue(ctx context.Context, orderID, courierID, customerID string) error {
	code, err := generateCode(s.digits)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	s.codes[orderID] = &domain.OneTimeCode{
		OrderID:     orderID,
		CourierID:   courierID,
		Code:        code,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
		MaxAttempts: s.maxAttempts,
	}
	s.mu.Unlock()

	if err := s.notifier.Notify(ctx, customerID, "Your delivery code is "+code); err != nil {
		s.mu.Lock()
		delete(s.codes, orderID)
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", apperr.ErrNotificationFailed, err)
	}

	s.logger.Info("otp issued",
		logx.String("event", "otp_issued"),
		logx.String("order_id", orderID),
		logx.String("courier_id", courierID),
	)
	return nil
}

// Verify checks the submitted code against the single active one for the
// order. A correct code verifies exactly once; every wrong attempt increments
// the counter and reaching the cap invalidates the code proactively, before
// the submitted value is ever compared.
func (s *Service) Verify(orderID, submitted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.codes[orderID]
	if c == nil {
		s.countFailure()
		return apperr.ErrInvalidCode
	}
	if c.Expired(s.now()) {
		delete(s.codes, orderID)
		s.countFailure()
		return apperr.ErrCodeExpired
	}
	if c.Exhausted() {
		delete(s.codes, orderID)
		s.countFailure()
		return apperr.ErrAttemptsExceeded
	}
	if submitted != c.Code {
		c.Attempts++
		s.countFailure()
		if c.Exhausted() {
			return apperr.ErrAttemptsExceeded
		}
		return apperr.ErrInvalidCode
	}

	// consumed on success
	delete(s.codes, orderID)
	return nil
}

// Invalidate discards any active code for the order (delivery cancelled).
func (s *Service) Invalidate(orderID string) {
	s.mu.Lock()
	delete(s.codes, orderID)
	s.mu.Unlock()
}

func (s *Service) countFailure() {
	if s.failures != nil {
		s.failures.Inc()
	}
}

// generateCode returns a cryptographically random numeric code of the given
// width, left-padded with zeros.
func generateCode(digits int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < digits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
