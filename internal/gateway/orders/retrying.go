package order

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"service-dispatch/internal/logx"
)

type gateway interface {
	GetByID(context.Context, string) (*Order, error)
	Candidates(context.Context, string) ([]string, error)
	AssignmentExpired(context.Context, string) error
	DeliveryCompleted(context.Context, string) error
	DeliveryCancelled(ctx context.Context, orderID, reason string) error
}

type counter interface {
	Inc()
}

// RetryConfig describes RetryingGateway behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingGateway wraps an orders gateway with bounded exponential backoff
// on transient failures.
type RetryingGateway struct {
	next    gateway
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingGateway checks that next is not nil and returns a RetryingGateway.
func NewRetryingGateway(next gateway, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingGateway {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingGateway{next: next, logger: logger, retries: retries, cfg: cfg}
}

// GetByID fetches an order by ID, retrying transient failures.
func (g *RetryingGateway) GetByID(ctx context.Context, id string) (*Order, error) {
	var ord *Order
	err := g.do(ctx, "GetByID", func() error {
		var err error
		ord, err = g.next.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ord, nil
}

// Candidates fetches the eligible-courier list, retrying transient failures.
func (g *RetryingGateway) Candidates(ctx context.Context, id string) ([]string, error) {
	var out []string
	err := g.do(ctx, "Candidates", func() error {
		var err error
		out, err = g.next.Candidates(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignmentExpired delivers the re-dispatch notification, retrying transient failures.
func (g *RetryingGateway) AssignmentExpired(ctx context.Context, orderID string) error {
	return g.do(ctx, "AssignmentExpired", func() error {
		return g.next.AssignmentExpired(ctx, orderID)
	})
}

// DeliveryCompleted delivers the completion notification, retrying transient failures.
func (g *RetryingGateway) DeliveryCompleted(ctx context.Context, orderID string) error {
	return g.do(ctx, "DeliveryCompleted", func() error {
		return g.next.DeliveryCompleted(ctx, orderID)
	})
}

// DeliveryCancelled delivers the cancellation notification, retrying transient failures.
func (g *RetryingGateway) DeliveryCancelled(ctx context.Context, orderID, reason string) error {
	return g.do(ctx, "DeliveryCancelled", func() error {
		return g.next.DeliveryCancelled(ctx, orderID, reason)
	})
}

func (g *RetryingGateway) do(ctx context.Context, method string, call func() error) error {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !isRetryable(err) {
			break
		}
		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		if g.retries != nil {
			g.retries.Inc()
		}
		g.logger.Warn("orders gateway retry",
			logx.String("method", method),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Any("err", err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

// isRetryable treats throttling, upstream unavailability and network
// timeouts as transient.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// backoff computes the retry delay.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
