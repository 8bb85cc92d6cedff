package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"service-dispatch/internal/domain"
)

// Order represents an order from the orders service.
type Order struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	CustomerID string          `json:"customer_id"`
	Drop       domain.GeoPoint `json:"drop_location"`
	CreatedAt  time.Time       `json:"created_at"`
}

// StatusError is a non-2xx response from the orders service. It drives the
// retryable classification in RetryingGateway.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("orders service: unexpected status %d", e.Code)
}

// HTTPGateway is an orders gateway backed by the orders service's JSON API.
type HTTPGateway struct {
	base   string
	client *http.Client
}

// NewHTTPGateway creates an orders gateway talking to baseURL.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if baseURL == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPGateway{base: baseURL, client: client}
}

// GetByID fetches an order by ID from the orders service. A 404 maps to a
// nil order, not an error.
func (g *HTTPGateway) GetByID(ctx context.Context, id string) (*Order, error) {
	var ord Order
	found, err := g.getJSON(ctx, fmt.Sprintf("%s/orders/%s", g.base, id), &ord)
	if err != nil {
		return nil, fmt.Errorf("order gateway: GetByID: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &ord, nil
}

// Candidates fetches the eligible-courier list for an order, in the order
// system's preference order.
func (g *HTTPGateway) Candidates(ctx context.Context, id string) ([]string, error) {
	var resp struct {
		Candidates []string `json:"candidates"`
	}
	found, err := g.getJSON(ctx, fmt.Sprintf("%s/orders/%s/candidates", g.base, id), &resp)
	if err != nil {
		return nil, fmt.Errorf("order gateway: Candidates: %w", err)
	}
	if !found {
		return nil, nil
	}
	return resp.Candidates, nil
}

// AssignmentExpired notifies the orders service that a broadcast went
// unanswered so it can re-dispatch.
func (g *HTTPGateway) AssignmentExpired(ctx context.Context, orderID string) error {
	return g.postJSON(ctx, fmt.Sprintf("%s/orders/%s/assignment-expired", g.base, orderID), nil)
}

// DeliveryCompleted notifies the orders service of a successful handoff.
func (g *HTTPGateway) DeliveryCompleted(ctx context.Context, orderID string) error {
	return g.postJSON(ctx, fmt.Sprintf("%s/orders/%s/delivery-completed", g.base, orderID), nil)
}

// DeliveryCancelled notifies the orders service of an aborted delivery.
func (g *HTTPGateway) DeliveryCancelled(ctx context.Context, orderID, reason string) error {
	body := map[string]string{"reason": reason}
	return g.postJSON(ctx, fmt.Sprintf("%s/orders/%s/delivery-cancelled", g.base, orderID), body)
}

func (g *HTTPGateway) getJSON(ctx context.Context, url string, dst any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false, err
	}
	defer drainClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, &StatusError{Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, url string, body any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
