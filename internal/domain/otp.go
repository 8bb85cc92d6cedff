package domain

import "time"

// OneTimeCode is the proof-of-delivery code bound to an (order, courier)
// pair. One active code per order; issuing a new one invalidates the previous.
type OneTimeCode struct {
	OrderID     string
	CourierID   string
	Code        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Attempts    int
	MaxAttempts int
}

// Expired reports whether the code outlived its TTL at the given instant.
func (c OneTimeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Exhausted reports whether the attempt cap has been reached.
func (c OneTimeCode) Exhausted() bool {
	return c.Attempts >= c.MaxAttempts
}
