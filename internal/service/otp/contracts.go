package otp

import "context"

// Notifier delivers a message to an identity out-of-band (SMS/push). A
// synchronous error means the code never reached the customer and the caller
// must roll back whatever transition triggered the issue.
type Notifier interface {
	Notify(ctx context.Context, identity, message string) error
}

type counter interface {
	Inc()
}
