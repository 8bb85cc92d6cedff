package notify

import (
	"context"

	"service-dispatch/internal/logx"
)

// NopSender logs instead of sending. Used when no Twilio credentials are
// configured (local runs, tests).
type NopSender struct {
	logger logx.Logger
}

// NewNopSender returns a sender that only logs.
func NewNopSender(logger logx.Logger) *NopSender {
	return &NopSender{logger: logger}
}

// Notify logs the would-be message and reports success.
func (n *NopSender) Notify(_ context.Context, identity, message string) error {
	n.logger.Info("notification (nop)",
		logx.String("to", identity),
		logx.String("message", message),
	)
	return nil
}
