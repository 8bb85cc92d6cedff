// Package notify delivers out-of-band messages (OTP codes, assignment
// alerts) through an external sender.
package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"service-dispatch/internal/logx"
)

// TwilioSender sends SMS through the Twilio REST API. The identity handed in
// is the participant's phone number; the surrounding platform resolves
// identities to numbers before they reach the core.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	logger logx.Logger
}

// NewTwilioSender creates a Twilio-backed sender.
func NewTwilioSender(accountSID, authToken, from string, logger logx.Logger) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing twilio credentials")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from, logger: logger}, nil
}

// Notify sends one SMS. A synchronous error means the message did not leave.
func (t *TwilioSender) Notify(_ context.Context, identity, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(identity)
	params.SetBody(message)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.logger.Info("sms sent",
		logx.String("to", identity),
		logx.String("sid", sid),
	)
	return nil
}
