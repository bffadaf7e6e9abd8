package notifications

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/gemstone-market/identity/domain"
)

// messageCreator is the slice of the Twilio API used here
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioServiceImpl implements domain.SMSSender
type TwilioServiceImpl struct {
	api        messageCreator
	fromNumber string
	log        zerolog.Logger
}

// NewTwilioService creates a new Twilio SMS sender
func NewTwilioService(accountSID, authToken, fromNumber string, log zerolog.Logger) domain.SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioServiceImpl{
		api:        client.Api,
		fromNumber: fromNumber,
		log:        log,
	}
}

// SendSMS implements domain.SMSSender
func (t *TwilioServiceImpl) SendSMS(ctx context.Context, to, message string) error {
	// If credentials are not configured, log instead of sending
	if t.fromNumber == "" {
		t.log.Info().Str("to", to).Str("message", message).Msg("sms (not sent)")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
