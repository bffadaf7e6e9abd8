package notifications

import (
	"context"
	"fmt"

	"github.com/gemstone-market/identity/domain"
)

// EmailRequest is the payload handed to the external email service
type EmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NATSMailer hands emails to an external delivery service over NATS
type NATSMailer struct {
	publisher domain.EventPublisher
	subject   string
}

// NewNATSMailer creates a mailer publishing to subject
func NewNATSMailer(publisher domain.EventPublisher, subject string) domain.EmailSender {
	return &NATSMailer{publisher: publisher, subject: subject}
}

// SendEmail implements domain.EmailSender
func (m *NATSMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := m.publisher.Publish(ctx, m.subject, EmailRequest{To: to, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("failed to publish email: %w", err)
	}
	return nil
}
