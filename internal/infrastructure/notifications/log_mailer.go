package notifications

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// LogMailer writes emails to the log instead of sending them. Used in
// development.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a new log-only mailer
func NewLogMailer(log zerolog.Logger) domain.EmailSender {
	return &LogMailer{log: log}
}

// SendEmail implements domain.EmailSender
func (m *LogMailer) SendEmail(_ context.Context, to, subject, body string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email (not sent)")
	return nil
}
