package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/gemstone-market/identity/domain"
)

// SMTPConfig holds the relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTPMailer implements domain.EmailSender over an SMTP relay
type SMTPMailer struct {
	config SMTPConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(config SMTPConfig) domain.EmailSender {
	if config.From == "" {
		config.From = config.User
	}
	return &SMTPMailer{config: config, send: smtp.SendMail}
}

// SendEmail implements domain.EmailSender. net/smtp has no context support, so
// ctx is only checked before the handshake.
func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.config.User != "" {
		auth = smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	if err := m.send(addr, auth, m.config.From, []string{to}, buildMessage(m.config.From, to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}
	return []byte(strings.Join(headers, "\r\n"))
}
