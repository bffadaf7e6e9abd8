package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/metrics"
)

// DispatcherImpl implements domain.Dispatcher. Every send runs in its own
// goroutine bounded by timeout; failures are logged and counted, never
// returned.
type DispatcherImpl struct {
	email   domain.EmailSender
	sms     domain.SMSSender
	baseURL string
	timeout time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewDispatcher creates a new asynchronous dispatcher
func NewDispatcher(email domain.EmailSender, sms domain.SMSSender, baseURL string, timeout time.Duration, log zerolog.Logger, m *metrics.Metrics) *DispatcherImpl {
	return &DispatcherImpl{
		email:   email,
		sms:     sms,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		log:     log,
		metrics: m,
	}
}

// SendVerificationEmail implements domain.Dispatcher
func (d *DispatcherImpl) SendVerificationEmail(ctx context.Context, to, token string) {
	link := fmt.Sprintf("%s/auth/verify-email/%s", d.baseURL, token)
	body := fmt.Sprintf("Welcome to the Gemstone Marketplace.\r\n\r\nConfirm your email address by opening the link below:\r\n%s\r\n", link)
	d.dispatch(ctx, "email", func(ctx context.Context) error {
		return d.email.SendEmail(ctx, to, "Verify your email address", body)
	})
}

// SendPasswordResetEmail implements domain.Dispatcher
func (d *DispatcherImpl) SendPasswordResetEmail(ctx context.Context, to, token string) {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", d.baseURL, token)
	body := fmt.Sprintf("A password reset was requested for your account.\r\n\r\nChoose a new password here:\r\n%s\r\n\r\nIf you did not request this, ignore this email.\r\n", link)
	d.dispatch(ctx, "email", func(ctx context.Context) error {
		return d.email.SendEmail(ctx, to, "Reset your password", body)
	})
}

// SendSecurityAlert implements domain.Dispatcher. Accounts without a phone
// number are skipped.
func (d *DispatcherImpl) SendSecurityAlert(ctx context.Context, phone, message string) {
	if phone == "" || d.sms == nil {
		return
	}
	d.dispatch(ctx, "sms", func(ctx context.Context) error {
		return d.sms.SendSMS(ctx, phone, message)
	})
}

// Wait blocks until in-flight sends finish
func (d *DispatcherImpl) Wait() {
	d.wg.Wait()
}

func (d *DispatcherImpl) dispatch(ctx context.Context, channel string, send func(context.Context) error) {
	// detach from the request so a finished handler does not cancel delivery
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		if err := send(ctx); err != nil {
			d.log.Error().Err(err).Str("channel", channel).Msg("notification dispatch failed")
			d.metrics.Notification(channel, "failed")
			return
		}
		d.metrics.Notification(channel, "sent")
	}()
}
