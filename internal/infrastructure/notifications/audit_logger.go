package notifications

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
)

// AuditLoggerImpl implements domain.AuditLogger. Events always go to the log;
// when a publisher is set they are also published to <prefix>.<event>.
type AuditLoggerImpl struct {
	log       zerolog.Logger
	publisher domain.EventPublisher
	prefix    string
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewAuditLogger creates a new audit logger. publisher may be nil.
func NewAuditLogger(log zerolog.Logger, publisher domain.EventPublisher, prefix string, timeout time.Duration) *AuditLoggerImpl {
	return &AuditLoggerImpl{
		log:       log.With().Str("component", "audit").Logger(),
		publisher: publisher,
		prefix:    prefix,
		timeout:   timeout,
	}
}

// LogEvent implements domain.AuditLogger
func (a *AuditLoggerImpl) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	if event == nil {
		return
	}
	if event.IPAddress == "" {
		event.WithClientContext(domain.ClientContextFrom(ctx))
	}

	entry := a.log.Info()
	if !event.Success {
		entry = a.log.Warn().Str("error", event.ErrorMsg)
	}
	entry.
		Str("event_type", string(event.EventType)).
		Uint("account_id", event.AccountID).
		Str("ip_address", event.IPAddress).
		Str("user_agent", event.UserAgent).
		Bool("success", event.Success).
		Fields(event.Metadata).
		Msg("audit event")

	if a.publisher == nil {
		return
	}

	subject := a.prefix + "." + strings.ToLower(string(event.EventType))
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		if err := a.publisher.Publish(ctx, subject, event); err != nil {
			a.log.Error().Err(err).Str("subject", subject).Msg("failed to publish audit event")
		}
	}()
}

// Wait blocks until in-flight publishes finish
func (a *AuditLoggerImpl) Wait() {
	a.wg.Wait()
}
