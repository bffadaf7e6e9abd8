package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Account lifecycle events
	AccountRegisteredEvent    AuditEventType = "ACCOUNT_REGISTERED"
	EmailVerifiedEvent        AuditEventType = "EMAIL_VERIFIED"
	AccountStatusChangedEvent AuditEventType = "ACCOUNT_STATUS_CHANGED"

	// Authentication events
	LoginEvent        AuditEventType = "LOGIN"
	LoginFailureEvent AuditEventType = "LOGIN_FAILED"
	LogoutEvent       AuditEventType = "LOGOUT"
	RefreshEvent      AuditEventType = "TOKEN_REFRESHED"
	RefreshReuseEvent AuditEventType = "REFRESH_REUSE_REJECTED"

	// Credential events
	PasswordResetRequestedEvent AuditEventType = "PASSWORD_RESET_REQUESTED"
	PasswordResetEvent          AuditEventType = "PASSWORD_RESET"
	PasswordChangedEvent        AuditEventType = "PASSWORD_CHANGED"

	// Second factor events
	MFAEnrolledEvent         AuditEventType = "MFA_ENROLLED"
	MFADisabledEvent         AuditEventType = "MFA_DISABLED"
	MFAChallengeFailureEvent AuditEventType = "MFA_CHALLENGE_FAILED"

	// Authorization events
	RoleChangedEvent  AuditEventType = "ROLE_CHANGED"
	AccessDeniedEvent AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	AccountID uint                   `json:"account_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// AuditLogger records audit events. Implementations must not block the
// request path on slow sinks.
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// ClientContext represents client information extracted from HTTP request
type ClientContext struct {
	IPAddress string
	UserAgent string
}

type clientContextKey struct{}

// WithClientContext stores request metadata for audit events
func WithClientContext(ctx context.Context, cc *ClientContext) context.Context {
	return context.WithValue(ctx, clientContextKey{}, cc)
}

// ClientContextFrom returns the request metadata stored in ctx, if any
func ClientContextFrom(ctx context.Context) *ClientContext {
	cc, _ := ctx.Value(clientContextKey{}).(*ClientContext)
	return cc
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, accountID uint) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithClientContext sets client context information
func (e *AuditEvent) WithClientContext(ctx *ClientContext) *AuditEvent {
	if ctx != nil {
		e.IPAddress = ctx.IPAddress
		e.UserAgent = ctx.UserAgent
	}
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
