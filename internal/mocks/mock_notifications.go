package mocks

import (
	"context"
	"sync"

	"github.com/gemstone-market/identity/domain"
)

// SentMessage is a delivery captured by MockDispatcher
type SentMessage struct {
	Kind  string
	To    string
	Token string
	Body  string
}

// MockDispatcher implements domain.Dispatcher interface for testing. Every call
// is recorded synchronously so tests can inspect tokens.
type MockDispatcher struct {
	mu   sync.Mutex
	sent []SentMessage
}

// NewMockDispatcher creates a new MockDispatcher
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) SendVerificationEmail(ctx context.Context, to, token string) {
	m.record(SentMessage{Kind: "verify", To: to, Token: token})
}

func (m *MockDispatcher) SendPasswordResetEmail(ctx context.Context, to, token string) {
	m.record(SentMessage{Kind: "reset", To: to, Token: token})
}

func (m *MockDispatcher) SendSecurityAlert(ctx context.Context, phone, message string) {
	m.record(SentMessage{Kind: "alert", To: phone, Body: message})
}

func (m *MockDispatcher) record(msg SentMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
}

// Sent returns a copy of every recorded delivery
func (m *MockDispatcher) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// LastToken returns the most recent token sent with the given kind
func (m *MockDispatcher) LastToken(kind string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i].Token
		}
	}
	return ""
}

// Count returns how many deliveries of the given kind were recorded
func (m *MockDispatcher) Count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// MockAuditLogger implements domain.AuditLogger interface for testing
type MockAuditLogger struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

// NewMockAuditLogger creates a new MockAuditLogger
func NewMockAuditLogger() *MockAuditLogger {
	return &MockAuditLogger{}
}

func (m *MockAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
}

// Events returns a copy of every recorded event
func (m *MockAuditLogger) Events() []domain.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEvent(nil), m.events...)
}

// HasEvent reports whether an event of the given type and outcome was logged
func (m *MockAuditLogger) HasEvent(eventType domain.AuditEventType, success bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.EventType == eventType && e.Success == success {
			return true
		}
	}
	return false
}

// MockEmailSender implements domain.EmailSender interface for testing
type MockEmailSender struct {
	SendEmailFunc func(ctx context.Context, to, subject, body string) error
}

func (m *MockEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, body)
	}
	return nil
}

// MockSMSSender implements domain.SMSSender interface for testing
type MockSMSSender struct {
	SendSMSFunc func(ctx context.Context, to, message string) error
}

func (m *MockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, message)
	}
	return nil
}

// MockEventPublisher implements domain.EventPublisher interface for testing
type MockEventPublisher struct {
	PublishFunc func(ctx context.Context, subject string, v any) error
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, v any) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, subject, v)
	}
	return nil
}

// Compile-time interface compliance verification
var (
	_ domain.Dispatcher     = (*MockDispatcher)(nil)
	_ domain.AuditLogger    = (*MockAuditLogger)(nil)
	_ domain.EmailSender    = (*MockEmailSender)(nil)
	_ domain.SMSSender      = (*MockSMSSender)(nil)
	_ domain.EventPublisher = (*MockEventPublisher)(nil)
)
