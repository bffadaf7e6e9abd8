package notifications

import (
	"context"
	"errors"
	"sync"
)

type sentEmail struct {
	to, subject, body string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

type fakeSMSSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSMSSender) SendSMS(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+":"+message)
	return nil
}

type published struct {
	subject string
	payload any
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	fail     bool
}

func (f *fakePublisher) Publish(_ context.Context, subject string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("nats unavailable")
	}
	f.messages = append(f.messages, published{subject: subject, payload: v})
	return nil
}
