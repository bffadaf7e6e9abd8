package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAccountStatus_CanLogin(t *testing.T) {
	tests := []struct {
		status   AccountStatus
		expected bool
	}{
		{StatusPending, true},
		{StatusActive, true},
		{StatusInactive, false},
		{StatusSuspended, false},
		{AccountStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.CanLogin(); got != tt.expected {
				t.Errorf("CanLogin() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestVerificationToken_Usable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		token    VerificationToken
		expected bool
	}{
		{
			name:     "fresh token",
			token:    VerificationToken{ExpiresAt: now.Add(time.Hour)},
			expected: true,
		},
		{
			name:     "used token",
			token:    VerificationToken{ExpiresAt: now.Add(time.Hour), Used: true},
			expected: false,
		},
		{
			name:     "expired token",
			token:    VerificationToken{ExpiresAt: now.Add(-time.Second)},
			expected: false,
		},
		{
			name:     "expires exactly now",
			token:    VerificationToken{ExpiresAt: now},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.Usable(now); got != tt.expected {
				t.Errorf("Usable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPermission_Matches(t *testing.T) {
	p := Permission{Resource: "gemstone", Action: "delete"}

	if !p.Matches("gemstone", "delete") {
		t.Error("expected exact match")
	}
	if p.Matches("gemstone", "*") {
		t.Error("wildcards must not match")
	}
	if p.Matches("Gemstone", "delete") {
		t.Error("matching is case sensitive")
	}
}

func TestAccountStatus_Transition(t *testing.T) {
	tests := []struct {
		from    AccountStatus
		event   StatusEvent
		to      AccountStatus
		illegal bool
	}{
		{StatusPending, EventVerifyEmail, StatusActive, false},
		{StatusPending, EventSuspend, StatusSuspended, false},
		{StatusActive, EventVerifyEmail, StatusActive, false},
		{StatusActive, EventDeactivate, StatusInactive, false},
		{StatusActive, EventReinstate, StatusActive, true},
		{StatusInactive, EventActivate, StatusActive, false},
		{StatusInactive, EventVerifyEmail, StatusInactive, true},
		{StatusSuspended, EventReinstate, StatusActive, false},
		{StatusSuspended, EventActivate, StatusSuspended, true},
		{StatusSuspended, EventVerifyEmail, StatusSuspended, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, err := tt.from.Transition(tt.event)
			if tt.illegal {
				if !errors.Is(err, ErrIllegalTransition) {
					t.Fatalf("expected ErrIllegalTransition, got %v", err)
				}
				if got != tt.from {
					t.Errorf("illegal transition must keep status %s, got %s", tt.from, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.to {
				t.Errorf("expected %s, got %s", tt.to, got)
			}
		})
	}
}

func TestAccountStatus_TransitionTableIsTotal(t *testing.T) {
	statuses := []AccountStatus{StatusPending, StatusActive, StatusInactive, StatusSuspended}
	events := []StatusEvent{EventVerifyEmail, EventActivate, EventDeactivate, EventSuspend, EventReinstate}

	for _, s := range statuses {
		for _, ev := range events {
			next, err := s.Transition(ev)
			if err != nil && !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("%s/%s: unexpected error type %v", s, ev, err)
			}
			if err == nil && next == "" {
				t.Errorf("%s/%s: empty next status", s, ev)
			}
		}
	}
}

func TestParseStatusEvent(t *testing.T) {
	ev, err := ParseStatusEvent("suspend")
	if err != nil || ev != EventSuspend {
		t.Fatalf("expected suspend, got %q (%v)", ev, err)
	}

	if _, err := ParseStatusEvent("delete"); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestAuditEvent_Builders(t *testing.T) {
	ev := NewAuditEvent(LoginFailureEvent, 7).
		WithEmail("a@x.com").
		WithError(ErrInvalidCredentials).
		WithClientContext(&ClientContext{IPAddress: "10.0.0.1", UserAgent: "curl"}).
		WithMetadata("reason", "password")

	if ev.Success {
		t.Error("expected failure event")
	}
	if ev.ErrorMsg != ErrInvalidCredentials.Error() {
		t.Errorf("unexpected error message %q", ev.ErrorMsg)
	}
	if ev.IPAddress != "10.0.0.1" || ev.UserAgent != "curl" {
		t.Errorf("client context not applied: %+v", ev)
	}
	if ev.Metadata["reason"] != "password" {
		t.Errorf("metadata not applied: %+v", ev.Metadata)
	}
}
