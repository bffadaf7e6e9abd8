package mocks

import (
	"context"
	"time"

	"github.com/gemstone-market/identity/domain"
)

// MockPendingStateStore implements domain.PendingStateStore interface for testing
type MockPendingStateStore struct {
	SaveEnrollmentFunc         func(ctx context.Context, pending *domain.PendingEnrollment, ttl time.Duration) error
	GetEnrollmentFunc          func(ctx context.Context, accountID uint) (*domain.PendingEnrollment, error)
	DeleteEnrollmentFunc       func(ctx context.Context, accountID uint) error
	SaveChallengeFunc          func(ctx context.Context, challenge *domain.LoginChallenge, ttl time.Duration) error
	GetChallengeFunc           func(ctx context.Context, challengeID string) (*domain.LoginChallenge, error)
	RecordChallengeFailureFunc func(ctx context.Context, challengeID string, maxAttempts int) (bool, error)
	DeleteChallengeFunc        func(ctx context.Context, challengeID string) (bool, error)
}

// NewMockPendingStateStore creates a new MockPendingStateStore with default behaviors
func NewMockPendingStateStore() *MockPendingStateStore {
	return &MockPendingStateStore{}
}

func (m *MockPendingStateStore) SaveEnrollment(ctx context.Context, pending *domain.PendingEnrollment, ttl time.Duration) error {
	if m.SaveEnrollmentFunc != nil {
		return m.SaveEnrollmentFunc(ctx, pending, ttl)
	}
	return nil
}

func (m *MockPendingStateStore) GetEnrollment(ctx context.Context, accountID uint) (*domain.PendingEnrollment, error) {
	if m.GetEnrollmentFunc != nil {
		return m.GetEnrollmentFunc(ctx, accountID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPendingStateStore) DeleteEnrollment(ctx context.Context, accountID uint) error {
	if m.DeleteEnrollmentFunc != nil {
		return m.DeleteEnrollmentFunc(ctx, accountID)
	}
	return nil
}

func (m *MockPendingStateStore) SaveChallenge(ctx context.Context, challenge *domain.LoginChallenge, ttl time.Duration) error {
	if m.SaveChallengeFunc != nil {
		return m.SaveChallengeFunc(ctx, challenge, ttl)
	}
	return nil
}

func (m *MockPendingStateStore) GetChallenge(ctx context.Context, challengeID string) (*domain.LoginChallenge, error) {
	if m.GetChallengeFunc != nil {
		return m.GetChallengeFunc(ctx, challengeID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPendingStateStore) RecordChallengeFailure(ctx context.Context, challengeID string, maxAttempts int) (bool, error) {
	if m.RecordChallengeFailureFunc != nil {
		return m.RecordChallengeFailureFunc(ctx, challengeID, maxAttempts)
	}
	return false, nil
}

func (m *MockPendingStateStore) DeleteChallenge(ctx context.Context, challengeID string) (bool, error) {
	if m.DeleteChallengeFunc != nil {
		return m.DeleteChallengeFunc(ctx, challengeID)
	}
	return true, nil
}

// Compile-time interface compliance verification
var _ domain.PendingStateStore = (*MockPendingStateStore)(nil)
