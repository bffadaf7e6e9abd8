package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gemstone-market/identity/domain"
)

// tokenBytes is the entropy of a verification token (64 hex characters)
const tokenBytes = 32

// VerificationServiceImpl implements domain.VerificationService
type VerificationServiceImpl struct {
	store domain.Store
	now   func() time.Time
}

// NewVerificationService creates a new verification token service
func NewVerificationService(store domain.Store, now func() time.Time) domain.VerificationService {
	if now == nil {
		now = time.Now
	}
	return &VerificationServiceImpl{store: store, now: now}
}

// Issue implements domain.VerificationService. Outstanding tokens for the same
// (account, purpose) are invalidated first so only the newest one is usable.
// The account row stays locked until tx ends, so concurrent issuers queue.
func (s *VerificationServiceImpl) Issue(ctx context.Context, tx domain.Store, accountID uint, purpose domain.TokenPurpose, ttl time.Duration) (*domain.VerificationToken, error) {
	now := s.now().UTC()

	if err := tx.Accounts().LockForUpdate(ctx, accountID); err != nil {
		return nil, err
	}

	if _, err := tx.VerificationTokens().InvalidateOutstanding(ctx, accountID, purpose, now); err != nil {
		return nil, err
	}

	value, err := generateToken()
	if err != nil {
		return nil, err
	}

	token := &domain.VerificationToken{
		AccountID: accountID,
		Token:     value,
		Purpose:   purpose,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := tx.VerificationTokens().Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Consume implements domain.VerificationService
func (s *VerificationServiceImpl) Consume(ctx context.Context, tx domain.Store, token string, purpose domain.TokenPurpose) (uint, error) {
	if token == "" {
		return 0, domain.ErrInvalidToken
	}
	return tx.VerificationTokens().MarkUsed(ctx, token, purpose, s.now().UTC())
}

// CheckRateLimit implements domain.VerificationService. It locks the account
// row so the count stays valid until the caller's Issue commits.
func (s *VerificationServiceImpl) CheckRateLimit(ctx context.Context, tx domain.Store, accountID uint, purpose domain.TokenPurpose, window time.Duration, max int) error {
	if err := tx.Accounts().LockForUpdate(ctx, accountID); err != nil {
		return err
	}
	since := s.now().UTC().Add(-window)
	count, err := tx.VerificationTokens().CountCreatedSince(ctx, accountID, purpose, since)
	if err != nil {
		return err
	}
	if count >= int64(max) {
		return domain.ErrRateLimited
	}
	return nil
}

// Cleanup implements domain.VerificationService
func (s *VerificationServiceImpl) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	return s.store.VerificationTokens().DeleteStale(ctx, s.now().UTC().Add(-retention))
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
