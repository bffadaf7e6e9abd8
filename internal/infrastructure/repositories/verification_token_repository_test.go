package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/domain"
)

func newToken(accountID uint, value string, purpose domain.TokenPurpose, createdAt, expiresAt time.Time) *domain.VerificationToken {
	return &domain.VerificationToken{
		AccountID: accountID,
		Token:     value,
		Purpose:   purpose,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
}

func TestVerificationTokenRepositoryImpl_MarkUsed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVerificationTokenRepository(db)
	ctx := context.Background()
	account := createAccount(t, db, "verify@example.com")
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newToken(account.ID, "live", domain.PurposeEmailVerification, now, now.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newToken(account.ID, "expired", domain.PurposeEmailVerification, now.Add(-2*time.Hour), now.Add(-time.Hour))))

	tests := []struct {
		name          string
		token         string
		purpose       domain.TokenPurpose
		expectedOwner uint
		expectedError error
	}{
		{name: "wrong purpose", token: "live", purpose: domain.PurposePasswordReset, expectedError: domain.ErrInvalidToken},
		{name: "usable token", token: "live", purpose: domain.PurposeEmailVerification, expectedOwner: account.ID},
		{name: "already used", token: "live", purpose: domain.PurposeEmailVerification, expectedError: domain.ErrInvalidToken},
		{name: "expired", token: "expired", purpose: domain.PurposeEmailVerification, expectedError: domain.ErrInvalidToken},
		{name: "unknown", token: "nope", purpose: domain.PurposeEmailVerification, expectedError: domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, err := repo.MarkUsed(ctx, tt.token, tt.purpose, now)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedOwner, owner)
		})
	}
}

func TestVerificationTokenRepositoryImpl_InvalidateAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVerificationTokenRepository(db)
	ctx := context.Background()
	account := createAccount(t, db, "reset@example.com")
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newToken(account.ID, "a", domain.PurposePasswordReset, now.Add(-time.Hour), now.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newToken(account.ID, "b", domain.PurposePasswordReset, now.Add(-time.Minute), now.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newToken(account.ID, "c", domain.PurposeEmailVerification, now, now.Add(time.Hour))))

	err := repo.Create(ctx, newToken(account.ID, "a", domain.PurposePasswordReset, now, now.Add(time.Hour)))
	assert.ErrorIs(t, err, domain.ErrConflict)

	count, err := repo.CountCreatedSince(ctx, account.ID, domain.PurposePasswordReset, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	outstanding, err := repo.ListOutstanding(ctx, account.ID, domain.PurposePasswordReset, now)
	require.NoError(t, err)
	assert.Len(t, outstanding, 2)

	invalidated, err := repo.InvalidateOutstanding(ctx, account.ID, domain.PurposePasswordReset, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), invalidated)

	outstanding, err = repo.ListOutstanding(ctx, account.ID, domain.PurposePasswordReset, now)
	require.NoError(t, err)
	assert.Empty(t, outstanding)

	// other purposes are untouched
	outstanding, err = repo.ListOutstanding(ctx, account.ID, domain.PurposeEmailVerification, now)
	require.NoError(t, err)
	assert.Len(t, outstanding, 1)
}

func TestVerificationTokenRepositoryImpl_DeleteStale(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVerificationTokenRepository(db)
	ctx := context.Background()
	account := createAccount(t, db, "stale@example.com")
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, newToken(account.ID, "old", domain.PurposeEmailVerification, now.Add(-10*24*time.Hour), now.Add(-9*24*time.Hour))))
	require.NoError(t, repo.Create(ctx, newToken(account.ID, "recent", domain.PurposeEmailVerification, now.Add(-2*time.Hour), now.Add(-time.Hour))))
	require.NoError(t, repo.Create(ctx, newToken(account.ID, "live", domain.PurposeEmailVerification, now, now.Add(time.Hour))))
	consumed := newToken(account.ID, "consumed", domain.PurposePasswordReset, now.Add(-8*24*time.Hour), now.Add(time.Hour))
	consumed.Used = true
	require.NoError(t, repo.Create(ctx, consumed))

	deleted, err := repo.DeleteStale(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining int64
	require.NoError(t, db.Model(&DBVerificationToken{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}
