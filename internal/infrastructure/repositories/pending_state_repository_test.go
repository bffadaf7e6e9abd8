package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-market/identity/domain"
)

func TestPendingStateRepositoryImpl_Enrollment(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewPendingStateRepository(client, nil)
	ctx := context.Background()

	pending := &domain.PendingEnrollment{
		AccountID:    7,
		Email:        "mfa@example.com",
		SealedSecret: "sealed",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.SaveEnrollment(ctx, pending, 10*time.Minute))
	assert.True(t, mr.Exists("mfa:enroll:7"))

	got, err := repo.GetEnrollment(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "sealed", got.SealedSecret)

	mr.FastForward(11 * time.Minute)
	_, err = repo.GetEnrollment(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.SaveEnrollment(ctx, pending, time.Minute))
	require.NoError(t, repo.DeleteEnrollment(ctx, 7))
	_, err = repo.GetEnrollment(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPendingStateRepositoryImpl_Challenge(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewPendingStateRepository(client, nil)
	ctx := context.Background()

	challenge := &domain.LoginChallenge{
		ID:        "challenge-1",
		AccountID: 3,
		Email:     "login@example.com",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, repo.SaveChallenge(ctx, challenge, 5*time.Minute))

	got, err := repo.GetChallenge(ctx, "challenge-1")
	require.NoError(t, err)
	assert.Equal(t, uint(3), got.AccountID)

	for i := 1; i < 3; i++ {
		discarded, err := repo.RecordChallengeFailure(ctx, "challenge-1", 3)
		require.NoError(t, err)
		assert.False(t, discarded)

		got, err = repo.GetChallenge(ctx, "challenge-1")
		require.NoError(t, err)
		assert.Equal(t, i, got.Attempts)
	}
	assert.Greater(t, mr.TTL("mfa:challenge:challenge-1"), time.Duration(0))

	discarded, err := repo.RecordChallengeFailure(ctx, "challenge-1", 3)
	require.NoError(t, err)
	assert.True(t, discarded)
	_, err = repo.GetChallenge(ctx, "challenge-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	discarded, err = repo.RecordChallengeFailure(ctx, "missing", 3)
	require.NoError(t, err)
	assert.True(t, discarded)

	require.NoError(t, repo.SaveChallenge(ctx, &domain.LoginChallenge{ID: "c2", ExpiresAt: time.Now().Add(time.Minute)}, time.Minute))
	deleted, err := repo.DeleteChallenge(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = repo.GetChallenge(ctx, "c2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err = repo.DeleteChallenge(ctx, "c2")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPendingStateRepositoryImpl_ChallengeExpiresOnClock(t *testing.T) {
	client, mr := setupTestRedis(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewPendingStateRepository(client, func() time.Time { return now })
	ctx := context.Background()

	challenge := &domain.LoginChallenge{
		ID:        "clocked",
		AccountID: 9,
		ExpiresAt: now.Add(5 * time.Minute),
	}
	// the key outlives the challenge so only the clock can expire it
	require.NoError(t, repo.SaveChallenge(ctx, challenge, time.Hour))

	now = now.Add(4*time.Minute + 59*time.Second)
	_, err := repo.GetChallenge(ctx, "clocked")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = repo.GetChallenge(ctx, "clocked")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("mfa:challenge:clocked"))
}
