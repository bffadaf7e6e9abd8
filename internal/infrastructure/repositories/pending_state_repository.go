package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gemstone-market/identity/domain"
)

const maxWatchRetries = 5

// PendingStateRepositoryImpl implements domain.PendingStateStore using Redis.
// Expiry is delegated to key TTLs; challenges are also checked against now.
type PendingStateRepositoryImpl struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewPendingStateRepository creates a new pending state repository. A nil now
// uses the wall clock.
func NewPendingStateRepository(client *redis.Client, now func() time.Time) domain.PendingStateStore {
	if now == nil {
		now = time.Now
	}
	return &PendingStateRepositoryImpl{
		client: client,
		prefix: "mfa:",
		now:    now,
	}
}

func (r *PendingStateRepositoryImpl) enrollmentKey(accountID uint) string {
	return fmt.Sprintf("%senroll:%d", r.prefix, accountID)
}

func (r *PendingStateRepositoryImpl) challengeKey(id string) string {
	return fmt.Sprintf("%schallenge:%s", r.prefix, id)
}

// SaveEnrollment implements domain.PendingStateStore. A newer enrollment
// replaces any pending one for the same account.
func (r *PendingStateRepositoryImpl) SaveEnrollment(ctx context.Context, pending *domain.PendingEnrollment, ttl time.Duration) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal enrollment: %w", err)
	}
	if err := r.client.Set(ctx, r.enrollmentKey(pending.AccountID), data, ttl).Err(); err != nil {
		return storageError("save enrollment", err)
	}
	return nil
}

// GetEnrollment implements domain.PendingStateStore
func (r *PendingStateRepositoryImpl) GetEnrollment(ctx context.Context, accountID uint) (*domain.PendingEnrollment, error) {
	var pending domain.PendingEnrollment
	if err := r.load(ctx, r.enrollmentKey(accountID), &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

// DeleteEnrollment implements domain.PendingStateStore
func (r *PendingStateRepositoryImpl) DeleteEnrollment(ctx context.Context, accountID uint) error {
	if err := r.client.Del(ctx, r.enrollmentKey(accountID)).Err(); err != nil {
		return storageError("delete enrollment", err)
	}
	return nil
}

// SaveChallenge implements domain.PendingStateStore
func (r *PendingStateRepositoryImpl) SaveChallenge(ctx context.Context, challenge *domain.LoginChallenge, ttl time.Duration) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}
	if err := r.client.Set(ctx, r.challengeKey(challenge.ID), data, ttl).Err(); err != nil {
		return storageError("save challenge", err)
	}
	return nil
}

// GetChallenge implements domain.PendingStateStore
func (r *PendingStateRepositoryImpl) GetChallenge(ctx context.Context, challengeID string) (*domain.LoginChallenge, error) {
	var challenge domain.LoginChallenge
	if err := r.load(ctx, r.challengeKey(challengeID), &challenge); err != nil {
		return nil, err
	}
	if !r.now().Before(challenge.ExpiresAt) {
		r.client.Del(ctx, r.challengeKey(challengeID))
		return nil, domain.ErrNotFound
	}
	return &challenge, nil
}

// RecordChallengeFailure implements domain.PendingStateStore. The counter is
// updated optimistically under WATCH so concurrent guesses are all counted.
func (r *PendingStateRepositoryImpl) RecordChallengeFailure(ctx context.Context, challengeID string, maxAttempts int) (bool, error) {
	key := r.challengeKey(challengeID)
	var discarded bool

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			discarded = true
			return nil
		}
		if err != nil {
			return err
		}

		var challenge domain.LoginChallenge
		if err := json.Unmarshal(data, &challenge); err != nil {
			return fmt.Errorf("failed to unmarshal challenge: %w", err)
		}
		challenge.Attempts++

		if challenge.Attempts >= maxAttempts {
			discarded = true
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}

		ttl, err := tx.PTTL(ctx, key).Result()
		if err != nil {
			return err
		}
		if ttl <= 0 {
			ttl = challenge.ExpiresAt.Sub(r.now())
		}
		payload, err := json.Marshal(&challenge)
		if err != nil {
			return fmt.Errorf("failed to marshal challenge: %w", err)
		}

		discarded = false
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, storageError("record challenge failure", err)
		}
		return discarded, nil
	}
	return false, storageError("record challenge failure", redis.TxFailedErr)
}

// DeleteChallenge implements domain.PendingStateStore
func (r *PendingStateRepositoryImpl) DeleteChallenge(ctx context.Context, challengeID string) (bool, error) {
	n, err := r.client.Del(ctx, r.challengeKey(challengeID)).Result()
	if err != nil {
		return false, storageError("delete challenge", err)
	}
	return n == 1, nil
}

func (r *PendingStateRepositoryImpl) load(ctx context.Context, key string, v interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return storageError("load pending state", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal pending state: %w", err)
	}
	return nil
}
