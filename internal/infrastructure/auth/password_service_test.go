package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordServiceImpl_HashAndVerify(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost, time.Second)
	ctx := context.Background()

	hash, err := svc.Hash(ctx, "sapphire42")
	require.NoError(t, err)
	assert.NotEqual(t, "sapphire42", hash)

	tests := []struct {
		name     string
		hash     string
		password string
		expected bool
	}{
		{name: "correct password", hash: hash, password: "sapphire42", expected: true},
		{name: "wrong password", hash: hash, password: "emerald42", expected: false},
		{name: "empty hash", hash: "", password: "sapphire42", expected: false},
		{name: "garbage hash", hash: "not-a-hash", password: "sapphire42", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, svc.Verify(ctx, tt.hash, tt.password))
		})
	}
}

func TestPasswordServiceImpl_InvalidCostFallsBack(t *testing.T) {
	svc := NewPasswordService(99, time.Second).(*PasswordServiceImpl)
	assert.Equal(t, bcrypt.DefaultCost, svc.cost)
}

func TestPasswordServiceImpl_Timeout(t *testing.T) {
	svc := NewPasswordService(12, time.Millisecond)

	_, err := svc.Hash(context.Background(), "sapphire42")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPasswordServiceImpl_DummyHashMatchesCost(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost+4, 5*time.Second).(*PasswordServiceImpl)

	cost, err := bcrypt.Cost(svc.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, svc.cost, cost)
}

func TestPasswordServiceImpl_UnknownAccountTiming(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost+4, 5*time.Second)
	ctx := context.Background()

	hash, err := svc.Hash(ctx, "sapphire42")
	require.NoError(t, err)

	measure := func(hashed string) time.Duration {
		best := time.Duration(0)
		for i := 0; i < 5; i++ {
			start := time.Now()
			assert.False(t, svc.Verify(ctx, hashed, "emerald42"))
			if elapsed := time.Since(start); best == 0 || elapsed < best {
				best = elapsed
			}
		}
		return best
	}

	wrongPassword := measure(hash)
	unknownAccount := measure("")

	assert.Greater(t, unknownAccount, wrongPassword/2,
		"wrong password: %v, unknown account: %v", wrongPassword, unknownAccount)
	assert.Greater(t, wrongPassword, unknownAccount/2,
		"wrong password: %v, unknown account: %v", wrongPassword, unknownAccount)
}
