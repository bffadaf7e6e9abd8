package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gemstone-market/identity/domain"
)

const dummyPassword = "gemstone-identity-dummy"

// PasswordServiceImpl implements domain.PasswordService
type PasswordServiceImpl struct {
	cost    int
	timeout time.Duration
	// dummyHash is compared against when the account does not exist. It is
	// hashed at cost so unknown emails take as long as wrong passwords.
	dummyHash []byte
}

// NewPasswordService creates a new password service. bcrypt work is bounded by
// timeout.
func NewPasswordService(cost int, timeout time.Duration) domain.PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		panic(fmt.Sprintf("failed to build dummy hash: %v", err))
	}
	return &PasswordServiceImpl{
		cost:      cost,
		timeout:   timeout,
		dummyHash: dummy,
	}
}

// Hash implements domain.PasswordService
func (p *PasswordServiceImpl) Hash(ctx context.Context, password string) (string, error) {
	var hashed []byte
	err := p.bounded(ctx, func() error {
		var err error
		hashed, err = bcrypt.GenerateFromPassword([]byte(password), p.cost)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify implements domain.PasswordService. An empty hash is compared against
// a dummy so the call takes the usual time.
func (p *PasswordServiceImpl) Verify(ctx context.Context, hashedPassword, password string) bool {
	hash := []byte(hashedPassword)
	if len(hash) == 0 {
		hash = p.dummyHash
	}
	err := p.bounded(ctx, func() error {
		return bcrypt.CompareHashAndPassword(hash, []byte(password))
	})
	return err == nil && len(hashedPassword) > 0
}

func (p *PasswordServiceImpl) bounded(ctx context.Context, fn func() error) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
