package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/infrastructure/database"
)

// StoreImpl implements domain.Store on top of a gorm handle. Inside WithinTx the
// handle is the transaction itself.
type StoreImpl struct {
	db *gorm.DB
}

// NewStore creates the relational store
func NewStore(db *gorm.DB) domain.Store {
	return &StoreImpl{db: db}
}

// Accounts implements domain.Store
func (s *StoreImpl) Accounts() domain.AccountRepository {
	return &AccountRepositoryImpl{db: s.db}
}

// Roles implements domain.Store
func (s *StoreImpl) Roles() domain.RoleRepository {
	return &RoleRepositoryImpl{db: s.db}
}

// VerificationTokens implements domain.Store
func (s *StoreImpl) VerificationTokens() domain.VerificationTokenRepository {
	return &VerificationTokenRepositoryImpl{db: s.db}
}

// WithinTx implements domain.Store
func (s *StoreImpl) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&StoreImpl{db: tx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return storageError("commit transaction", err)
	}
	return err
}

// storageError tags infrastructure faults so callers can tell them apart from
// domain outcomes.
func storageError(op string, err error) error {
	if errors.Is(err, domain.ErrTransactionFailure) {
		return err
	}
	return fmt.Errorf("failed to %s: %w: %w", op, domain.ErrTransactionFailure, err)
}

// writeError maps unique violations to ErrConflict and everything else to a
// storage fault.
func writeError(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return domain.ErrConflict
	}
	return storageError(op, err)
}
