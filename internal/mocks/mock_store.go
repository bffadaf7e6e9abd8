package mocks

import (
	"context"
	"time"

	"github.com/gemstone-market/identity/domain"
)

// MockStore implements domain.Store interface for testing. WithinTx runs fn
// against the same mock unless WithinTxFunc is set.
type MockStore struct {
	AccountRepo           *MockAccountRepository
	RoleRepo              *MockRoleRepository
	VerificationTokenRepo *MockVerificationTokenRepository
	WithinTxFunc          func(ctx context.Context, fn func(tx domain.Store) error) error
}

// NewMockStore creates a new MockStore with default behaviors
func NewMockStore() *MockStore {
	return &MockStore{
		AccountRepo:           NewMockAccountRepository(),
		RoleRepo:              NewMockRoleRepository(),
		VerificationTokenRepo: NewMockVerificationTokenRepository(),
	}
}

func (m *MockStore) Accounts() domain.AccountRepository { return m.AccountRepo }

func (m *MockStore) Roles() domain.RoleRepository { return m.RoleRepo }

func (m *MockStore) VerificationTokens() domain.VerificationTokenRepository {
	return m.VerificationTokenRepo
}

// WithinTx runs fn in a pretend transaction
func (m *MockStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if m.WithinTxFunc != nil {
		return m.WithinTxFunc(ctx, fn)
	}
	return fn(m)
}

// MockAccountRepository implements domain.AccountRepository interface for testing
type MockAccountRepository struct {
	CreateFunc           func(ctx context.Context, account *domain.Account) error
	FindByIDFunc         func(ctx context.Context, id uint) (*domain.Account, error)
	FindByEmailFunc      func(ctx context.Context, email string) (*domain.Account, error)
	UpdatePasswordFunc   func(ctx context.Context, id uint, hash string) error
	UpdateStatusFunc     func(ctx context.Context, id uint, status domain.AccountStatus, emailVerified bool) error
	SetRefreshTokenFunc  func(ctx context.Context, id uint, token string) error
	LockForUpdateFunc    func(ctx context.Context, id uint) error
	SwapRefreshTokenFunc func(ctx context.Context, id uint, expected, next string) (bool, error)
	SetPasswordResetFunc func(ctx context.Context, id uint, token string, expiresAt time.Time) error
	TouchLastLoginFunc   func(ctx context.Context, id uint, at time.Time) error
	SetTwoFactorFunc     func(ctx context.Context, id uint, sealedSecret string, enabled bool) error
}

// NewMockAccountRepository creates a new MockAccountRepository with default behaviors
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	// Default behavior: success with a fixed id
	account.ID = 1
	return nil
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrNotFound
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrNotFound
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, hash)
	}
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id uint, status domain.AccountStatus, emailVerified bool) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status, emailVerified)
	}
	return nil
}

func (m *MockAccountRepository) SetRefreshToken(ctx context.Context, id uint, token string) error {
	if m.SetRefreshTokenFunc != nil {
		return m.SetRefreshTokenFunc(ctx, id, token)
	}
	return nil
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uint) error {
	if m.LockForUpdateFunc != nil {
		return m.LockForUpdateFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error) {
	if m.SwapRefreshTokenFunc != nil {
		return m.SwapRefreshTokenFunc(ctx, id, expected, next)
	}
	return true, nil
}

func (m *MockAccountRepository) SetPasswordReset(ctx context.Context, id uint, token string, expiresAt time.Time) error {
	if m.SetPasswordResetFunc != nil {
		return m.SetPasswordResetFunc(ctx, id, token, expiresAt)
	}
	return nil
}

func (m *MockAccountRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	if m.TouchLastLoginFunc != nil {
		return m.TouchLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *MockAccountRepository) SetTwoFactor(ctx context.Context, id uint, sealedSecret string, enabled bool) error {
	if m.SetTwoFactorFunc != nil {
		return m.SetTwoFactorFunc(ctx, id, sealedSecret, enabled)
	}
	return nil
}

// MockRoleRepository implements domain.RoleRepository interface for testing
type MockRoleRepository struct {
	CreateFunc              func(ctx context.Context, role *domain.Role) error
	FindByNameFunc          func(ctx context.Context, name string) (*domain.Role, error)
	ListFunc                func(ctx context.Context) ([]domain.Role, error)
	GrantPermissionFunc     func(ctx context.Context, roleName, resource, action string) error
	RevokePermissionFunc    func(ctx context.Context, roleName, resource, action string) error
	AssignToAccountFunc     func(ctx context.Context, accountID uint, roleName string) error
	UnassignFromAccountFunc func(ctx context.Context, accountID uint, roleName string) error
	RolesForAccountFunc     func(ctx context.Context, accountID uint) ([]domain.Role, error)
}

// NewMockRoleRepository creates a new MockRoleRepository with default behaviors
func NewMockRoleRepository() *MockRoleRepository {
	return &MockRoleRepository{}
}

func (m *MockRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, role)
	}
	return nil
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(ctx, name)
	}
	return nil, domain.ErrNotFound
}

func (m *MockRoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockRoleRepository) GrantPermission(ctx context.Context, roleName, resource, action string) error {
	if m.GrantPermissionFunc != nil {
		return m.GrantPermissionFunc(ctx, roleName, resource, action)
	}
	return nil
}

func (m *MockRoleRepository) RevokePermission(ctx context.Context, roleName, resource, action string) error {
	if m.RevokePermissionFunc != nil {
		return m.RevokePermissionFunc(ctx, roleName, resource, action)
	}
	return nil
}

func (m *MockRoleRepository) AssignToAccount(ctx context.Context, accountID uint, roleName string) error {
	if m.AssignToAccountFunc != nil {
		return m.AssignToAccountFunc(ctx, accountID, roleName)
	}
	return nil
}

func (m *MockRoleRepository) UnassignFromAccount(ctx context.Context, accountID uint, roleName string) error {
	if m.UnassignFromAccountFunc != nil {
		return m.UnassignFromAccountFunc(ctx, accountID, roleName)
	}
	return nil
}

func (m *MockRoleRepository) RolesForAccount(ctx context.Context, accountID uint) ([]domain.Role, error) {
	if m.RolesForAccountFunc != nil {
		return m.RolesForAccountFunc(ctx, accountID)
	}
	// Default behavior: no roles
	return nil, nil
}

// MockVerificationTokenRepository implements domain.VerificationTokenRepository interface for testing
type MockVerificationTokenRepository struct {
	CreateFunc                func(ctx context.Context, token *domain.VerificationToken) error
	InvalidateOutstandingFunc func(ctx context.Context, accountID uint, purpose domain.TokenPurpose, now time.Time) (int64, error)
	MarkUsedFunc              func(ctx context.Context, token string, purpose domain.TokenPurpose, now time.Time) (uint, error)
	CountCreatedSinceFunc     func(ctx context.Context, accountID uint, purpose domain.TokenPurpose, since time.Time) (int64, error)
	ListOutstandingFunc       func(ctx context.Context, accountID uint, purpose domain.TokenPurpose, now time.Time) ([]domain.VerificationToken, error)
	DeleteStaleFunc           func(ctx context.Context, before time.Time) (int64, error)
}

// NewMockVerificationTokenRepository creates a new MockVerificationTokenRepository with default behaviors
func NewMockVerificationTokenRepository() *MockVerificationTokenRepository {
	return &MockVerificationTokenRepository{}
}

func (m *MockVerificationTokenRepository) Create(ctx context.Context, token *domain.VerificationToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	return nil
}

func (m *MockVerificationTokenRepository) InvalidateOutstanding(ctx context.Context, accountID uint, purpose domain.TokenPurpose, now time.Time) (int64, error) {
	if m.InvalidateOutstandingFunc != nil {
		return m.InvalidateOutstandingFunc(ctx, accountID, purpose, now)
	}
	return 0, nil
}

func (m *MockVerificationTokenRepository) MarkUsed(ctx context.Context, token string, purpose domain.TokenPurpose, now time.Time) (uint, error) {
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, token, purpose, now)
	}
	return 0, domain.ErrInvalidToken
}

func (m *MockVerificationTokenRepository) CountCreatedSince(ctx context.Context, accountID uint, purpose domain.TokenPurpose, since time.Time) (int64, error) {
	if m.CountCreatedSinceFunc != nil {
		return m.CountCreatedSinceFunc(ctx, accountID, purpose, since)
	}
	return 0, nil
}

func (m *MockVerificationTokenRepository) ListOutstanding(ctx context.Context, accountID uint, purpose domain.TokenPurpose, now time.Time) ([]domain.VerificationToken, error) {
	if m.ListOutstandingFunc != nil {
		return m.ListOutstandingFunc(ctx, accountID, purpose, now)
	}
	return nil, nil
}

func (m *MockVerificationTokenRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	if m.DeleteStaleFunc != nil {
		return m.DeleteStaleFunc(ctx, before)
	}
	return 0, nil
}

// Compile-time interface compliance verification
var (
	_ domain.Store                       = (*MockStore)(nil)
	_ domain.AccountRepository           = (*MockAccountRepository)(nil)
	_ domain.RoleRepository              = (*MockRoleRepository)(nil)
	_ domain.VerificationTokenRepository = (*MockVerificationTokenRepository)(nil)
)
