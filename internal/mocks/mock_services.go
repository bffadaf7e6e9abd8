package mocks

import (
	"context"
	"time"

	"github.com/gemstone-market/identity/domain"
)

// MockVerificationService implements domain.VerificationService interface for testing
type MockVerificationService struct {
	IssueFunc          func(ctx context.Context, tx domain.Store, accountID uint, purpose domain.TokenPurpose, ttl time.Duration) (*domain.VerificationToken, error)
	ConsumeFunc        func(ctx context.Context, tx domain.Store, token string, purpose domain.TokenPurpose) (uint, error)
	CheckRateLimitFunc func(ctx context.Context, tx domain.Store, accountID uint, purpose domain.TokenPurpose, window time.Duration, max int) error
	CleanupFunc        func(ctx context.Context, retention time.Duration) (int64, error)
}

// NewMockVerificationService creates a new MockVerificationService with default behaviors
func NewMockVerificationService() *MockVerificationService {
	return &MockVerificationService{}
}

func (m *MockVerificationService) Issue(ctx context.Context, tx domain.Store, accountID uint, purpose domain.TokenPurpose, ttl time.Duration) (*domain.VerificationToken, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, tx, accountID, purpose, ttl)
	}
	return &domain.VerificationToken{
		AccountID: accountID,
		Token:     "token-" + string(purpose),
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (m *MockVerificationService) Consume(ctx context.Context, tx domain.Store, token string, purpose domain.TokenPurpose) (uint, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, tx, token, purpose)
	}
	return 0, domain.ErrInvalidToken
}

func (m *MockVerificationService) CheckRateLimit(ctx context.Context, tx domain.Store, accountID uint, purpose domain.TokenPurpose, window time.Duration, max int) error {
	if m.CheckRateLimitFunc != nil {
		return m.CheckRateLimitFunc(ctx, tx, accountID, purpose, window, max)
	}
	return nil
}

func (m *MockVerificationService) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if m.CleanupFunc != nil {
		return m.CleanupFunc(ctx, retention)
	}
	return 0, nil
}

// MockRBACResolver implements domain.RBACResolver interface for testing
type MockRBACResolver struct {
	ResolveRolesFunc       func(ctx context.Context, accountID uint) ([]string, error)
	ResolvePermissionsFunc func(ctx context.Context, accountID uint) ([]domain.Permission, error)
	HasRoleFunc            func(ctx context.Context, accountID uint, roles ...string) (bool, error)
	HasPermissionFunc      func(ctx context.Context, accountID uint, resource, action string) (bool, error)
}

// NewMockRBACResolver creates a new MockRBACResolver with default behaviors
func NewMockRBACResolver() *MockRBACResolver {
	return &MockRBACResolver{}
}

func (m *MockRBACResolver) ResolveRoles(ctx context.Context, accountID uint) ([]string, error) {
	if m.ResolveRolesFunc != nil {
		return m.ResolveRolesFunc(ctx, accountID)
	}
	// Default behavior: every account is a customer
	return []string{"customer"}, nil
}

func (m *MockRBACResolver) ResolvePermissions(ctx context.Context, accountID uint) ([]domain.Permission, error) {
	if m.ResolvePermissionsFunc != nil {
		return m.ResolvePermissionsFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockRBACResolver) HasRole(ctx context.Context, accountID uint, roles ...string) (bool, error) {
	if m.HasRoleFunc != nil {
		return m.HasRoleFunc(ctx, accountID, roles...)
	}
	// Default behavior: deny
	return false, nil
}

func (m *MockRBACResolver) HasPermission(ctx context.Context, accountID uint, resource, action string) (bool, error) {
	if m.HasPermissionFunc != nil {
		return m.HasPermissionFunc(ctx, accountID, resource, action)
	}
	// Default behavior: deny
	return false, nil
}

// MockRoleAdminService implements domain.RoleAdminService interface for testing
type MockRoleAdminService struct {
	CreateRoleFunc       func(ctx context.Context, name, description string) (*domain.Role, error)
	ListRolesFunc        func(ctx context.Context) ([]domain.Role, error)
	GrantPermissionFunc  func(ctx context.Context, roleName, resource, action string) error
	RevokePermissionFunc func(ctx context.Context, roleName, resource, action string) error
	AssignRoleFunc       func(ctx context.Context, accountID uint, roleName string) error
	UnassignRoleFunc     func(ctx context.Context, accountID uint, roleName string) error
	ChangeStatusFunc     func(ctx context.Context, accountID uint, ev domain.StatusEvent) (domain.AccountStatus, error)
}

// NewMockRoleAdminService creates a new MockRoleAdminService with default behaviors
func NewMockRoleAdminService() *MockRoleAdminService {
	return &MockRoleAdminService{}
}

func (m *MockRoleAdminService) CreateRole(ctx context.Context, name, description string) (*domain.Role, error) {
	if m.CreateRoleFunc != nil {
		return m.CreateRoleFunc(ctx, name, description)
	}
	return &domain.Role{ID: 1, Name: name, Description: description}, nil
}

func (m *MockRoleAdminService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	if m.ListRolesFunc != nil {
		return m.ListRolesFunc(ctx)
	}
	return nil, nil
}

func (m *MockRoleAdminService) GrantPermission(ctx context.Context, roleName, resource, action string) error {
	if m.GrantPermissionFunc != nil {
		return m.GrantPermissionFunc(ctx, roleName, resource, action)
	}
	return nil
}

func (m *MockRoleAdminService) RevokePermission(ctx context.Context, roleName, resource, action string) error {
	if m.RevokePermissionFunc != nil {
		return m.RevokePermissionFunc(ctx, roleName, resource, action)
	}
	return nil
}

func (m *MockRoleAdminService) AssignRole(ctx context.Context, accountID uint, roleName string) error {
	if m.AssignRoleFunc != nil {
		return m.AssignRoleFunc(ctx, accountID, roleName)
	}
	return nil
}

func (m *MockRoleAdminService) UnassignRole(ctx context.Context, accountID uint, roleName string) error {
	if m.UnassignRoleFunc != nil {
		return m.UnassignRoleFunc(ctx, accountID, roleName)
	}
	return nil
}

func (m *MockRoleAdminService) ChangeStatus(ctx context.Context, accountID uint, ev domain.StatusEvent) (domain.AccountStatus, error) {
	if m.ChangeStatusFunc != nil {
		return m.ChangeStatusFunc(ctx, accountID, ev)
	}
	return domain.StatusActive, nil
}

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	RegisterFunc             func(ctx context.Context, in domain.RegisterInput) (*domain.Account, error)
	LoginFunc                func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	RefreshFunc              func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	LogoutFunc               func(ctx context.Context, accountID uint) error
	VerifyEmailFunc          func(ctx context.Context, token string) error
	ResendVerificationFunc   func(ctx context.Context, accountID uint) error
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ResetPasswordFunc        func(ctx context.Context, token, newPassword string) error
	ChangePasswordFunc       func(ctx context.Context, accountID uint, currentPassword, newPassword string) error
	ProfileFunc              func(ctx context.Context, accountID uint) (*domain.Profile, error)
	CompleteLoginFunc        func(ctx context.Context, account *domain.Account) (*domain.TokenPair, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Register(ctx context.Context, in domain.RegisterInput) (*domain.Account, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return &domain.Account{ID: 1, Email: in.Email, Status: domain.StatusPending}, nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &domain.LoginResult{
		Account: &domain.Account{ID: 1, Email: email, Status: domain.StatusActive},
		Tokens:  &domain.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
	}, nil
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return &domain.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, accountID uint) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, accountID)
	}
	return nil
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil
}

func (m *MockAuthService) ResendVerification(ctx context.Context, accountID uint) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, accountID)
	}
	return nil
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, accountID uint, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, accountID, currentPassword, newPassword)
	}
	return nil
}

func (m *MockAuthService) Profile(ctx context.Context, accountID uint) (*domain.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, accountID)
	}
	return &domain.Profile{
		Account: &domain.Account{ID: accountID, Email: "test@example.com", Status: domain.StatusActive},
		Roles:   []string{"customer"},
	}, nil
}

func (m *MockAuthService) CompleteLogin(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	if m.CompleteLoginFunc != nil {
		return m.CompleteLoginFunc(ctx, account)
	}
	return &domain.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, nil
}

// MockMFAService implements domain.MFAService interface for testing
type MockMFAService struct {
	BeginEnrollFunc   func(ctx context.Context, accountID uint) (*domain.Enrollment, error)
	ConfirmEnrollFunc func(ctx context.Context, accountID uint, code string) error
	ChallengeFunc     func(ctx context.Context, challengeID, code string) (*domain.LoginResult, error)
	DisableFunc       func(ctx context.Context, accountID uint, code string) error
}

// NewMockMFAService creates a new MockMFAService with default behaviors
func NewMockMFAService() *MockMFAService {
	return &MockMFAService{}
}

func (m *MockMFAService) BeginEnroll(ctx context.Context, accountID uint) (*domain.Enrollment, error) {
	if m.BeginEnrollFunc != nil {
		return m.BeginEnrollFunc(ctx, accountID)
	}
	return &domain.Enrollment{Secret: "SECRET", ProvisioningURI: "otpauth://totp/test", QRCodeDataURL: "data:image/png;base64,"}, nil
}

func (m *MockMFAService) ConfirmEnroll(ctx context.Context, accountID uint, code string) error {
	if m.ConfirmEnrollFunc != nil {
		return m.ConfirmEnrollFunc(ctx, accountID, code)
	}
	return nil
}

func (m *MockMFAService) Challenge(ctx context.Context, challengeID, code string) (*domain.LoginResult, error) {
	if m.ChallengeFunc != nil {
		return m.ChallengeFunc(ctx, challengeID, code)
	}
	return &domain.LoginResult{
		Account: &domain.Account{ID: 1, Status: domain.StatusActive},
		Tokens:  &domain.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
	}, nil
}

func (m *MockMFAService) Disable(ctx context.Context, accountID uint, code string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, accountID, code)
	}
	return nil
}

// Compile-time interface compliance verification
var (
	_ domain.VerificationService = (*MockVerificationService)(nil)
	_ domain.RBACResolver        = (*MockRBACResolver)(nil)
	_ domain.RoleAdminService    = (*MockRoleAdminService)(nil)
	_ domain.AuthService         = (*MockAuthService)(nil)
	_ domain.MFAService          = (*MockMFAService)(nil)
)
