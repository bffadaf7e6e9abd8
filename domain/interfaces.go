package domain

import (
	"context"
	"time"
)

// Store groups the credential repositories and their transactional scope
type Store interface {
	Accounts() AccountRepository
	Roles() RoleRepository
	VerificationTokens() VerificationTokenRepository
	// WithinTx runs fn against a Store bound to a single database transaction.
	// Any error returned by fn rolls the whole transaction back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// AccountRepository defines account data access operations
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id uint) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// LockForUpdate takes a row lock on the account for the rest of the
	// enclosing transaction. Per-account check-then-write sequences hold it.
	LockForUpdate(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	UpdateStatus(ctx context.Context, id uint, status AccountStatus, emailVerified bool) error
	SetRefreshToken(ctx context.Context, id uint, token string) error
	// SwapRefreshToken replaces the stored refresh token only if it still equals
	// expected. It reports whether the swap happened.
	SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error)
	SetPasswordReset(ctx context.Context, id uint, token string, expiresAt time.Time) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	SetTwoFactor(ctx context.Context, id uint, sealedSecret string, enabled bool) error
}

// RoleRepository defines role and permission data access operations
type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	GrantPermission(ctx context.Context, roleName, resource, action string) error
	RevokePermission(ctx context.Context, roleName, resource, action string) error
	AssignToAccount(ctx context.Context, accountID uint, roleName string) error
	UnassignFromAccount(ctx context.Context, accountID uint, roleName string) error
	RolesForAccount(ctx context.Context, accountID uint) ([]Role, error)
}

// VerificationTokenRepository defines verification token data access operations
type VerificationTokenRepository interface {
	Create(ctx context.Context, token *VerificationToken) error
	InvalidateOutstanding(ctx context.Context, accountID uint, purpose TokenPurpose, now time.Time) (int64, error)
	// MarkUsed flips used=true on a matching usable row and returns its owner.
	MarkUsed(ctx context.Context, token string, purpose TokenPurpose, now time.Time) (uint, error)
	CountCreatedSince(ctx context.Context, accountID uint, purpose TokenPurpose, since time.Time) (int64, error)
	ListOutstanding(ctx context.Context, accountID uint, purpose TokenPurpose, now time.Time) ([]VerificationToken, error)
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// PendingStateStore keeps the ephemeral MFA state outside the relational store
type PendingStateStore interface {
	SaveEnrollment(ctx context.Context, pending *PendingEnrollment, ttl time.Duration) error
	GetEnrollment(ctx context.Context, accountID uint) (*PendingEnrollment, error)
	DeleteEnrollment(ctx context.Context, accountID uint) error
	SaveChallenge(ctx context.Context, challenge *LoginChallenge, ttl time.Duration) error
	GetChallenge(ctx context.Context, challengeID string) (*LoginChallenge, error)
	// RecordChallengeFailure increments the attempt counter and reports whether
	// the challenge was discarded for exceeding maxAttempts.
	RecordChallengeFailure(ctx context.Context, challengeID string, maxAttempts int) (bool, error)
	// DeleteChallenge removes the challenge and reports whether it still existed,
	// so only one caller can complete it.
	DeleteChallenge(ctx context.Context, challengeID string) (bool, error)
}

// TokenKind distinguishes access from refresh tokens
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenClaims represents JWT token claims
type TokenClaims struct {
	AccountID uint
	Email     string
	Roles     []string
	Kind      TokenKind
	ID        string
	IssuedAt  int64
	ExpiresAt int64
}

// VerifyResult is the outcome of token verification. Invalid tokens are a
// routine result, not an error.
type VerifyResult struct {
	Valid  bool
	Claims *TokenClaims
	Reason string
}

// TokenCodec signs and verifies access and refresh tokens
type TokenCodec interface {
	IssueAccessToken(claims TokenClaims) (string, error)
	IssueRefreshToken(claims TokenClaims) (string, error)
	Verify(token string, kind TokenKind) VerifyResult
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, hashedPassword, password string) bool
}

// TOTPProvider defines time-based one-time code primitives
type TOTPProvider interface {
	GenerateSecret(accountName string) (*Enrollment, error)
	Validate(code, secret string, at time.Time) bool
}

// SecretSealer encrypts second-factor secrets at rest
type SecretSealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// VerificationService manages single-use, time-boxed tokens. Every method runs
// against the Store handed in so the caller controls the transaction.
type VerificationService interface {
	Issue(ctx context.Context, tx Store, accountID uint, purpose TokenPurpose, ttl time.Duration) (*VerificationToken, error)
	Consume(ctx context.Context, tx Store, token string, purpose TokenPurpose) (uint, error)
	CheckRateLimit(ctx context.Context, tx Store, accountID uint, purpose TokenPurpose, window time.Duration, max int) error
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// RBACResolver answers authorization queries
type RBACResolver interface {
	ResolveRoles(ctx context.Context, accountID uint) ([]string, error)
	ResolvePermissions(ctx context.Context, accountID uint) ([]Permission, error)
	HasRole(ctx context.Context, accountID uint, roles ...string) (bool, error)
	HasPermission(ctx context.Context, accountID uint, resource, action string) (bool, error)
}

// RoleAdminService manages roles, grants and memberships
type RoleAdminService interface {
	CreateRole(ctx context.Context, name, description string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	GrantPermission(ctx context.Context, roleName, resource, action string) error
	RevokePermission(ctx context.Context, roleName, resource, action string) error
	AssignRole(ctx context.Context, accountID uint, roleName string) error
	UnassignRole(ctx context.Context, accountID uint, roleName string) error
	ChangeStatus(ctx context.Context, accountID uint, ev StatusEvent) (AccountStatus, error)
}

// AuthService defines credential and session business logic
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Account, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accountID uint) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, accountID uint) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, accountID uint, currentPassword, newPassword string) error
	Profile(ctx context.Context, accountID uint) (*Profile, error)
	// CompleteLogin issues tokens for an account that passed every factor.
	CompleteLogin(ctx context.Context, account *Account) (*TokenPair, error)
}

// MFAService manages second-factor enrollment and login challenges
type MFAService interface {
	BeginEnroll(ctx context.Context, accountID uint) (*Enrollment, error)
	ConfirmEnroll(ctx context.Context, accountID uint, code string) error
	Challenge(ctx context.Context, challengeID, code string) (*LoginResult, error)
	Disable(ctx context.Context, accountID uint, code string) error
}

// Dispatcher delivers verification artifacts to external collaborators.
// Delivery is best-effort and must not block the caller's transaction.
type Dispatcher interface {
	SendVerificationEmail(ctx context.Context, to, token string)
	SendPasswordResetEmail(ctx context.Context, to, token string)
	SendSecurityAlert(ctx context.Context, phone, message string)
}

// EmailSender delivers a single email synchronously
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a single text message synchronously
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// EventPublisher publishes JSON-encoded events to a subject
type EventPublisher interface {
	Publish(ctx context.Context, subject string, v any) error
}
