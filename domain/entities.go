package domain

import "time"

// AccountStatus is the lifecycle state of an account
type AccountStatus string

const (
	StatusPending   AccountStatus = "pending"
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
)

// CanLogin reports whether primary authentication is allowed in this state.
func (s AccountStatus) CanLogin() bool {
	return s == StatusActive || s == StatusPending
}

// RoleAdmin satisfies every role and permission check.
const RoleAdmin = "admin"

// Account represents a registered identity
type Account struct {
	ID                  uint
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	Phone               string
	Status              AccountStatus
	EmailVerified       bool
	TwoFactorSecret     string
	TwoFactorEnabled    bool
	RefreshToken        string
	PasswordResetToken  string
	PasswordResetExpiry *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Role is a named permission bundle
type Role struct {
	ID          uint
	Name        string
	Description string
	Permissions []Permission
}

// Permission is a (resource, action) pair
type Permission struct {
	ID       uint
	Resource string
	Action   string
}

// Matches reports an exact (resource, action) match.
func (p Permission) Matches(resource, action string) bool {
	return p.Resource == resource && p.Action == action
}

// TokenPurpose scopes a verification token to a single flow
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
	PurposeTwoFactor         TokenPurpose = "two_factor"
)

// VerificationToken is a single-use, time-boxed secret
type VerificationToken struct {
	ID        uint
	AccountID uint
	Token     string
	Purpose   TokenPurpose
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Usable reports whether the token is unused and unexpired at now.
func (t *VerificationToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// TokenPair is the result of a successful authentication
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LoginResult is either a token pair or a pending second-factor challenge
type LoginResult struct {
	Account     *Account
	Tokens      *TokenPair
	MFARequired bool
	ChallengeID string
}

// RegisterInput carries the registration form
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Profile is the account view returned to its owner
type Profile struct {
	Account *Account
	Roles   []string
}

// Enrollment is the payload shown to the user while enrolling a second factor
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	QRCodeDataURL   string
}

// PendingEnrollment is the ephemeral, not yet confirmed enrollment state
type PendingEnrollment struct {
	AccountID    uint      `json:"account_id"`
	Email        string    `json:"email"`
	SealedSecret string    `json:"sealed_secret"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginChallenge is the ephemeral state between password and second factor
type LoginChallenge struct {
	ID        string    `json:"id"`
	AccountID uint      `json:"account_id"`
	Email     string    `json:"email"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}
