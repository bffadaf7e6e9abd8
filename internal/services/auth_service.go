package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/metrics"
)

const minPasswordLength = 8

// AuthSettings holds the tunables of the credential flows
type AuthSettings struct {
	DefaultRole     string
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	ResendWindow    time.Duration
	ResendMax       int
	ResetWindow     time.Duration
	ResetMax        int
	ChallengeTTL    time.Duration
	Now             func() time.Time
}

// AuthDependencies are the collaborators of AuthServiceImpl
type AuthDependencies struct {
	Store        domain.Store
	Pending      domain.PendingStateStore
	Passwords    domain.PasswordService
	Tokens       domain.TokenCodec
	Verification domain.VerificationService
	RBAC         domain.RBACResolver
	Dispatcher   domain.Dispatcher
	Audit        domain.AuditLogger
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	store        domain.Store
	pending      domain.PendingStateStore
	passwords    domain.PasswordService
	tokens       domain.TokenCodec
	verification domain.VerificationService
	rbac         domain.RBACResolver
	dispatcher   domain.Dispatcher
	audit        domain.AuditLogger
	metrics      *metrics.Metrics
	log          zerolog.Logger
	settings     AuthSettings
}

// NewAuthService creates a new auth service
func NewAuthService(deps AuthDependencies, settings AuthSettings) domain.AuthService {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &AuthServiceImpl{
		store:        deps.Store,
		pending:      deps.Pending,
		passwords:    deps.Passwords,
		tokens:       deps.Tokens,
		verification: deps.Verification,
		rbac:         deps.RBAC,
		dispatcher:   deps.Dispatcher,
		audit:        deps.Audit,
		metrics:      deps.Metrics,
		log:          deps.Log,
		settings:     settings,
	}
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces the password policy: at least eight characters
// including a letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return domain.ErrWeakPassword
	}
	return nil
}

// Register implements domain.AuthService
func (s *AuthServiceImpl) Register(ctx context.Context, in domain.RegisterInput) (*domain.Account, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var account *domain.Account
	var token *domain.VerificationToken
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Accounts().FindByEmail(ctx, email); err == nil {
			return domain.ErrConflict
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		account = &domain.Account{
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			Phone:        strings.TrimSpace(in.Phone),
			Status:       domain.StatusPending,
		}
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}

		if err := tx.Roles().AssignToAccount(ctx, account.ID, s.settings.DefaultRole); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: default role %q is not seeded", domain.ErrTransactionFailure, s.settings.DefaultRole)
			}
			return err
		}

		token, err = s.verification.Issue(ctx, tx, account.ID, domain.PurposeEmailVerification, s.settings.VerificationTTL)
		return err
	})
	if err != nil {
		s.metrics.AuthOutcome("register", outcome(err))
		return nil, err
	}

	s.dispatcher.SendVerificationEmail(ctx, account.Email, token.Token)
	s.metrics.AuthOutcome("register", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.AccountRegisteredEvent, account.ID).WithEmail(account.Email))
	return account, nil
}

// Login implements domain.AuthService. Unknown emails and wrong passwords fail
// identically; the account status is only revealed after the password matched.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	email = NormalizeEmail(email)

	account, err := s.store.Accounts().FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.passwords.Verify(ctx, "", password)
		return nil, s.loginFailed(ctx, 0, email, domain.ErrInvalidCredentials)
	}

	if !s.passwords.Verify(ctx, account.PasswordHash, password) {
		return nil, s.loginFailed(ctx, account.ID, email, domain.ErrInvalidCredentials)
	}
	if !account.Status.CanLogin() {
		return nil, s.loginFailed(ctx, account.ID, email, domain.ErrAccountInactive)
	}

	if account.TwoFactorEnabled {
		challenge := &domain.LoginChallenge{
			ID:        uuid.NewString(),
			AccountID: account.ID,
			Email:     account.Email,
			ExpiresAt: s.settings.Now().UTC().Add(s.settings.ChallengeTTL),
		}
		if err := s.pending.SaveChallenge(ctx, challenge, s.settings.ChallengeTTL); err != nil {
			return nil, err
		}
		s.metrics.AuthOutcome("login", "mfa_required")
		return &domain.LoginResult{Account: account, MFARequired: true, ChallengeID: challenge.ID}, nil
	}

	tokens, err := s.CompleteLogin(ctx, account)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{Account: account, Tokens: tokens}, nil
}

func (s *AuthServiceImpl) loginFailed(ctx context.Context, accountID uint, email string, err error) error {
	s.metrics.AuthOutcome("login", outcome(err))
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, accountID).WithEmail(email).WithError(err))
	return err
}

// CompleteLogin implements domain.AuthService. The new refresh token replaces
// any stored one, revoking the previous session.
func (s *AuthServiceImpl) CompleteLogin(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Accounts().SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
			return err
		}
		return tx.Accounts().TouchLastLogin(ctx, account.ID, s.settings.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AuthOutcome("login", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginEvent, account.ID).WithEmail(account.Email))
	return pair, nil
}

func (s *AuthServiceImpl) issuePair(ctx context.Context, account *domain.Account) (*domain.TokenPair, error) {
	roles, err := s.rbac.ResolveRoles(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	claims := domain.TokenClaims{AccountID: account.ID, Email: account.Email, Roles: roles}
	accessToken, err := s.tokens.IssueAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Refresh implements domain.AuthService. Rotation is a compare-and-swap on the
// stored token so a replayed or concurrently used token loses.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	result := s.tokens.Verify(refreshToken, domain.RefreshToken)
	if !result.Valid {
		s.metrics.AuthOutcome("refresh", "invalid_token")
		return nil, domain.ErrInvalidToken
	}

	account, err := s.store.Accounts().FindByID(ctx, result.Claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if account.RefreshToken == "" || account.RefreshToken != refreshToken {
		return nil, s.refreshRejected(ctx, account.ID)
	}
	if !account.Status.CanLogin() {
		s.metrics.AuthOutcome("refresh", outcome(domain.ErrAccountInactive))
		return nil, domain.ErrAccountInactive
	}

	pair, err := s.issuePair(ctx, account)
	if err != nil {
		return nil, err
	}

	swapped, err := s.store.Accounts().SwapRefreshToken(ctx, account.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, s.refreshRejected(ctx, account.ID)
	}

	s.metrics.AuthOutcome("refresh", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RefreshEvent, account.ID))
	return pair, nil
}

func (s *AuthServiceImpl) refreshRejected(ctx context.Context, accountID uint) error {
	s.metrics.AuthOutcome("refresh", "reuse_rejected")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.RefreshReuseEvent, accountID).WithError(domain.ErrInvalidToken))
	return domain.ErrInvalidToken
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, accountID uint) error {
	if err := s.store.Accounts().SetRefreshToken(ctx, accountID, ""); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LogoutEvent, accountID))
	return nil
}

// VerifyEmail implements domain.AuthService
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	var accountID uint
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		id, err := s.verification.Consume(ctx, tx, token, domain.PurposeEmailVerification)
		if err != nil {
			return err
		}
		accountID = id

		account, err := tx.Accounts().FindByID(ctx, id)
		if err != nil {
			return err
		}

		next, err := account.Status.Transition(domain.EventVerifyEmail)
		if err != nil {
			// inactive and suspended accounts are verified without reactivation
			next = account.Status
		}
		return tx.Accounts().UpdateStatus(ctx, id, next, true)
	})
	if err != nil {
		s.metrics.AuthOutcome("verify_email", outcome(err))
		return err
	}

	s.metrics.AuthOutcome("verify_email", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.EmailVerifiedEvent, accountID))
	return nil
}

// ResendVerification implements domain.AuthService
func (s *AuthServiceImpl) ResendVerification(ctx context.Context, accountID uint) error {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	var token *domain.VerificationToken
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := s.verification.CheckRateLimit(ctx, tx, accountID, domain.PurposeEmailVerification, s.settings.ResendWindow, s.settings.ResendMax); err != nil {
			return err
		}
		token, err = s.verification.Issue(ctx, tx, accountID, domain.PurposeEmailVerification, s.settings.VerificationTTL)
		return err
	})
	if err != nil {
		s.metrics.AuthOutcome("resend_verification", outcome(err))
		return err
	}

	s.dispatcher.SendVerificationEmail(ctx, account.Email, token.Token)
	s.metrics.AuthOutcome("resend_verification", "success")
	return nil
}

// RequestPasswordReset implements domain.AuthService. It never reports whether
// the email exists; every failure is logged and swallowed.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	account, err := s.store.Accounts().FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Msg("password reset lookup failed")
		}
		s.metrics.AuthOutcome("password_reset_request", outcome(err))
		return nil
	}

	var token *domain.VerificationToken
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := s.verification.CheckRateLimit(ctx, tx, account.ID, domain.PurposePasswordReset, s.settings.ResetWindow, s.settings.ResetMax); err != nil {
			return err
		}
		token, err = s.verification.Issue(ctx, tx, account.ID, domain.PurposePasswordReset, s.settings.ResetTTL)
		if err != nil {
			return err
		}
		return tx.Accounts().SetPasswordReset(ctx, account.ID, token.Token, token.ExpiresAt)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			s.log.Warn().Uint("account_id", account.ID).Msg("password reset rate limited")
		} else {
			s.log.Error().Err(err).Uint("account_id", account.ID).Msg("password reset request failed")
		}
		s.metrics.AuthOutcome("password_reset_request", outcome(err))
		return nil
	}

	s.dispatcher.SendPasswordResetEmail(ctx, account.Email, token.Token)
	s.metrics.AuthOutcome("password_reset_request", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetRequestedEvent, account.ID))
	return nil
}

// ResetPassword implements domain.AuthService. The token, the new hash and the
// session revocation commit together.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var account *domain.Account
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		id, err := s.verification.Consume(ctx, tx, token, domain.PurposePasswordReset)
		if err != nil {
			return err
		}
		if err := tx.Accounts().UpdatePassword(ctx, id, hash); err != nil {
			return err
		}
		if err := tx.Accounts().SetRefreshToken(ctx, id, ""); err != nil {
			return err
		}
		account, err = tx.Accounts().FindByID(ctx, id)
		return err
	})
	if err != nil {
		s.metrics.AuthOutcome("password_reset", outcome(err))
		return err
	}

	s.dispatcher.SendSecurityAlert(ctx, account.Phone, "Your Gemstone Marketplace password was reset. If this was not you, contact support.")
	s.metrics.AuthOutcome("password_reset", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordResetEvent, account.ID))
	return nil
}

// ChangePassword implements domain.AuthService
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, accountID uint, currentPassword, newPassword string) error {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.passwords.Verify(ctx, account.PasswordHash, currentPassword) {
		s.metrics.AuthOutcome("password_change", outcome(domain.ErrInvalidCredentials))
		return domain.ErrInvalidCredentials
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Accounts().UpdatePassword(ctx, accountID, hash); err != nil {
			return err
		}
		return tx.Accounts().SetRefreshToken(ctx, accountID, "")
	})
	if err != nil {
		return err
	}

	s.dispatcher.SendSecurityAlert(ctx, account.Phone, "Your Gemstone Marketplace password was changed. If this was not you, reset it immediately.")
	s.metrics.AuthOutcome("password_change", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.PasswordChangedEvent, accountID))
	return nil
}

// Profile implements domain.AuthService
func (s *AuthServiceImpl) Profile(ctx context.Context, accountID uint) (*domain.Profile, error) {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	roles, err := s.rbac.ResolveRoles(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{Account: account, Roles: roles}, nil
}

// outcome turns an error into a metrics label
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidMFACode):
		return "invalid_code"
	default:
		return "error"
	}
}
