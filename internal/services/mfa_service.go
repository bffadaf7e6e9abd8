package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gemstone-market/identity/domain"
	"github.com/gemstone-market/identity/internal/metrics"
)

// MFASettings holds the tunables of the second-factor flows
type MFASettings struct {
	EnrollmentTTL time.Duration
	MaxAttempts   int
	Now           func() time.Time
}

// MFADependencies are the collaborators of MFAServiceImpl
type MFADependencies struct {
	Store        domain.Store
	Pending      domain.PendingStateStore
	TOTP         domain.TOTPProvider
	Sealer       domain.SecretSealer
	Verification domain.VerificationService
	Auth         domain.AuthService
	Dispatcher   domain.Dispatcher
	Audit        domain.AuditLogger
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

// MFAServiceImpl implements domain.MFAService
type MFAServiceImpl struct {
	store        domain.Store
	pending      domain.PendingStateStore
	totp         domain.TOTPProvider
	sealer       domain.SecretSealer
	verification domain.VerificationService
	auth         domain.AuthService
	dispatcher   domain.Dispatcher
	audit        domain.AuditLogger
	metrics      *metrics.Metrics
	log          zerolog.Logger
	settings     MFASettings
}

// NewMFAService creates a new MFA service
func NewMFAService(deps MFADependencies, settings MFASettings) domain.MFAService {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 5
	}
	return &MFAServiceImpl{
		store:        deps.Store,
		pending:      deps.Pending,
		totp:         deps.TOTP,
		sealer:       deps.Sealer,
		verification: deps.Verification,
		auth:         deps.Auth,
		dispatcher:   deps.Dispatcher,
		audit:        deps.Audit,
		metrics:      deps.Metrics,
		log:          deps.Log,
		settings:     settings,
	}
}

// BeginEnroll implements domain.MFAService. A new enrollment replaces any
// pending one.
func (s *MFAServiceImpl) BeginEnroll(ctx context.Context, accountID uint) (*domain.Enrollment, error) {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.TwoFactorEnabled {
		return nil, domain.ErrMFAAlreadyEnabled
	}

	enrollment, err := s.totp.GenerateSecret(account.Email)
	if err != nil {
		return nil, err
	}
	sealed, err := s.sealer.Seal(enrollment.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to seal secret: %w", err)
	}

	pending := &domain.PendingEnrollment{
		AccountID:    account.ID,
		Email:        account.Email,
		SealedSecret: sealed,
		CreatedAt:    s.settings.Now().UTC(),
	}
	if err := s.pending.SaveEnrollment(ctx, pending, s.settings.EnrollmentTTL); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// ConfirmEnroll implements domain.MFAService. A wrong code keeps the pending
// enrollment so the user can retry.
func (s *MFAServiceImpl) ConfirmEnroll(ctx context.Context, accountID uint, code string) error {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.TwoFactorEnabled {
		return domain.ErrMFAAlreadyEnabled
	}

	pending, err := s.pending.GetEnrollment(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidMFACode
		}
		return err
	}

	secret, err := s.sealer.Open(pending.SealedSecret)
	if err != nil {
		return fmt.Errorf("failed to open secret: %w", err)
	}
	if !s.totp.Validate(code, secret, s.settings.Now()) {
		s.metrics.AuthOutcome("mfa_enroll", outcome(domain.ErrInvalidMFACode))
		return domain.ErrInvalidMFACode
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Accounts().SetTwoFactor(ctx, accountID, pending.SealedSecret, true); err != nil {
			return err
		}
		// record the enrollment as a consumed two_factor token
		token, err := s.verification.Issue(ctx, tx, accountID, domain.PurposeTwoFactor, s.settings.EnrollmentTTL)
		if err != nil {
			return err
		}
		_, err = s.verification.Consume(ctx, tx, token.Token, domain.PurposeTwoFactor)
		return err
	})
	if err != nil {
		return err
	}

	if err := s.pending.DeleteEnrollment(ctx, accountID); err != nil {
		s.log.Error().Err(err).Uint("account_id", accountID).Msg("failed to delete pending enrollment")
	}

	s.metrics.AuthOutcome("mfa_enroll", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.MFAEnrolledEvent, accountID))
	return nil
}

// Challenge implements domain.MFAService. Every failure shape is reported as
// ErrInvalidMFACode.
func (s *MFAServiceImpl) Challenge(ctx context.Context, challengeID, code string) (*domain.LoginResult, error) {
	challenge, err := s.pending.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.challengeFailed(ctx, 0, "")
		}
		return nil, err
	}

	account, err := s.store.Accounts().FindByID(ctx, challenge.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.challengeFailed(ctx, challenge.AccountID, challengeID)
		}
		return nil, err
	}
	if !account.TwoFactorEnabled || account.TwoFactorSecret == "" {
		return nil, s.challengeFailed(ctx, account.ID, challengeID)
	}

	secret, err := s.sealer.Open(account.TwoFactorSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to open secret: %w", err)
	}
	if !s.totp.Validate(code, secret, s.settings.Now()) {
		return nil, s.challengeFailed(ctx, account.ID, challengeID)
	}

	deleted, err := s.pending.DeleteChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// completed concurrently
		return nil, s.challengeFailed(ctx, account.ID, "")
	}
	if !account.Status.CanLogin() {
		return nil, domain.ErrAccountInactive
	}

	tokens, err := s.auth.CompleteLogin(ctx, account)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{Account: account, Tokens: tokens}, nil
}

// challengeFailed counts the failed attempt against the challenge when one is
// given and returns the uniform error.
func (s *MFAServiceImpl) challengeFailed(ctx context.Context, accountID uint, challengeID string) error {
	if challengeID != "" {
		discarded, err := s.pending.RecordChallengeFailure(ctx, challengeID, s.settings.MaxAttempts)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to record challenge failure")
		} else if discarded {
			s.log.Warn().Uint("account_id", accountID).Msg("login challenge discarded after too many attempts")
		}
	}
	s.metrics.AuthOutcome("mfa_challenge", outcome(domain.ErrInvalidMFACode))
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.MFAChallengeFailureEvent, accountID).WithError(domain.ErrInvalidMFACode))
	return domain.ErrInvalidMFACode
}

// Disable implements domain.MFAService
func (s *MFAServiceImpl) Disable(ctx context.Context, accountID uint, code string) error {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.TwoFactorEnabled {
		return domain.ErrMFANotEnabled
	}

	secret, err := s.sealer.Open(account.TwoFactorSecret)
	if err != nil {
		return fmt.Errorf("failed to open secret: %w", err)
	}
	if !s.totp.Validate(code, secret, s.settings.Now()) {
		s.metrics.AuthOutcome("mfa_disable", outcome(domain.ErrInvalidMFACode))
		return domain.ErrInvalidMFACode
	}

	if err := s.store.Accounts().SetTwoFactor(ctx, accountID, "", false); err != nil {
		return err
	}

	s.dispatcher.SendSecurityAlert(ctx, account.Phone, "Two-factor authentication was disabled on your Gemstone Marketplace account.")
	s.metrics.AuthOutcome("mfa_disable", "success")
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.MFADisabledEvent, accountID))
	return nil
}
