package mocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gemstone-market/identity/domain"
)

// MockPasswordService implements domain.PasswordService interface for testing.
// By default a hash is "hashed_" + password.
type MockPasswordService struct {
	HashFunc   func(ctx context.Context, password string) (string, error)
	VerifyFunc func(ctx context.Context, hashedPassword, password string) bool
}

// NewMockPasswordService creates a new MockPasswordService with default behaviors
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

func (m *MockPasswordService) Hash(ctx context.Context, password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(ctx, password)
	}
	return "hashed_" + password, nil
}

func (m *MockPasswordService) Verify(ctx context.Context, hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, hashedPassword, password)
	}
	return hashedPassword != "" && hashedPassword == "hashed_"+password
}

// MockTokenCodec implements domain.TokenCodec interface for testing. Default
// tokens look like "access:<id>" and verify back to their account id.
type MockTokenCodec struct {
	IssueAccessTokenFunc  func(claims domain.TokenClaims) (string, error)
	IssueRefreshTokenFunc func(claims domain.TokenClaims) (string, error)
	VerifyFunc            func(token string, kind domain.TokenKind) domain.VerifyResult
	counter               int
}

// NewMockTokenCodec creates a new MockTokenCodec with default behaviors
func NewMockTokenCodec() *MockTokenCodec {
	return &MockTokenCodec{}
}

func (m *MockTokenCodec) IssueAccessToken(claims domain.TokenClaims) (string, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(claims)
	}
	m.counter++
	return fmt.Sprintf("access:%d:%d", claims.AccountID, m.counter), nil
}

func (m *MockTokenCodec) IssueRefreshToken(claims domain.TokenClaims) (string, error) {
	if m.IssueRefreshTokenFunc != nil {
		return m.IssueRefreshTokenFunc(claims)
	}
	m.counter++
	return fmt.Sprintf("refresh:%d:%d", claims.AccountID, m.counter), nil
}

func (m *MockTokenCodec) Verify(token string, kind domain.TokenKind) domain.VerifyResult {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token, kind)
	}
	var id uint
	var n int
	if _, err := fmt.Sscanf(strings.TrimPrefix(token, string(kind)+":"), "%d:%d", &id, &n); err != nil || !strings.HasPrefix(token, string(kind)+":") {
		return domain.VerifyResult{Reason: "malformed"}
	}
	return domain.VerifyResult{Valid: true, Claims: &domain.TokenClaims{AccountID: id, Kind: kind}}
}

func (m *MockTokenCodec) AccessTTL() time.Duration { return 15 * time.Minute }

func (m *MockTokenCodec) RefreshTTL() time.Duration { return 7 * 24 * time.Hour }

// MockTOTPProvider implements domain.TOTPProvider interface for testing. By
// default the only valid code for a secret is "code-" + secret.
type MockTOTPProvider struct {
	GenerateSecretFunc func(accountName string) (*domain.Enrollment, error)
	ValidateFunc       func(code, secret string, at time.Time) bool
}

// NewMockTOTPProvider creates a new MockTOTPProvider with default behaviors
func NewMockTOTPProvider() *MockTOTPProvider {
	return &MockTOTPProvider{}
}

func (m *MockTOTPProvider) GenerateSecret(accountName string) (*domain.Enrollment, error) {
	if m.GenerateSecretFunc != nil {
		return m.GenerateSecretFunc(accountName)
	}
	return &domain.Enrollment{
		Secret:          "SECRET",
		ProvisioningURI: "otpauth://totp/test:" + accountName + "?secret=SECRET",
		QRCodeDataURL:   "data:image/png;base64,",
	}, nil
}

func (m *MockTOTPProvider) Validate(code, secret string, at time.Time) bool {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(code, secret, at)
	}
	return code == "code-"+secret
}

// MockSecretSealer implements domain.SecretSealer interface for testing. The
// default sealing is a reversible prefix.
type MockSecretSealer struct {
	SealFunc func(plain string) (string, error)
	OpenFunc func(sealed string) (string, error)
}

// NewMockSecretSealer creates a new MockSecretSealer with default behaviors
func NewMockSecretSealer() *MockSecretSealer {
	return &MockSecretSealer{}
}

func (m *MockSecretSealer) Seal(plain string) (string, error) {
	if m.SealFunc != nil {
		return m.SealFunc(plain)
	}
	return "sealed:" + plain, nil
}

func (m *MockSecretSealer) Open(sealed string) (string, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(sealed)
	}
	if !strings.HasPrefix(sealed, "sealed:") {
		return "", fmt.Errorf("not sealed")
	}
	return strings.TrimPrefix(sealed, "sealed:"), nil
}

// Compile-time interface compliance verification
var (
	_ domain.PasswordService = (*MockPasswordService)(nil)
	_ domain.TokenCodec      = (*MockTokenCodec)(nil)
	_ domain.TOTPProvider    = (*MockTOTPProvider)(nil)
	_ domain.SecretSealer    = (*MockSecretSealer)(nil)
)
