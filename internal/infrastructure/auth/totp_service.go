package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/gemstone-market/identity/domain"
)

const qrCodeSize = 200

// TOTPServiceImpl implements domain.TOTPProvider
type TOTPServiceImpl struct {
	issuer string
}

// NewTOTPService creates a new TOTP provider
func NewTOTPService(issuer string) domain.TOTPProvider {
	return &TOTPServiceImpl{issuer: issuer}
}

// GenerateSecret implements domain.TOTPProvider
func (s *TOTPServiceImpl) GenerateSecret(accountName string) (*domain.Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return &domain.Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCodeDataURL:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Validate implements domain.TOTPProvider. One step of clock skew is accepted
// either side.
func (s *TOTPServiceImpl) Validate(code, secret string, at time.Time) bool {
	if code == "" || secret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, at.UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
