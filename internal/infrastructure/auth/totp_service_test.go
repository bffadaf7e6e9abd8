package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPServiceImpl_GenerateSecret(t *testing.T) {
	svc := NewTOTPService("Gemstone Marketplace")

	enrollment, err := svc.GenerateSecret("buyer@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.Secret)
	assert.True(t, strings.HasPrefix(enrollment.ProvisioningURI, "otpauth://totp/"))
	assert.Contains(t, enrollment.ProvisioningURI, "issuer=Gemstone")
	assert.True(t, strings.HasPrefix(enrollment.QRCodeDataURL, "data:image/png;base64,"))
}

func TestTOTPServiceImpl_Validate(t *testing.T) {
	svc := NewTOTPService("Gemstone Marketplace")
	enrollment, err := svc.GenerateSecret("buyer@example.com")
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 15, 0, time.UTC)
	code, err := totp.GenerateCode(enrollment.Secret, now)
	require.NoError(t, err)

	other, err := svc.GenerateSecret("other@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		code     string
		secret   string
		at       time.Time
		expected bool
	}{
		{name: "current step", code: code, secret: enrollment.Secret, at: now, expected: true},
		{name: "one step later", code: code, secret: enrollment.Secret, at: now.Add(30 * time.Second), expected: true},
		{name: "one step earlier", code: code, secret: enrollment.Secret, at: now.Add(-30 * time.Second), expected: true},
		{name: "outside skew", code: code, secret: enrollment.Secret, at: now.Add(2 * time.Minute), expected: false},
		{name: "wrong secret", code: code, secret: other.Secret, at: now, expected: false},
		{name: "empty code", code: "", secret: enrollment.Secret, at: now, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, svc.Validate(tt.code, tt.secret, tt.at))
		})
	}
}
