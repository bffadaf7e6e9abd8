package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/gemstone-market/identity/domain"
)

// SecretSealerImpl implements domain.SecretSealer with XChaCha20-Poly1305.
// Sealed values are base64(nonce || ciphertext).
type SecretSealerImpl struct {
	aead cipher.AEAD
}

// NewSecretSealer creates a sealer from a 64 character hex key
func NewSecretSealer(hexKey string) (domain.SecretSealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return &SecretSealerImpl{aead: aead}, nil
}

// Seal implements domain.SecretSealer
func (s *SecretSealerImpl) Seal(plain string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open implements domain.SecretSealer
func (s *SecretSealerImpl) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed secret: %w", err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", errors.New("sealed secret too short")
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed secret: %w", err)
	}
	return string(plain), nil
}
