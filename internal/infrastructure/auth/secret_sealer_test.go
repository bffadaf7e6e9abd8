package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSecretSealerImpl(t *testing.T) {
	sealer, err := NewSecretSealer(testEncryptionKey)
	require.NoError(t, err)

	sealed, err := sealer.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "JBSWY3DPEHPK3PXP")

	again, err := sealer.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plain)

	otherKey := strings.Repeat("ab", 32)
	other, err := NewSecretSealer(otherKey)
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.Error(t, err)

	_, err = sealer.Open("%%%")
	assert.Error(t, err)
	_, err = sealer.Open("")
	assert.Error(t, err)
}

func TestNewSecretSealer_InvalidKey(t *testing.T) {
	_, err := NewSecretSealer("zz")
	assert.Error(t, err)

	_, err = NewSecretSealer("0011")
	assert.Error(t, err)
}
