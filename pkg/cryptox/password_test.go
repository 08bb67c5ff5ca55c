package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fastHasher keeps the suite quick; production costs are enforced by
// NewPasswordHasher.
func fastHasher() *PasswordHasher {
	return &PasswordHasher{Cost: bcrypt.MinCost}
}

func TestHashAndVerify(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "Password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"unicode password", "Pässwörd9Ω"},
		{"whitespace password", "   Spaces 1   "},
		{"max length", strings.Repeat("a", 72)},
	}

	h := fastHasher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$2a$"), "hash should be bcrypt encoded")
			require.NotContains(t, hash, tt.password)

			require.NoError(t, h.Verify(tt.password, hash))
			require.ErrorIs(t, h.Verify(tt.password+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestHashIsSalted(t *testing.T) {
	h := fastHasher()
	a, err := h.Hash("Password123")
	require.NoError(t, err)
	b, err := h.Hash("Password123")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyCorruptHash(t *testing.T) {
	err := fastHasher().Verify("Password123", "not-a-bcrypt-hash")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestHashTooLong(t *testing.T) {
	_, err := fastHasher().Hash(strings.Repeat("a", 73))
	require.Error(t, err)
}

func TestNewPasswordHasher(t *testing.T) {
	t.Run("minimum cost", func(t *testing.T) {
		h, err := NewPasswordHasher(MinBcryptCost)
		require.NoError(t, err)
		require.Equal(t, MinBcryptCost, h.Cost)
	})

	t.Run("weak cost", func(t *testing.T) {
		_, err := NewPasswordHasher(10)
		require.ErrorIs(t, err, ErrWeakCost)
	})

	t.Run("excessive cost", func(t *testing.T) {
		_, err := NewPasswordHasher(bcrypt.MaxCost + 1)
		require.Error(t, err)
	})
}

func TestNeedsRehash(t *testing.T) {
	low := fastHasher()
	hash, err := low.Hash("Password123")
	require.NoError(t, err)

	require.False(t, low.NeedsRehash(hash))
	require.True(t, (&PasswordHasher{Cost: bcrypt.MinCost + 1}).NeedsRehash(hash))
	require.True(t, low.NeedsRehash("garbage"))
}

func TestVerifyDummy(t *testing.T) {
	h := fastHasher()
	require.NotPanics(t, func() {
		h.VerifyDummy("anything")
		h.VerifyDummy("anything else")
	})
	require.NotEmpty(t, h.dummy)
}

func TestFingerprintToken(t *testing.T) {
	fp1a := FingerprintToken("test-token-1")
	fp1b := FingerprintToken("test-token-1")
	fp2 := FingerprintToken("test-token-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 43, "SHA-256 base64url should be 43 chars")
}
