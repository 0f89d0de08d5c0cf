package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgon2Hasher_Hash(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher("pepper")

	tests := []struct {
		name  string
		plain string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"otp code", "482913"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash, err := h.Hash(tt.plain)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.True(t, h.Compare(tt.plain, hash))
			require.NoError(t, h.Verify(tt.plain, hash))
		})
	}
}

func TestArgon2Hasher_UniqueSalts(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher("")

	a, err := h.Hash("samepassword")
	require.NoError(t, err)
	b, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, a, b, "hashes should differ due to unique salts")
	require.True(t, h.Compare("samepassword", a))
	require.True(t, h.Compare("samepassword", b))
}

func TestArgon2Hasher_Mismatch(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher("pepper")

	hash, err := h.Hash("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-Password", "correct-password ", "", strings.Repeat("x", 10000)} {
		require.ErrorIs(t, h.Verify(wrong, hash), ErrMismatch)
		require.False(t, h.Compare(wrong, hash))
	}
}

func TestArgon2Hasher_PepperIsApplied(t *testing.T) {
	t.Parallel()

	hash, err := NewArgon2Hasher("pepper-a").Hash("Str0ng!Pwd")
	require.NoError(t, err)

	require.False(t, NewArgon2Hasher("pepper-b").Compare("Str0ng!Pwd", hash))
	require.False(t, NewArgon2Hasher("").Compare("Str0ng!Pwd", hash))
}

func TestArgon2Hasher_InvalidHashFormat(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher("")

	tests := []struct {
		name string
		hash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, h.Verify("test-password", tt.hash), ErrInvalidHash)
			require.False(t, h.Compare("test-password", tt.hash))
		})
	}
}
