package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("motdepasse")
	require.NoError(t, err)
	require.NotEqual(t, "motdepasse", hash)
	require.True(t, VerifyPassword(hash, "motdepasse"))
	require.False(t, VerifyPassword(hash, "autre"))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("")
	require.Error(t, err)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, err := HashPassword("motdepasse")
	require.NoError(t, err)
	second, err := HashPassword("motdepasse")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	require.False(t, VerifyPassword("not-a-bcrypt-hash", "motdepasse"))
	require.False(t, VerifyPassword("", "motdepasse"))
}
