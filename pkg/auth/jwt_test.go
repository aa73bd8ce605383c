package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cremaze/cremaze/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken("64f1b2c3d4e5f60718293a4b", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "64f1b2c3d4e5f60718293a4b", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := auth.GenerateToken("64f1b2c3d4e5f60718293a4b", false)
	require.NoError(t, err)

	_, err = auth.ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := auth.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("scoops4life")
	require.NoError(t, err)
	assert.NotEqual(t, "scoops4life", hash)

	assert.True(t, auth.CheckPassword(hash, "scoops4life"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
