package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionToken(t *testing.T) {
	token1, hash1, err := GenerateSessionToken()
	require.NoError(t, err)
	token2, hash2, err := GenerateSessionToken()
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
	assert.NotEqual(t, hash1, hash2)
	assert.Equal(t, hash1, HashSessionToken(token1))
	assert.NotContains(t, token1, "=")
}

func TestVerificationTokenRoundTrip(t *testing.T) {
	token, err := GenerateVerificationToken("secret", "u1", "nonce-1", time.Hour)
	require.NoError(t, err)

	claims, err := ParseVerificationToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "nonce-1", claims.ID)
}

func TestVerificationTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateVerificationToken("secret", "u1", "nonce-1", time.Hour)
	require.NoError(t, err)

	_, err = ParseVerificationToken(token, "other-secret")
	assert.Error(t, err)
}

func TestVerificationTokenRejectsExpired(t *testing.T) {
	token, err := GenerateVerificationToken("secret", "u1", "nonce-1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseVerificationToken(token, "secret")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", []byte("not-a-hash"))
	assert.Error(t, err)
}
