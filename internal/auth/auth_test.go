package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioroom/backend/internal/config"
)

func tokenConfig(secret string) *config.Config {
	return &config.Config{JWTSecret: secret, SessionTimeoutMin: 30}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	cfg := tokenConfig("test-secret")

	token, err := IssueToken(cfg, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := VerifyToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(tokenConfig("secret-a"), 42)
	require.NoError(t, err)

	_, err = VerifyToken(tokenConfig("secret-b"), token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	cfg := tokenConfig("test-secret")
	cfg.SessionTimeoutMin = -1

	token, err := IssueToken(cfg, 42)
	require.NoError(t, err)

	_, err = VerifyToken(cfg, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	cfg := tokenConfig("test-secret")

	_, err := VerifyToken(cfg, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = VerifyToken(cfg, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
