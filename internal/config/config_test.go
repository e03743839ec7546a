package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)

	assert.Equal(t, "classhub_session", cfg.Auth.CookieName)
	assert.Equal(t, 720*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 48*time.Hour, cfg.Auth.VerificationTTL)

	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 120, cfg.RateLimit.GeneralLimit)
	assert.Equal(t, 10, cfg.RateLimit.AuthLimit)
	assert.True(t, cfg.RateLimit.FailOpen)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLASSHUB_RATELIMIT_AUTHLIMIT", "3")
	t.Setenv("CLASSHUB_AUTH_COOKIENAME", "other_cookie")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.RateLimit.AuthLimit)
	assert.Equal(t, "other_cookie", cfg.Auth.CookieName)
}
