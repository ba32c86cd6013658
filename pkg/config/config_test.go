package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("MAIL_PROVIDER", "SendGrid")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("FOLLOWUP_RATE_WINDOW", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "sendgrid", cfg.Mail.Provider)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5, cfg.Intake.MaxCodeAttempts)
	assert.Equal(t, time.Minute, cfg.FollowUp.RateWindow)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("", time.Second))
	assert.Equal(t, time.Second, parseDuration("bogus", time.Second))
	assert.Equal(t, 3*time.Minute, parseDuration("3m", time.Second))
}
