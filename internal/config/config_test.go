package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		JWT: JWTConfig{
			Secret:          "0123456789abcdef",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			LoginMax:    5,
			RefreshMax:  10,
			Window:      time.Minute,
			GlobalRPS:   50,
			GlobalBurst: 100,
		},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.Secret = "too-short"
	require.Error(t, cfg.Validate())

	cfg.JWT.Secret = ""
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadRateLimits(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.LoginMax = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.Window = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.GlobalRPS = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.GlobalBurst = 0
	require.Error(t, cfg.Validate())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 30*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	require.Equal(t, 5, cfg.RateLimit.LoginMax)
	require.Equal(t, 10, cfg.RateLimit.RefreshMax)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.Equal(t, 50.0, cfg.RateLimit.GlobalRPS)
	require.Equal(t, 100, cfg.RateLimit.GlobalBurst)
}
