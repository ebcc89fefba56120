package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 50, cfg.Server.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.Server.RateLimit.Burst)

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "argus", cfg.MongoDB.Database)
	assert.True(t, cfg.MongoDB.Enabled)

	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.AllowSystemFallback)
	assert.Empty(t, cfg.Auth.AnalyzeSecretHash)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.AI.BaseURL)
	assert.Len(t, cfg.AI.Models, 3)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 256, cfg.AI.CacheSize)

	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("ARGUS_SERVER_PORT", "9090")
	t.Setenv("ARGUS_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_JWTSecretTooShort(t *testing.T) {
	resetViper(t)
	t.Setenv("ARGUS_AUTH_JWT_SECRET", "too-short")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestLoadConfig_AnalyzeSecretHashed(t *testing.T) {
	resetViper(t)
	t.Setenv("ARGUS_AUTH_ANALYZE_SECRET", "webhook-secret")
	t.Setenv("ARGUS_AUTH_BCRYPT_COST", "4")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// The plain secret never survives loading
	assert.Empty(t, cfg.Auth.AnalyzeSecret)
	require.NotEmpty(t, cfg.Auth.AnalyzeSecretHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cfg.Auth.AnalyzeSecretHash), []byte("webhook-secret")))
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	resetViper(t)
	t.Setenv("ARGUS_SERVER_PORT", "70000")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}
