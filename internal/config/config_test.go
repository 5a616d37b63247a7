package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS",
		"GA_CREDENTIALS_FILE", "GA_ENDPOINT", "GA_DEFAULT_PROPERTY",
		"GA_REQUESTS_PER_SECOND", "GA_BURST", "GA_TIMEOUT",
		"CACHE_TTL", "CACHE_SIZE", "JWT_SECRET",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "20002", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Analytics.CredentialsFile)
	assert.Empty(t, cfg.Analytics.DefaultProperty)
	assert.Equal(t, 10.0, cfg.Analytics.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Analytics.Burst)
	assert.Equal(t, 30*time.Second, cfg.Analytics.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 256, cfg.Cache.Size)
	assert.Empty(t, cfg.JWT.Secret)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("GA_CREDENTIALS_FILE", "/etc/ga/sa.json")
	t.Setenv("GA_ENDPOINT", "http://localhost:9000/")
	t.Setenv("GA_DEFAULT_PROPERTY", "123456")
	t.Setenv("GA_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("GA_BURST", "1")
	t.Setenv("GA_TIMEOUT", "5s")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("CACHE_SIZE", "10")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/etc/ga/sa.json", cfg.Analytics.CredentialsFile)
	assert.Equal(t, "http://localhost:9000/", cfg.Analytics.Endpoint)
	assert.Equal(t, "123456", cfg.Analytics.DefaultProperty)
	assert.Equal(t, 2.5, cfg.Analytics.RequestsPerSecond)
	assert.Equal(t, 1, cfg.Analytics.Burst)
	assert.Equal(t, 5*time.Second, cfg.Analytics.Timeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.Cache.Size)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GA_BURST", "many")
	t.Setenv("GA_TIMEOUT", "soon")
	t.Setenv("GA_REQUESTS_PER_SECOND", "fast")

	cfg := Load()

	assert.Equal(t, 5, cfg.Analytics.Burst)
	assert.Equal(t, 30*time.Second, cfg.Analytics.Timeout)
	assert.Equal(t, 10.0, cfg.Analytics.RequestsPerSecond)
}
