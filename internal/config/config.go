package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Analytics AnalyticsConfig
	Cache     CacheConfig
	JWT       JWTConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// AnalyticsConfig configures the GA4 Data API client
type AnalyticsConfig struct {
	CredentialsFile   string
	Endpoint          string
	DefaultProperty   string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

type CacheConfig struct {
	TTL  time.Duration
	Size int
}

type JWTConfig struct {
	Secret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "20002"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")),
		},
		Analytics: AnalyticsConfig{
			CredentialsFile:   getEnv("GA_CREDENTIALS_FILE", ""),
			Endpoint:          getEnv("GA_ENDPOINT", ""),
			DefaultProperty:   getEnv("GA_DEFAULT_PROPERTY", ""),
			RequestsPerSecond: getEnvFloat("GA_REQUESTS_PER_SECOND", 10),
			Burst:             getEnvInt("GA_BURST", 5),
			Timeout:           getEnvDuration("GA_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			TTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
			Size: getEnvInt("CACHE_SIZE", 256),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
