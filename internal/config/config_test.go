package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY_DAYS", "")
	t.Setenv("APP_ENV", "")
	cfg := Load()
	assert.Equal(t, "3000", cfg.AppPort)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "bikes", cfg.DynamoTables.Bikes)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_EXPIRY_DAYS", "1")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("REDIS_DB", "not-a-number")
	cfg := Load()
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoad_TrustProxyHeaders(t *testing.T) {
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	assert.True(t, Load().TrustProxyHeaders)

	t.Setenv("TRUST_PROXY_HEADERS", "maybe")
	assert.False(t, Load().TrustProxyHeaders)
}
