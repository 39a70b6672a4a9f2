package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "PORT", "ENV", "LOG_LEVEL", "HOSPITABLE_BASE_URL", "HOSPITABLE_REQUESTS_PER_SECOND", "ENABLE_RATE_LIMIT", "MAX_REQUEST_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := New()

	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://public.api.hospitable.com", cfg.HospitableBaseURL)
	assert.Equal(t, 5, cfg.HospitableRequestsPerSecond)
	assert.True(t, cfg.EnableRateLimit)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxRequestSize)
	assert.False(t, cfg.HasHospitableCredentials())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("HOSPITABLE_API_KEY", "key")
	t.Setenv("HOSPITABLE_REQUESTS_PER_SECOND", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ENABLE_RATE_LIMIT", "false")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")
	t.Setenv("ADMIN_PASSWORD_HASH", "$2a$12$hash")

	cfg := New()

	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.IsSecurityEnabled())
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.HasHospitableCredentials())
	assert.Equal(t, 5, cfg.HospitableRequestsPerSecond)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetAllowedOrigins())
	assert.False(t, cfg.EnableRateLimit)
	assert.True(t, cfg.HasAdminCredentials())
}
