package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	Port        string
	Environment string

	// Admin access to the scoring configuration endpoints
	JWTSecret         string
	AdminEmail        string
	AdminPasswordHash string

	// Logging
	LogLevel  string
	LogFormat string

	// Scoring policy overlay (YAML), reloaded when it changes
	ScoringConfigFile string

	// Raw webhook payloads are written here when set
	PayloadArchiveDir string

	// Reservation lookup
	HospitableAPIKey            string
	HospitableBaseURL           string
	HospitableRequestsPerSecond int

	// Security configuration
	AllowedOrigins  string
	TrustedProxies  string
	EnableRateLimit bool
	MaxRequestSize  int64
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		Port:                        getEnv("PORT", "8080"),
		Environment:                 getEnv("ENV", "development"),
		JWTSecret:                   getEnv("JWT_SECRET", ""),
		AdminEmail:                  getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash:           getEnv("ADMIN_PASSWORD_HASH", ""),
		LogLevel:                    getEnv("LOG_LEVEL", "info"),
		LogFormat:                   getEnv("LOG_FORMAT", "json"),
		ScoringConfigFile:           getEnv("SCORING_CONFIG_FILE", ""),
		PayloadArchiveDir:           getEnv("PAYLOAD_ARCHIVE_DIR", ""),
		HospitableAPIKey:            getEnv("HOSPITABLE_API_KEY", ""),
		HospitableBaseURL:           getEnv("HOSPITABLE_BASE_URL", "https://public.api.hospitable.com"),
		HospitableRequestsPerSecond: getEnvAsInt("HOSPITABLE_REQUESTS_PER_SECOND", 5),
		AllowedOrigins:              getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:              getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:             getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		MaxRequestSize:              getEnvAsInt64("MAX_REQUEST_SIZE", 10*1024*1024), // 10MB default
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasHospitableCredentials returns true if the reservation lookup is configured
func (c *Config) HasHospitableCredentials() bool {
	return c.HospitableAPIKey != ""
}

// HasAdminCredentials returns true if admin login is possible
func (c *Config) HasAdminCredentials() bool {
	return c.AdminEmail != "" && c.AdminPasswordHash != "" && c.JWTSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return strings.Split(c.TrustedProxies, ",")
}

// IsSecurityEnabled returns true if security features should be enabled
func (c *Config) IsSecurityEnabled() bool {
	return c.IsProduction() || getEnv("ENABLE_SECURITY", "false") == "true"
}
