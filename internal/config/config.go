// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all termfolio configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Mounts
	MountsFile string
	HomeAlias  string
	Hostname   string
	Watch      bool

	// Env store (empty = in-memory)
	DatabaseURL string

	// S3 manifest source
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string

	// TLS (optional, if both set the server uses HTTPS)
	TLSCertFile string
	TLSKeyFile  string

	// Auth
	JWTSecret  string
	SessionTTL time.Duration
	AdminHash  string // bcrypt hash of the admin password

	// Terminal limits
	MaxHistory   int
	MaxOutput    int
	RateLimitRPM int // API calls per minute per session, 0 = unlimited
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  envOr("TERMFOLIO_LISTEN_ADDR", ":8080"),
		MetricsAddr: envOr("TERMFOLIO_METRICS_ADDR", ":9090"),
		LogLevel:    envOr("TERMFOLIO_LOG_LEVEL", "info"),
		LogFormat:   envOr("TERMFOLIO_LOG_FORMAT", "json"),
		MountsFile:  envOr("TERMFOLIO_MOUNTS_FILE", "mounts.yaml"),
		HomeAlias:   envOr("TERMFOLIO_HOME_ALIAS", "~"),
		Hostname:    envOr("TERMFOLIO_HOSTNAME", "termfolio"),
		Watch:       envBool("TERMFOLIO_WATCH", true),
		DatabaseURL: envOr("TERMFOLIO_DATABASE_URL", ""),
		S3Endpoint:  envOr("TERMFOLIO_S3_ENDPOINT", ""),
		S3Bucket:    envOr("TERMFOLIO_S3_BUCKET", ""),
		S3AccessKey: envOr("TERMFOLIO_S3_ACCESS_KEY", ""),
		S3SecretKey: envOr("TERMFOLIO_S3_SECRET_KEY", ""),
		S3Region:    envOr("TERMFOLIO_S3_REGION", "us-east-1"),
		TLSCertFile: envOr("TERMFOLIO_TLS_CERT_FILE", ""),
		TLSKeyFile:  envOr("TERMFOLIO_TLS_KEY_FILE", ""),
		JWTSecret:   envOr("TERMFOLIO_JWT_SECRET", ""),
		SessionTTL:  envDuration("TERMFOLIO_SESSION_TTL", 24*time.Hour),
		AdminHash:   envOr("TERMFOLIO_ADMIN_PASSWORD_HASH", ""),
		MaxHistory:  envInt("TERMFOLIO_MAX_HISTORY", 100),
		MaxOutput:   envInt("TERMFOLIO_MAX_OUTPUT", 1000),

		RateLimitRPM: envInt("TERMFOLIO_RATE_LIMIT_RPM", 600),
	}

	if cfg.HomeAlias == "" {
		return nil, fmt.Errorf("TERMFOLIO_HOME_ALIAS must not be empty")
	}
	if cfg.MaxHistory <= 0 {
		return nil, fmt.Errorf("TERMFOLIO_MAX_HISTORY must be positive, got %d", cfg.MaxHistory)
	}
	if cfg.MaxOutput <= 0 {
		return nil, fmt.Errorf("TERMFOLIO_MAX_OUTPUT must be positive, got %d", cfg.MaxOutput)
	}

	if cfg.RateLimitRPM < 0 {
		return nil, fmt.Errorf("TERMFOLIO_RATE_LIMIT_RPM must not be negative, got %d", cfg.RateLimitRPM)
	}

	return cfg, nil
}

// RequireServer checks the settings only the HTTP server needs.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("TERMFOLIO_JWT_SECRET is required")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TERMFOLIO_TLS_CERT_FILE and TERMFOLIO_TLS_KEY_FILE must be set together")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
