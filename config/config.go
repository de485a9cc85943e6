package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned by Validate for values the server cannot run with.
var ErrInvalidConfig = errors.New("invalid configuration")

// Supported rate-limit store drivers
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Environment    string   `env:"APP_ENV" envDefault:"development"`
	Port           string   `env:"PORT" envDefault:"8080"`
	APIVersion     string   `env:"API_VERSION" envDefault:"v1"`
	Timezone       string   `env:"APP_TIMEZONE" envDefault:"UTC"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Email
	ContactEmailTo   string        `env:"CONTACT_EMAIL"`
	FromEmail        string        `env:"FROM_EMAIL" envDefault:"noreply@localhost"`
	FromName         string        `env:"FROM_NAME" envDefault:"Portfolio Contact Form"`
	SMTPHost         string        `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort         int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername     string        `env:"SMTP_USER"`
	SMTPPassword     string        `env:"SMTP_PASS"`
	SMTPTimeout      time.Duration `env:"SMTP_TIMEOUT" envDefault:"30s"`
	MailFallbackAddr string        `env:"MAIL_FALLBACK_ADDR" envDefault:"localhost:25"`
	SendTimeout      time.Duration `env:"SEND_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimit              int    `env:"RATE_LIMIT" envDefault:"10"`
	RateLimitWindowSeconds int    `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitFailClosed    bool   `env:"RATE_LIMIT_FAIL_CLOSED" envDefault:"false"`
	RateLimitStore         string `env:"RATE_LIMIT_STORE" envDefault:"file"`
	RateLimitDir           string `env:"RATE_LIMIT_DIR" envDefault:"logs/ratelimit"`
	SQLitePath             string `env:"SQLITE_PATH" envDefault:"data/ratelimit.db"`
	UpstashRedisURL        string `env:"UPSTASH_REDIS_URL"`
	UpstashRedisPassword   string `env:"UPSTASH_REDIS_PASSWORD"`
	DBUrl                  string `env:"DATABASE_URL"`

	// Global throttle (token bucket across all API routes, 0 disables)
	ThrottleRPS   float64 `env:"THROTTLE_RPS" envDefault:"20"`
	ThrottleBurst int     `env:"THROTTLE_BURST" envDefault:"40"`

	MaxMessageLength int    `env:"MAX_MESSAGE_LENGTH" envDefault:"1000"`
	AuditLogDir      string `env:"AUDIT_LOG_DIR" envDefault:"logs/contacts"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogFile   string `env:"LOG_FILE"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	// Only effective locally; production sets the environment directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.RateLimitStore = strings.ToLower(strings.TrimSpace(cfg.RateLimitStore))
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimRight(strings.TrimSpace(origin), "/")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the contact pipeline unusable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ContactEmailTo) == "" {
		return fmt.Errorf("%w: CONTACT_EMAIL is required", ErrInvalidConfig)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT must be positive", ErrInvalidConfig)
	}
	if c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_WINDOW_SECONDS must be positive", ErrInvalidConfig)
	}
	if c.MaxMessageLength < 10 {
		return fmt.Errorf("%w: MAX_MESSAGE_LENGTH must be at least 10", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: APP_TIMEZONE %q: %v", ErrInvalidConfig, c.Timezone, err)
	}

	switch c.RateLimitStore {
	case StoreMemory, StoreFile, StoreSQLite:
	case StoreRedis:
		if c.UpstashRedisURL == "" {
			return fmt.Errorf("%w: UPSTASH_REDIS_URL is required for the redis store", ErrInvalidConfig)
		}
	case StorePostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown RATE_LIMIT_STORE %q", ErrInvalidConfig, c.RateLimitStore)
	}
	return nil
}

// IsProduction reports whether development conveniences must be disabled.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RateLimitWindow returns the sliding window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
