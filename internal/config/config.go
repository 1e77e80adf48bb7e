package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/laptopstore/pkg/config"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// Remote store API
	APIBaseURL        string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	APITimeout        time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	APIMaxRetries     int           `env:"API_MAX_RETRIES" envDefault:"2"`
	APIRateLimitRPS   float64       `env:"API_RATE_LIMIT_RPS" envDefault:"20"`
	APIRateLimitBurst int           `env:"API_RATE_LIMIT_BURST" envDefault:"40"`

	// Local store
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"sqlite"`
	StorePath      string `env:"STORE_PATH" envDefault:"./storefront.db"`
	StoreNamespace string `env:"STORE_NAMESPACE" envDefault:"storefront"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// View layer
	HTTPPort          int      `env:"HTTP_PORT" envDefault:"8090"`
	LoginRoute        string   `env:"LOGIN_ROUTE" envDefault:"/login"`
	CORSOrigins       []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Behaviour
	NoticeTTL         time.Duration `env:"NOTICE_TTL" envDefault:"5s"`
	MergeGuestOnLogin bool          `env:"MERGE_GUEST_ON_LOGIN" envDefault:"true"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.APIBaseURL)
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")

	if c.APITimeout <= 0 {
		return fmt.Errorf("invalid API timeout: %s", c.APITimeout)
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("invalid API max retries: %d", c.APIMaxRetries)
	}
	if c.APIRateLimitRPS < 0 {
		return fmt.Errorf("invalid API rate limit: %v", c.APIRateLimitRPS)
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the %s driver", DriverRedis)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver: %q", c.StoreDriver)
	}
	if c.StoreNamespace == "" {
		return fmt.Errorf("STORE_NAMESPACE must not be empty")
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !strings.HasPrefix(c.LoginRoute, "/") {
		return fmt.Errorf("LOGIN_ROUTE must be an absolute path: %q", c.LoginRoute)
	}
	if c.NoticeTTL <= 0 {
		return fmt.Errorf("invalid notice TTL: %s", c.NoticeTTL)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1]: %v", c.OTELSampleRate)
	}
	return nil
}

// IsDevelopment reports whether the client runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
