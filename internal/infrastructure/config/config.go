package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned when a value parses but is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	// Redis (leave empty to disable idempotency keys)
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"100"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"200"`

	// Scheduling
	InterestRate     decimal.Decimal `env:"INTEREST_RATE"     envDefault:"0.20"`
	InterestInterval time.Duration   `env:"INTEREST_INTERVAL" envDefault:"24h"`
	PaymentInterval  time.Duration   `env:"PAYMENT_INTERVAL"  envDefault:"1h"`
	ScheduleTimezone string          `env:"SCHEDULE_TIMEZONE" envDefault:"UTC"`

	// Location is ScheduleTimezone resolved by Load.
	Location *time.Location `env:"-"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.InterestRate.IsNegative() {
		return fmt.Errorf("%w: INTEREST_RATE %s must not be negative", ErrInvalidConfig, c.InterestRate)
	}
	if c.InterestInterval <= 0 {
		return fmt.Errorf("%w: INTEREST_INTERVAL must be positive", ErrInvalidConfig)
	}
	if c.PaymentInterval <= 0 {
		return fmt.Errorf("%w: PAYMENT_INTERVAL must be positive", ErrInvalidConfig)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("%w: rate limit values must be positive", ErrInvalidConfig)
	}

	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return fmt.Errorf("%w: SCHEDULE_TIMEZONE %q: %v", ErrInvalidConfig, c.ScheduleTimezone, err)
	}
	c.Location = loc

	return nil
}
