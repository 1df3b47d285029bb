// Package config loads the bot configuration from the environment.
//
// An optional .env file is read first; real environment variables always win.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // REMINDER_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Telegram  Telegram
	Database  Database
	Reminders Reminders
	Log       Log
	Metrics   Metrics
}

// Telegram configures the Bot API client
type Telegram struct {
	Token        string        `env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	HTTPTimeout  time.Duration `env:"TELEGRAM_HTTP_TIMEOUT" envDefault:"75s" validate:"gt=0"`
	PollTimeout  int           `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"60" validate:"gte=0"`
	SendRate     float64       `env:"TELEGRAM_SEND_RATE" envDefault:"25" validate:"gt=0"`
	AdminUserIDs []int64       `env:"ADMIN_USER_IDS" envSeparator:","`
}

// Database selects the driver and data source
type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3" validate:"oneof=sqlite3 postgres"`
	URL    string `env:"DATABASE_URL" envDefault:"data/fitbot.db" validate:"required"`
}

// Reminders configures the reminder scheduler
type Reminders struct {
	IntervalSeconds int    `env:"REMINDER_INTERVAL_SECONDS" envDefault:"60" validate:"gte=1"`
	Timezone        string `env:"REMINDER_TIMEZONE" envDefault:"Europe/Moscow" validate:"required"`
	Dedup           bool   `env:"REMINDER_DEDUP" envDefault:"false"`

	location *time.Location
}

// Log configures the global logger
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

// Metrics configures the ops HTTP listener, empty Addr disables it
type Metrics struct {
	Addr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Interval returns the tick interval as a duration
func (r Reminders) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// Location returns the loaded timezone, falling back to UTC before Validate
func (r Reminders) Location() *time.Location {
	if r.location == nil {
		return time.UTC
	}
	return r.location
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	// Ignore error: .env is optional
	_ = godotenv.Load()

	return FromEnvironment(env.Options{})
}

// FromEnvironment parses and validates configuration with the given options
func FromEnvironment(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and resolves the reminder timezone
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return fmt.Errorf("invalid config: REMINDER_TIMEZONE %q: %w", c.Reminders.Timezone, err)
	}
	c.Reminders.location = loc

	return nil
}

// IsBootstrapAdmin reports whether the Telegram ID is listed in ADMIN_USER_IDS
func (c *Config) IsBootstrapAdmin(telegramID int64) bool {
	for _, id := range c.Telegram.AdminUserIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}
