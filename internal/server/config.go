// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the chat relay.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `env:"BURST"           envDefault:"5"`
	RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"1s"`
}

// Config holds the server configuration settings including security controls
// and room policy.
type Config struct {
	Port              string          `env:"SERVER_PORT"         envDefault:":8080"`
	AllowedOrigins    []string        `env:"ALLOWED_ORIGINS"     envDefault:"http://localhost:8080" envSeparator:","`
	MaxMessageSize    int64           `env:"MAX_MESSAGE_SIZE"    envDefault:"1048576"`
	RateLimit         RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	HistorySize       int             `env:"HISTORY_SIZE"        envDefault:"100"`
	MaxAvatarSize     int             `env:"MAX_AVATAR_SIZE"     envDefault:"262144"`
	ReclaimEmptyRooms bool            `env:"RECLAIM_EMPTY_ROOMS" envDefault:"false"`
	ShutdownTimeout   time.Duration   `env:"SHUTDOWN_TIMEOUT"    envDefault:"10s"`
	LogLevel          string          `env:"LOG_LEVEL"           envDefault:"info"`
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 1 << 20
	defaultBurst           = 5
	defaultRefillInterval  = time.Second
	defaultHistorySize     = 100
	defaultMaxAvatarSize   = 256 << 10
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"
)

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize: defaultMaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          defaultBurst,
			RefillInterval: defaultRefillInterval,
		},
		HistorySize:     defaultHistorySize,
		MaxAvatarSize:   defaultMaxAvatarSize,
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        defaultLogLevel,
	}
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// Sanitize replaces missing or out-of-range values with their defaults and
// normalizes the origin list.
func (c Config) Sanitize() Config {
	c.Port = strings.TrimSpace(c.Port)
	if c.Port == "" {
		c.Port = defaultPort
	} else if !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}

	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = defaultBurst
	}

	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = defaultRefillInterval
	}

	if c.HistorySize <= 0 {
		c.HistorySize = defaultHistorySize
	}

	if c.MaxAvatarSize <= 0 {
		c.MaxAvatarSize = defaultMaxAvatarSize
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return c
}

// ParseConfig builds a sanitized Config from environ. A nil environ reads the
// process environment.
func ParseConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.Sanitize(), nil
}

// LoadConfig loads an optional .env file (or the given files) into the
// process environment and parses the result.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return ParseConfig(nil)
}
