// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every externally supplied setting. SessionSecret has no
// default on purpose: a real deployment must provide it, the process
// refuses to start without one.
type Config struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./parley.db"`

	// SessionSecret signs API tokens. It is threaded through the token
	// store constructor, never read from a module-level constant.
	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`

	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`

	// SecureCookies should only be disabled for local development over
	// plain http.
	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"true"`

	SessionsInMemory bool `env:"SESSIONS_IN_MEMORY" envDefault:"false"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config from environment: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
