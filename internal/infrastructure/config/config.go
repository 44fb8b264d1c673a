package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Server     ServerConfig
	Supervisor SupervisorConfig
	Dump       DumpConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
}

// ServerConfig holds admin HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SupervisorConfig holds supervisor behaviour knobs.
type SupervisorConfig struct {
	// ShutdownTimeout is the window each stack gets to go quiescent.
	ShutdownTimeout time.Duration `envconfig:"SUPERVISOR_SHUTDOWN_TIMEOUT" default:"10s"`
	// Layout is an optional YAML or TOML file listing stacks to create at boot.
	Layout string `envconfig:"SUPERVISOR_LAYOUT"`
}

// DumpConfig holds the live activity dump client configuration.
type DumpConfig struct {
	Timeout           time.Duration `envconfig:"DUMP_TIMEOUT" default:"2s"`
	Retries           int           `envconfig:"DUMP_RETRIES" default:"1"`
	RequestsPerSecond int           `envconfig:"DUMP_RPS" default:"20"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds admin API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// Global shares one budget across all clients instead of one per IP.
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" default:"false"`
}

// CORSConfig holds admin API cross-origin configuration.
type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Supervisor: SupervisorConfig{
			ShutdownTimeout: 10 * time.Second,
		},
		Dump: DumpConfig{
			Timeout:           2 * time.Second,
			Retries:           1,
			RequestsPerSecond: 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
	}
}

// Validate rejects values the supervisor cannot run with.
func (c *Config) Validate() error {
	if c.Supervisor.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.Supervisor.ShutdownTimeout)
	}
	if c.Dump.Timeout <= 0 {
		return fmt.Errorf("dump timeout must be positive, got %s", c.Dump.Timeout)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit needs positive rps and burst, got %d/%d", c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
	}
	if c.Dump.Retries < 0 {
		return fmt.Errorf("dump retries must not be negative, got %d", c.Dump.Retries)
	}
	return nil
}
