// Package config defines the configuration structures for the ProtoPRED
// client tooling.  No I/O or parsing logic lives here — only plain data
// types and validation.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// AccountConfig holds the ProtoPRED account credentials. All three fields
// are required by the API; none of them may ever appear in log output or
// error messages.
type AccountConfig struct {
	Token     string `mapstructure:"token"`
	SecretKey string `mapstructure:"secret_key"`
	User      string `mapstructure:"user"`
}

// ClientConfig holds HTTP client tunables.
type ClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "text"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the optional Prometheus exposition endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Config is the root configuration structure.
type Config struct {
	Account AccountConfig `mapstructure:"account"`
	Client  ClientConfig  `mapstructure:"client"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error
// as fatal. Error messages name the missing field, never its value.
func (c *Config) Validate() error {
	// Account — presence only, values stay out of the message.
	if c.Account.Token == "" {
		return fmt.Errorf("config: account.token is required")
	}
	if c.Account.SecretKey == "" {
		return fmt.Errorf("config: account.secret_key is required")
	}
	if c.Account.User == "" {
		return fmt.Errorf("config: account.user is required")
	}

	// Client
	u, err := url.Parse(c.Client.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("config: client.base_url %q is not a valid URL", c.Client.BaseURL)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("config: client.timeout must be positive, got %s", c.Client.Timeout)
	}
	if c.Client.MaxRetries < 0 {
		return fmt.Errorf("config: client.max_retries must be ≥ 0, got %d", c.Client.MaxRetries)
	}
	if c.Client.RetryDelay <= 0 {
		return fmt.Errorf("config: client.retry_delay must be positive, got %s", c.Client.RetryDelay)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|text", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("config: metrics.addr is required when metrics.enabled is true")
	}

	return nil
}
