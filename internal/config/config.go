// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New initializer to build a Config with defaults.
// - All loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultThreshold is the level below which the override applies when no
// other value is configured. The "default" admin command restores it.
const DefaultThreshold = 20

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Threshold is the level below which characters get the override.
	// Zero disables the override entirely.
	Threshold int `koanf:"threshold"`

	// WatchConfig re-applies the threshold whenever the config file changes.
	WatchConfig bool `koanf:"watch_config"`

	// MailboxTTLSeconds bounds how long an undelivered warning is kept for
	// an online player.
	MailboxTTLSeconds int `koanf:"mailbox_ttl_seconds"`

	// OfflineRetentionHours bounds how long a logged-out character's last
	// below-threshold level is remembered.
	OfflineRetentionHours int `koanf:"offline_retention_hours"`

	// AdminRateLimit and AdminBurst throttle threshold mutations over HTTP.
	AdminRateLimit float64 `koanf:"admin_rate_limit"`
	AdminBurst     int     `koanf:"admin_burst"`

	// MetricsNamespace prefixes every exported Prometheus metric.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// Path is the file the config was loaded from, if any.
	Path string `koanf:"-"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		Threshold:             DefaultThreshold,
		WatchConfig:           true,
		MailboxTTLSeconds:     600,
		OfflineRetentionHours: 24 * 30,
		AdminRateLimit:        5,
		AdminBurst:            10,
		MetricsNamespace:      "greenhorn",
	}
}

// MailboxTTL returns MailboxTTLSeconds as a duration.
func (c *Config) MailboxTTL() time.Duration {
	return time.Duration(c.MailboxTTLSeconds) * time.Second
}

// OfflineRetention returns OfflineRetentionHours as a duration.
func (c *Config) OfflineRetention() time.Duration {
	return time.Duration(c.OfflineRetentionHours) * time.Hour
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Threshold < 0:
		return fmt.Errorf("%w: threshold must not be negative, got %d", ErrInvalidConfig, c.Threshold)
	case c.MailboxTTLSeconds <= 0:
		return fmt.Errorf("%w: mailbox_ttl_seconds must be positive", ErrInvalidConfig)
	case c.OfflineRetentionHours <= 0:
		return fmt.Errorf("%w: offline_retention_hours must be positive", ErrInvalidConfig)
	case c.AdminRateLimit <= 0 || c.AdminBurst <= 0:
		return fmt.Errorf("%w: admin_rate_limit and admin_burst must be positive", ErrInvalidConfig)
	case !metricNamePattern.MatchString(c.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name prefix", ErrInvalidConfig, c.MetricsNamespace)
	}
	return nil
}
