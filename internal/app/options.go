package service

import (
	"time"

	"github.com/okian/greenhorn/internal/adapters/notify"
	"github.com/okian/greenhorn/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithThreshold sets the initial threshold. Negative values are ignored.
func WithThreshold(t int) Option {
	return func(s *Service) {
		if t >= 0 {
			s.initialThreshold = t
		}
	}
}

// WithDefaultThreshold sets the value restored by ResetThreshold.
func WithDefaultThreshold(t int) Option {
	return func(s *Service) {
		if t >= 0 {
			s.defaultThreshold = t
		}
	}
}

// WithConfigPath sets the YAML file used by Reload and the watcher.
func WithConfigPath(path string) Option {
	return func(s *Service) {
		s.configPath = path
	}
}

// WithWatchConfig enables re-applying the threshold on config file changes.
func WithWatchConfig(enabled bool) Option {
	return func(s *Service) {
		s.watchConfig = enabled
	}
}

// WithMailboxTTL sets how long undelivered warnings are kept.
func WithMailboxTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.mailboxTTL = ttl
		}
	}
}

// WithOfflineRetention sets how long a logged-out character's last
// below-threshold level is remembered.
func WithOfflineRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.offlineRetention = d
		}
	}
}

// WithSink replaces the mailbox/console router with a custom sink.
func WithSink(sink notify.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}
