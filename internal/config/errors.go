package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrWatchStopped means the file watcher has ended; later file changes
	// are not picked up until Watch is called again.
	ErrWatchStopped = errors.New("config watch stopped")
)
