package threshold

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrInvalidConfiguration is returned when a negative threshold is set.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
