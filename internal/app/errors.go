package service

import "errors"

// Sentinel error kinds for the service.
var (
	ErrInvalidPlayer = errors.New("invalid player id")
	ErrInvalidLevel  = errors.New("invalid level")
	ErrNoConfigFile  = errors.New("no config file to reload")
)
