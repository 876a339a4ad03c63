package ctl

import "errors"

var (
	// ErrUnexpectedStatus is returned when the service answers with a status
	// the client does not expect for the call.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrVerification is returned when a simulation observes behaviour that
	// breaks the once-per-crossing contract.
	ErrVerification = errors.New("verification failed")
	// ErrNothingToSimulate is returned when the threshold is 0 and no
	// character can ever cross it.
	ErrNothingToSimulate = errors.New("threshold is 0; nothing to simulate")
)
