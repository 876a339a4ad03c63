package crossing

import "github.com/okian/greenhorn/pkg/logger"

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithLedger sets the cross-session ledger. A nil ledger is ignored.
func WithLedger(l Ledger) Option {
	return func(d *Detector) {
		if l != nil {
			d.ledger = l
		}
	}
}

// WithLogger sets a custom logger for the detector.
func WithLogger(l logger.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}
