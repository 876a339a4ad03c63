// Package threshold holds the process-wide level threshold below which the
// burden override applies.
package threshold

import (
	"fmt"
	"sync/atomic"
)

// Reader exposes the current threshold to decision points.
type Reader interface {
	Get() int
}

// Store is the single source of truth for the threshold. Reads never block
// behind a writer; writes replace the value atomically.
type Store struct {
	value atomic.Int64
}

// NewStore creates a Store holding initial. A negative initial value is
// rejected the same way Set rejects it.
func NewStore(initial int) (*Store, error) {
	s := &Store{}
	if err := s.Set(initial); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the current threshold. A zero value disables the override.
func (s *Store) Get() int {
	return int(s.value.Load())
}

// Set replaces the threshold. Negative values fail with
// ErrInvalidConfiguration and leave the stored value untouched. Changing the
// threshold never notifies players on its own; tracked players are
// re-evaluated on their next level change or login.
func (s *Store) Set(v int) error {
	if v < 0 {
		return fmt.Errorf("threshold %d: %w", v, ErrInvalidConfiguration)
	}
	s.value.Store(int64(v))
	return nil
}
