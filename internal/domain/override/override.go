// Package override decides whether capacity-like quantities computed by the
// host are replaced for low-level characters.
package override

import (
	"math"

	"github.com/okian/greenhorn/internal/domain/threshold"
)

// Unlimited is returned in place of a computed capacity for characters below
// the threshold.
const Unlimited = math.MaxInt32

// Evaluator answers override questions against the live threshold. It keeps
// no state between calls.
type Evaluator struct {
	threshold threshold.Reader
}

// NewEvaluator creates an Evaluator reading from r.
func NewEvaluator(r threshold.Reader) *Evaluator {
	return &Evaluator{threshold: r}
}

// Applies reports whether a character at level is below the threshold.
func (e *Evaluator) Applies(level int) bool {
	return level < e.threshold.Get()
}

// Capacity returns (Unlimited, true) when the override applies, otherwise
// (0, false) and the caller keeps its own value.
func (e *Evaluator) Capacity(level int) (int, bool) {
	if e.Applies(level) {
		return Unlimited, true
	}
	return 0, false
}

// AppliedValue returns 0 when the override applies, otherwise proposed as is.
func (e *Evaluator) AppliedValue(level, proposed int) int {
	if e.Applies(level) {
		return 0
	}
	return proposed
}
