// Package crossing detects characters moving from below the level threshold
// to at or above it.
//
// The detector keeps one observation per character that is currently below
// the threshold. Observations are created on the first below-threshold level
// change or login, refreshed on every later below-threshold observation and
// removed when the character is seen at or above the threshold or logs out.
// A Ledger mirrors the observations beyond logout so that a character who
// levelled up while offline is still warned once at the next login.
package crossing

import (
	"context"
	"sync"

	"github.com/okian/greenhorn/internal/domain/model"
	"github.com/okian/greenhorn/internal/domain/threshold"
	"github.com/okian/greenhorn/pkg/logger"
)

// Detector decides, per level change or login, whether a crossing happened.
// Calls for different characters may run concurrently; calls for the same
// character are expected to be serialized by the caller.
type Detector struct {
	threshold threshold.Reader

	mu           sync.Mutex
	observations map[model.PlayerID]int // last level while below threshold

	ledger Ledger
	logger logger.Logger
}

// NewDetector creates a Detector that compares against r.
func NewDetector(r threshold.Reader, opts ...Option) *Detector {
	d := &Detector{
		threshold:    r,
		observations: make(map[model.PlayerID]int),
		ledger:       newMemoryLedger(),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.Get().Named("crossing")
	}

	return d
}

// OnLevelChange records newLevel for id and returns a Crossing if the
// previous observation was below the threshold and newLevel is not.
func (d *Detector) OnLevelChange(ctx context.Context, id model.PlayerID, newLevel int) (model.Crossing, bool) {
	return d.observe(ctx, id, newLevel, "level_change")
}

// OnLogin evaluates the level a character loaded with against its last
// below-threshold observation, which may predate the session.
func (d *Detector) OnLogin(ctx context.Context, id model.PlayerID, currentLevel int) (model.Crossing, bool) {
	return d.observe(ctx, id, currentLevel, "login")
}

// OnLogout drops the in-session observation for id. The ledger keeps the
// character's last below-threshold level for the next login.
func (d *Detector) OnLogout(ctx context.Context, id model.PlayerID) {
	d.mu.Lock()
	_, existed := d.observations[id]
	delete(d.observations, id)
	d.mu.Unlock()

	if existed {
		d.logger.Debug(ctx, "observation released on logout", logger.String("player", string(id)))
	}
}

// Tracked returns the number of in-session observations.
func (d *Detector) Tracked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.observations)
}

func (d *Detector) observe(ctx context.Context, id model.PlayerID, level int, source string) (model.Crossing, bool) {
	t := d.threshold.Get()
	below := level < t

	d.mu.Lock()
	prev, known := d.observations[id]
	if below {
		d.observations[id] = level
	} else {
		delete(d.observations, id)
	}
	d.mu.Unlock()

	// Same-character calls are serialized by the caller, so the ledger can be
	// consulted outside the lock.
	if !known {
		prev, known = d.ledger.Recall(id)
	}
	if below {
		d.ledger.Remember(id, level)
	} else {
		d.ledger.Forget(id)
	}

	if !known || prev >= t || below {
		return model.Crossing{}, false
	}

	c := model.NewCrossing(id, level, t)
	d.logger.Info(ctx, "threshold crossed",
		logger.String("player", string(id)),
		logger.String("event", source),
		logger.Int("previous_level", prev),
		logger.Int("level", level),
		logger.Int("threshold", t),
	)
	return c, true
}
