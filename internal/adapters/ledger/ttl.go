// Package ledger provides a TTL-bounded crossing.Ledger so characters that
// stop logging in are eventually forgotten.
package ledger

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/okian/greenhorn/internal/domain/model"
)

// Default retention for characters that never come back.
const defaultRetention = 30 * 24 * time.Hour

// TTLLedger remembers last below-threshold levels for a bounded time. Every
// Remember refreshes the entry's expiry.
type TTLLedger struct {
	cache *ttlcache.Cache[model.PlayerID, int]
}

// NewTTLLedger creates a ledger keeping entries for retention. Call Start to
// run the expiry loop and Stop to end it.
func NewTTLLedger(retention time.Duration) *TTLLedger {
	if retention <= 0 {
		retention = defaultRetention
	}
	c := ttlcache.New[model.PlayerID, int](
		ttlcache.WithTTL[model.PlayerID, int](retention),
		ttlcache.WithDisableTouchOnHit[model.PlayerID, int](),
	)
	return &TTLLedger{cache: c}
}

// Start runs the expiry loop until Stop is called. It blocks.
func (l *TTLLedger) Start() { l.cache.Start() }

// Stop ends the expiry loop.
func (l *TTLLedger) Stop() { l.cache.Stop() }

// Recall returns the remembered level for id.
func (l *TTLLedger) Recall(id model.PlayerID) (int, bool) {
	item := l.cache.Get(id)
	if item == nil {
		return 0, false
	}
	return item.Value(), true
}

// Remember stores level for id with the default retention.
func (l *TTLLedger) Remember(id model.PlayerID, level int) {
	l.cache.Set(id, level, ttlcache.DefaultTTL)
}

// Forget drops id.
func (l *TTLLedger) Forget(id model.PlayerID) {
	l.cache.Delete(id)
}

// Len returns the number of remembered characters.
func (l *TTLLedger) Len() int {
	return l.cache.Len()
}
