// Package notify delivers crossing warnings to players.
package notify

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/okian/greenhorn/internal/domain/model"
)

// Default mailbox settings.
const (
	defaultMailboxTTL = 10 * time.Minute
	maxPendingPerUser = 32
)

// Mailbox holds pending warnings for players with an open session until the
// host fetches them. A session stays open until Close; only undrained
// warnings expire, ttl after the last delivery.
type Mailbox struct {
	mu      sync.Mutex // guards open and read-modify-write of pending
	open    map[model.PlayerID]struct{}
	pending *ttlcache.Cache[model.PlayerID, []model.Warning]
}

// NewMailbox creates a mailbox whose undrained warnings live for ttl after
// the last delivery.
func NewMailbox(ttl time.Duration) *Mailbox {
	if ttl <= 0 {
		ttl = defaultMailboxTTL
	}
	return &Mailbox{
		open: make(map[model.PlayerID]struct{}),
		pending: ttlcache.New[model.PlayerID, []model.Warning](
			ttlcache.WithTTL[model.PlayerID, []model.Warning](ttl),
		),
	}
}

// Start runs the expiry loop until Stop is called. It blocks.
func (m *Mailbox) Start() { m.pending.Start() }

// Stop ends the expiry loop.
func (m *Mailbox) Stop() { m.pending.Stop() }

// Open marks id as reachable. Opening an already open box keeps its content.
func (m *Mailbox) Open(id model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open[id] = struct{}{}
}

// Close marks id as unreachable and discards any undelivered warnings.
func (m *Mailbox) Close(id model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, id)
	m.pending.Delete(id)
}

// Deliver appends w to the recipient's box. It returns false when the player
// has no open box. The oldest warning is dropped once a box is full.
func (m *Mailbox) Deliver(w model.Warning) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.open[w.PlayerID]; !ok {
		return false
	}
	var pending []model.Warning
	if item := m.pending.Get(w.PlayerID); item != nil {
		pending = item.Value()
	}
	pending = append(pending, w)
	if len(pending) > maxPendingPerUser {
		pending = pending[len(pending)-maxPendingPerUser:]
	}
	m.pending.Set(w.PlayerID, pending, ttlcache.DefaultTTL)
	return true
}

// Drain returns and clears id's pending warnings. The box stays open.
func (m *Mailbox) Drain(id model.PlayerID) []model.Warning {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.pending.Get(id)
	if item == nil {
		return nil
	}
	m.pending.Delete(id)
	return item.Value()
}

// Online returns the number of open boxes.
func (m *Mailbox) Online() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}
