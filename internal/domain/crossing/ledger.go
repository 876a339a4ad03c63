package crossing

import (
	"sync"

	"github.com/okian/greenhorn/internal/domain/model"
)

// Ledger remembers the last below-threshold level of a character across
// sessions, so a level gained while offline is still detected at the next
// login. Implementations must be safe for concurrent use and must not block
// on I/O.
type Ledger interface {
	// Recall returns the remembered level, if any.
	Recall(id model.PlayerID) (int, bool)
	// Remember stores level as the character's last below-threshold level.
	Remember(id model.PlayerID, level int)
	// Forget drops the character; forgetting an unknown id is a no-op.
	Forget(id model.PlayerID)
}

// memoryLedger is the default Ledger: an unbounded in-process map.
type memoryLedger struct {
	mu     sync.RWMutex
	levels map[model.PlayerID]int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{levels: make(map[model.PlayerID]int)}
}

func (l *memoryLedger) Recall(id model.PlayerID) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	level, ok := l.levels[id]
	return level, ok
}

func (l *memoryLedger) Remember(id model.PlayerID, level int) {
	l.mu.Lock()
	l.levels[id] = level
	l.mu.Unlock()
}

func (l *memoryLedger) Forget(id model.PlayerID) {
	l.mu.Lock()
	delete(l.levels, id)
	l.mu.Unlock()
}
