package copytrading

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// clearingIndex maps outcome-id (case-insensitive) to the ordered list of
// Clearing transaction ids CopyTradingEngine has produced for it. Each
// outcome's list is guarded by its own mutex so readers always observe a
// consistent, ordered snapshot while writers for other outcomes proceed
// independently.
type clearingIndex struct {
	mu      sync.Mutex // guards the locks map itself
	locks   map[string]*sync.Mutex
	entries map[string][]uuid.UUID
}

func newClearingIndex() *clearingIndex {
	return &clearingIndex{
		locks:   make(map[string]*sync.Mutex),
		entries: make(map[string][]uuid.UUID),
	}
}

func (c *clearingIndex) key(outcomeID string) string {
	return strings.ToLower(strings.TrimSpace(outcomeID))
}

func (c *clearingIndex) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// Append records a new clearing transaction id for the outcome, under the
// outcome's own lock.
func (c *clearingIndex) Append(outcomeID string, txID uuid.UUID) {
	key := c.key(outcomeID)
	l := c.lockFor(key)
	l.Lock()
	defer l.Unlock()
	c.entries[key] = append(c.entries[key], txID)
}

// Snapshot returns a copy of the ordered list for an outcome.
func (c *clearingIndex) Snapshot(outcomeID string) []uuid.UUID {
	key := c.key(outcomeID)
	l := c.lockFor(key)
	l.Lock()
	defer l.Unlock()
	out := make([]uuid.UUID, len(c.entries[key]))
	copy(out, c.entries[key])
	return out
}

// Last returns the most recent clearing transaction id for an outcome, if
// any.
func (c *clearingIndex) Last(outcomeID string) (uuid.UUID, bool) {
	key := c.key(outcomeID)
	l := c.lockFor(key)
	l.Lock()
	defer l.Unlock()
	list := c.entries[key]
	if len(list) == 0 {
		return uuid.UUID{}, false
	}
	return list[len(list)-1], true
}
