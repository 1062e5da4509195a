package settlement

import (
	"sync"

	"github.com/google/uuid"
)

// settlementIndex maps a Clearing transaction id to the Settlement
// transaction id that reversed it. A single lock guards the whole map:
// SettleOutcome holds it across the read-check and the eventual write so
// the check-and-insert is one atomic step, which is the sole guarantor of
// idempotent settlement under concurrent calls for the same outcome.
type settlementIndex struct {
	mu sync.Mutex
	m  map[uuid.UUID]uuid.UUID
}

func newSettlementIndex() *settlementIndex {
	return &settlementIndex{m: make(map[uuid.UUID]uuid.UUID)}
}

// withLock runs fn while holding the index lock. lookup(clearingID) inside
// fn observes a consistent snapshot; insert(clearingID, settlementID)
// records the first-writer-wins mapping.
func (s *settlementIndex) withLock(fn func(lookup func(uuid.UUID) (uuid.UUID, bool), insert func(uuid.UUID, uuid.UUID))) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lookup := func(clearingID uuid.UUID) (uuid.UUID, bool) {
		id, ok := s.m[clearingID]
		return id, ok
	}
	insert := func(clearingID, settlementID uuid.UUID) {
		s.m[clearingID] = settlementID
	}
	fn(lookup, insert)
}
