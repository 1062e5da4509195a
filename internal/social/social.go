// Package social implements the leader→follower graph and one-hop order
// mirroring (spec §4.S). The follow graph is a process-wide concurrent
// multi-map guarded by a sync.RWMutex: mutation under the writer lock,
// reads under the read lock, returning a snapshot copy. Reads are not
// lock-free.
package social

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/orderbook"
)

// Graph tracks unordered (follower, leader) pairs with unique
// (follower, leader) keys; self-follow is rejected.
type Graph struct {
	mu        sync.RWMutex
	followers map[string]map[string]bool // leader -> set of followers
}

func NewGraph() *Graph {
	return &Graph{followers: make(map[string]map[string]bool)}
}

// Follow records follower→leader. Returns alreadyFollowing=true (and no
// error) if the pair already existed, matching the idempotent-no-op
// handling in spec §7.
func (g *Graph) Follow(follower, leader string) (alreadyFollowing bool, err error) {
	follower = strings.TrimSpace(follower)
	leader = strings.TrimSpace(leader)
	if follower == leader {
		return false, fmt.Errorf("social: cannot follow self")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.followers[leader]
	if !ok {
		set = make(map[string]bool)
		g.followers[leader] = set
	}
	if set[follower] {
		return true, nil
	}
	set[follower] = true
	return false, nil
}

// Unfollow removes the pair if present; it is a no-op otherwise.
func (g *Graph) Unfollow(follower, leader string) {
	follower = strings.TrimSpace(follower)
	leader = strings.TrimSpace(leader)

	g.mu.Lock()
	defer g.mu.Unlock()
	if set, ok := g.followers[leader]; ok {
		delete(set, follower)
	}
}

// GetFollowers returns a snapshot copy of a leader's followers, taken
// under the graph's read lock.
func (g *Graph) GetFollowers(leader string) []string {
	leader = strings.TrimSpace(leader)

	g.mu.RLock()
	defer g.mu.RUnlock()
	set := g.followers[leader]
	out := make([]string, 0, len(set))
	for follower := range set {
		out = append(out, follower)
	}
	return out
}

// MirrorOrder produces one new order per follower with the same outcome,
// side, and price as the source order, a fresh id, and the user-id replaced
// by the follower's id. quantity must be the source order's originally
// submitted quantity, captured by the caller before matching mutates
// source.RemainingQty — by the time a leader order has fully matched,
// RemainingQty is already zero, and mirroring that would add a dead
// zero-quantity order to the book. The mirror flag is set so the matching
// engine refuses to mirror it again: exactly one hop.
func MirrorOrder(source *orderbook.Order, followerID string, quantity money.Amount) *orderbook.Order {
	return &orderbook.Order{
		ID:           uuid.New(),
		UserID:       followerID,
		OutcomeID:    source.OutcomeID,
		OperatorID:   source.OperatorID,
		Side:         source.Side,
		ContractSide: source.ContractSide,
		Price:        source.Price,
		RemainingQty: quantity,
		Mirrored:     true,
	}
}
