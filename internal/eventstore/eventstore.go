// Package eventstore implements the append-only domain event log used for
// position reconstruction and audit (spec §4.E / §3 DomainEvent).
package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openalpha/predictionx/internal/ledger"
)

// Well-known event types.
const (
	OrderPlaced   = "OrderPlaced"
	TradeMatched  = "TradeMatched"
	MarketOpened  = "MarketOpened"
)

// DomainEvent is one append-only, monotonically-id'd record.
type DomainEvent struct {
	ID         int64
	EventType  string
	Payload    json.RawMessage
	OccurredAt time.Time
	MarketID   *string
	UserID     *string
}

// TradeMatchedPayload is the JSON shape appended for every fill, once per
// side (buyer-indexed and seller-indexed) so per-user queries never
// require a join.
type TradeMatchedPayload struct {
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	BuyerUserID  string `json:"buyerUserId"`
	SellerUserID string `json:"sellerUserId"`
	OutcomeID    string `json:"outcomeId"`
}

// Repository is the persistence contract for domain events.
type Repository interface {
	Append(ctx context.Context, tx ledger.Tx, event DomainEvent) (int64, error)
	ByMarket(ctx context.Context, marketID string) ([]DomainEvent, error)
	ByUser(ctx context.Context, userID string) ([]DomainEvent, error)
}

// Store is the EventStore service.
type Store struct {
	repo Repository
}

func New(repo Repository) *Store { return &Store{repo: repo} }

// Append appends one event, optionally inside a caller-provided
// transaction so it commits or rolls back together with the ledger
// writes of the same match.
func (s *Store) Append(ctx context.Context, tx ledger.Tx, eventType string, payload interface{}, marketID, userID *string) (int64, error) {
	bz, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	return s.repo.Append(ctx, tx, DomainEvent{
		EventType:  eventType,
		Payload:    bz,
		OccurredAt: time.Now().UTC(),
		MarketID:   marketID,
		UserID:     userID,
	})
}

// ByMarket returns every event for a market, oldest-first.
func (s *Store) ByMarket(ctx context.Context, marketID string) ([]DomainEvent, error) {
	return s.repo.ByMarket(ctx, marketID)
}

// ByUser returns every event for a user, oldest-first.
func (s *Store) ByUser(ctx context.Context, userID string) ([]DomainEvent, error) {
	return s.repo.ByUser(ctx, userID)
}
