package oracle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/money"
)

// MarketEventType enumerates the kinds of markets the oracle can open.
type MarketEventType string

const (
	Base      MarketEventType = "Base"
	Flash     MarketEventType = "Flash"
	Celebrity MarketEventType = "Celebrity"
	Sports    MarketEventType = "Sports"
)

// MarketEvent is a single market the oracle has opened.
type MarketEvent struct {
	ID                 uuid.UUID
	Title              string
	Type               MarketEventType
	OutcomeID          string
	ActorID            string
	ResponsibleOracleID string
	DurationMinutes    int
	CreatedAt          time.Time
	ExpiresAt          time.Time
}

// IsActive reports whether the market has not yet expired.
func (m MarketEvent) IsActive(now time.Time) bool {
	return now.Before(m.ExpiresAt)
}

// CelebrityTradeSignal is the payload dispatched by SimulateTrade.
type CelebrityTradeSignal struct {
	TradeID     uuid.UUID
	OperatorID  string
	Amount      money.Amount
	OutcomeID   string
	OutcomeName string
	ActorID     *string
}

// SettlementResult mirrors settlement.Result without importing the
// settlement package, breaking the Oracle -> Settlement -> CopyTrading ->
// Oracle dependency cycle (spec §9): Oracle depends only on this narrow
// interface, resolved lazily at call time.
type SettlementResult struct {
	New            []uuid.UUID
	AlreadySettled []uuid.UUID
	Message        string
	Confidence     *float64
	Sources        []string
}

// Settler is the abstract settlement dependency the oracle resolves late.
type Settler interface {
	SettleOutcome(ctx context.Context, outcomeID string, confidence *float64, sources []string) (SettlementResult, error)
}

// TradeProposedListener receives every SimulateTrade signal synchronously.
type TradeProposedListener func(ctx context.Context, signal CelebrityTradeSignal)

// MarketOpenedListener receives every newly created market.
type MarketOpenedListener func(market MarketEvent)
