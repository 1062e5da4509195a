package orderbook

import (
	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/money"
)

// Side is which side of the book an order rests on.
type Side string

const (
	Bid Side = "Bid"
	Ask Side = "Ask"
)

// ContractSide optionally tags a binary-market leg.
type ContractSide string

const (
	Yes ContractSide = "Yes"
	No  ContractSide = "No"
)

// Order is a resting or incoming limit order for a single outcome.
// RemainingQty decreases monotonically to zero through matching, at which
// point the order is removed from the book.
type Order struct {
	ID           uuid.UUID
	UserID       string
	OutcomeID    string
	OperatorID   string
	Side         Side
	ContractSide *ContractSide
	Price        money.Amount
	RemainingQty money.Amount

	// arrivalSeq records arrival order, assigned by the book on insertion.
	// FIFO at equal price comes from each price level's append order; this
	// field is not read by matching. Not exported: callers never set it.
	arrivalSeq uint64

	// Mirrored marks an order produced by Social.MirrorOrder so the
	// matching engine can refuse to mirror it again (one-hop only).
	Mirrored bool
}

// MatchResult is one fill produced by MatchOrders.
type MatchResult struct {
	Price        money.Amount
	Quantity     money.Amount
	BuyerOrderID uuid.UUID
	SellerOrderID uuid.UUID
	BuyerUserID  string
	SellerUserID string
}
