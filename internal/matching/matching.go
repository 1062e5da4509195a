// Package matching implements MatchingEngine, the single entry point that
// turns an incoming limit order into book state, ledger postings, domain
// events, and one-hop mirrored orders (spec §4.M).
package matching

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/eventstore"
	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/oracle"
	"github.com/openalpha/predictionx/internal/orderbook"
	"github.com/openalpha/predictionx/internal/outcomeledger"
	"github.com/openalpha/predictionx/internal/social"
)

// Engine wires the order book, ledger, outcome ledger, event store, and
// social graph behind a single ProcessOrder call.
type Engine struct {
	ledger        *ledger.Ledger
	outcomeLedger *outcomeledger.AccountingService
	events        *eventstore.Store
	books         *orderbook.Store
	social        *social.Graph
	registry      *oracle.OutcomeRegistry
	logger        log.Logger
}

func New(l *ledger.Ledger, ol *outcomeledger.AccountingService, events *eventstore.Store, books *orderbook.Store, socialGraph *social.Graph, registry *oracle.OutcomeRegistry, logger log.Logger) *Engine {
	return &Engine{
		ledger:        l,
		outcomeLedger: ol,
		events:        events,
		books:         books,
		social:        socialGraph,
		registry:      registry,
		logger:        logger.With("module", "matching"),
	}
}

// ProcessOrder is the public contract described in spec §4.M: validate,
// book, match, post the accounting effects of every fill atomically, append
// domain events, and fan out one-hop mirrored orders.
func (e *Engine) ProcessOrder(ctx context.Context, order *orderbook.Order) (uuid.UUID, []orderbook.MatchResult, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	if !e.registry.Recognizes(order.OutcomeID) {
		return order.ID, nil, &InvalidOutcomeError{OutcomeID: order.OutcomeID}
	}

	book := e.books.GetOrCreate(order.OutcomeID)

	if _, err := e.events.Append(ctx, nil, eventstore.OrderPlaced, orderPlacedPayload{
		OrderID:   order.ID,
		UserID:    order.UserID,
		OutcomeID: order.OutcomeID,
		Side:      string(order.Side),
		Price:     order.Price.String(),
		Quantity:  order.RemainingQty.String(),
	}, &order.OutcomeID, &order.UserID); err != nil {
		e.logger.Error("failed to append OrderPlaced event", "order_id", order.ID, "error", err)
	}

	originalQty := order.RemainingQty

	book.AddOrder(order)
	matches := book.MatchOrders()

	if len(matches) > 0 {
		if err := e.settleMatches(ctx, order.OutcomeID, matches); err != nil {
			return order.ID, matches, err
		}
	}

	if !order.Mirrored {
		e.mirrorFills(ctx, order, originalQty)
	}

	return order.ID, matches, nil
}

type orderPlacedPayload struct {
	OrderID   uuid.UUID `json:"orderId"`
	UserID    string    `json:"userId"`
	OutcomeID string    `json:"outcomeId"`
	Side      string    `json:"side"`
	Price     string    `json:"price"`
	Quantity  string    `json:"quantity"`
}

// settleMatches opens one database transaction covering every match
// produced by a single ProcessOrder call: the ledger cash leg, the
// outcome-ledger share leg, and both TradeMatched events. Any failure rolls
// the whole transaction back; the book mutations that produced the matches
// are not part of this atomic unit and are not undone (spec §4.M, §9).
func (e *Engine) settleMatches(ctx context.Context, outcomeID string, matches []orderbook.MatchResult) error {
	tx, err := e.ledger.Begin(ctx)
	if err != nil {
		return err
	}

	for _, m := range matches {
		if err := e.settleOneMatch(ctx, tx, outcomeID, m); err != nil {
			_ = e.ledger.Rollback(ctx, tx)
			return err
		}
	}

	return e.ledger.Commit(ctx, tx)
}

func (e *Engine) settleOneMatch(ctx context.Context, tx ledger.Tx, outcomeID string, m orderbook.MatchResult) error {
	buyerAccount, err := e.ledger.FirstAccountForOperator(ctx, m.BuyerUserID)
	if err != nil {
		return fmt.Errorf("matching: resolving buyer account: %w", err)
	}
	if buyerAccount == nil {
		return &InvalidOperationError{Reason: "buyer has no account"}
	}
	sellerAccount, err := e.ledger.FirstAccountForOperator(ctx, m.SellerUserID)
	if err != nil {
		return fmt.Errorf("matching: resolving seller account: %w", err)
	}
	if sellerAccount == nil {
		return &InvalidOperationError{Reason: "seller has no account"}
	}

	cost := m.Price.Mul(m.Quantity)

	clearingPhase := ledger.PhaseClearing
	buyerBalance, err := e.ledger.GetAccountBalance(ctx, buyerAccount.ID, &clearingPhase)
	if err != nil {
		return fmt.Errorf("matching: reading buyer balance: %w", err)
	}
	if buyerBalance.LT(cost) {
		return &InsufficientFundsError{Required: cost, Available: buyerBalance}
	}

	entries := []ledger.JournalEntry{
		{AccountID: buyerAccount.ID, Amount: cost, Direction: ledger.Credit, Phase: ledger.PhaseClearing},
		{AccountID: sellerAccount.ID, Amount: cost, Direction: ledger.Debit, Phase: ledger.PhaseClearing},
	}
	txType := ledger.TransactionTrade
	if _, err := e.ledger.PostTransaction(ctx, tx, entries, ledger.PostOptions{Type: &txType}); err != nil {
		return fmt.Errorf("matching: posting trade transaction: %w", err)
	}

	assetType := outcomeledger.ResolveAssetType(outcomeID)
	if err := e.outcomeLedger.BookTrade(ctx, tx, buyerAccount.ID, sellerAccount.ID, cost, assetType, m.Quantity, nil); err != nil {
		return fmt.Errorf("matching: booking outcome-ledger trade: %w", err)
	}

	payload := eventstore.TradeMatchedPayload{
		Price:        m.Price.String(),
		Quantity:     m.Quantity.String(),
		BuyerUserID:  m.BuyerUserID,
		SellerUserID: m.SellerUserID,
		OutcomeID:    outcomeID,
	}
	if _, err := e.events.Append(ctx, tx, eventstore.TradeMatched, payload, &outcomeID, &m.BuyerUserID); err != nil {
		return fmt.Errorf("matching: appending buyer-indexed TradeMatched event: %w", err)
	}
	if _, err := e.events.Append(ctx, tx, eventstore.TradeMatched, payload, &outcomeID, &m.SellerUserID); err != nil {
		return fmt.Errorf("matching: appending seller-indexed TradeMatched event: %w", err)
	}

	return nil
}

// mirrorFills fans the original order out to every follower of its
// submitter, one hop, and feeds each mirrored order back through
// ProcessOrder. Mirrored orders carry Mirrored=true so the !order.Mirrored
// check at the end of ProcessOrder skips this branch for them entirely: no
// transitive mirroring. quantity is the leader order's originally submitted
// quantity, captured before book.AddOrder/MatchOrders mutated
// order.RemainingQty — mirroring off the post-match RemainingQty would hand
// a fully-filled leader order's zero quantity to every follower.
func (e *Engine) mirrorFills(ctx context.Context, order *orderbook.Order, quantity money.Amount) {
	if e.social == nil {
		return
	}
	followers := e.social.GetFollowers(order.UserID)
	for _, follower := range followers {
		mirrored := social.MirrorOrder(order, follower, quantity)
		if _, _, err := e.ProcessOrder(ctx, mirrored); err != nil {
			e.logger.Error("failed to process mirrored order", "leader", order.UserID, "follower", follower, "error", err)
		}
	}
}
