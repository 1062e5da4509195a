// Package orderbook implements the per-outcome limit order book described
// in spec §4.B: price-time matching with the resting ask's price as the
// fill price.
package orderbook

import (
	"strings"
	"sync"

	"github.com/openalpha/predictionx/internal/money"
)

// OrderBook owns the bid and ask sequences for a single outcome-id.
// Every mutation runs inside the book's own critical section: one outcome,
// one lock, so parallel submissions to different outcomes proceed
// independently while submissions to the same outcome are linearised.
type OrderBook struct {
	mu        sync.Mutex
	OutcomeID string
	bids      *side // descending by price, FIFO within a price
	asks      *side // ascending by price, FIFO within a price
	seq       uint64
}

func New(outcomeID string) *OrderBook {
	return &OrderBook{
		OutcomeID: outcomeID,
		bids:      newSide(true),
		asks:      newSide(false),
	}
}

// AddOrder appends the order to its side's price level, in arrival order.
// Best price is always index 0 of the visited sequence; ties are broken by
// arrival order (FIFO).
func (b *OrderBook) AddOrder(o *Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	o.arrivalSeq = b.seq

	var s *side
	if o.Side == Bid {
		s = b.bids
	} else {
		s = b.asks
	}
	lvl := s.getOrCreate(o.Price)
	lvl.orders = append(lvl.orders, o)
}

// MatchOrders runs the maker/taker loop: while the best bid's price is at
// least the best ask's price, it matches at the resting ask's price (the
// simpler approximation spec.md documents as an open question, not a
// textbook maker-price-priority rule) with quantity = min(bid qty, ask
// qty), decrementing both and removing any order whose remaining quantity
// reaches zero. The loop terminates when either side empties or the
// spread opens. After it returns, no crossed book exists.
func (b *OrderBook) MatchOrders() []MatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	var results []MatchResult
	for {
		bidLvl := b.bids.best()
		askLvl := b.asks.best()
		if bidLvl == nil || askLvl == nil {
			break
		}
		if bidLvl.price.LT(askLvl.price) {
			break
		}

		bidOrder := firstLive(bidLvl)
		askOrder := firstLive(askLvl)
		if bidOrder == nil {
			b.bids.pruneIfEmpty(bidLvl)
			continue
		}
		if askOrder == nil {
			b.asks.pruneIfEmpty(askLvl)
			continue
		}

		qty := money.Min(bidOrder.RemainingQty, askOrder.RemainingQty)
		price := askLvl.price

		bidOrder.RemainingQty = bidOrder.RemainingQty.Sub(qty)
		askOrder.RemainingQty = askOrder.RemainingQty.Sub(qty)

		results = append(results, MatchResult{
			Price:         price,
			Quantity:      qty,
			BuyerOrderID:  bidOrder.ID,
			SellerOrderID: askOrder.ID,
			BuyerUserID:   bidOrder.UserID,
			SellerUserID:  askOrder.UserID,
		})

		bidLvl.removeFilled()
		askLvl.removeFilled()
		b.bids.pruneIfEmpty(bidLvl)
		b.asks.pruneIfEmpty(askLvl)
	}
	return results
}

func firstLive(lvl *priceLevel) *Order {
	for _, o := range lvl.orders {
		if !o.RemainingQty.IsZero() {
			return o
		}
	}
	return nil
}

// RemoveOrdersByOperator deletes every order on either side whose
// operator-id equals the argument (case-insensitive). Returns the number
// removed. Used to clear a market-maker's exposure.
func (b *OrderBook) RemoveOrdersByOperator(operatorID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := strings.ToLower(strings.TrimSpace(operatorID))
	removed := 0
	for _, s := range []*side{b.bids, b.asks} {
		var levels []*priceLevel
		s.forEachLevel(func(lvl *priceLevel) bool {
			levels = append(levels, lvl)
			return true
		})
		for _, lvl := range levels {
			kept := lvl.orders[:0]
			for _, o := range lvl.orders {
				if strings.ToLower(strings.TrimSpace(o.OperatorID)) == target {
					removed++
					continue
				}
				kept = append(kept, o)
			}
			lvl.orders = kept
			s.pruneIfEmpty(lvl)
		}
	}
	return removed
}

// Depth is a read-only snapshot of one side of the book, best price first.
type Depth struct {
	Price    money.Amount
	Orders   []*Order
}

// Snapshot returns the current bids and asks, best price first, for
// read-only display (e.g. GET /api/markets/orderbook/{outcomeId}).
func (b *OrderBook) Snapshot() (bids, asks []*Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids.forEachLevel(func(lvl *priceLevel) bool {
		bids = append(bids, lvl.orders...)
		return true
	})
	b.asks.forEachLevel(func(lvl *priceLevel) bool {
		asks = append(asks, lvl.orders...)
		return true
	})
	return bids, asks
}
