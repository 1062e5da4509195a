package orderbook

import (
	"github.com/google/btree"

	"github.com/openalpha/predictionx/internal/money"
)

const btreeDegree = 32

// priceLevel holds every order resting at one price, in FIFO arrival order.
type priceLevel struct {
	price  money.Amount
	orders []*Order
}

func newPriceLevel(price money.Amount) *priceLevel {
	return &priceLevel{price: price}
}

func (l *priceLevel) isEmpty() bool { return len(l.orders) == 0 }

// removeFilled drops every order with zero remaining quantity, preserving
// the relative order of what remains.
func (l *priceLevel) removeFilled() {
	kept := l.orders[:0]
	for _, o := range l.orders {
		if !o.RemainingQty.IsZero() {
			kept = append(kept, o)
		}
	}
	l.orders = kept
}

// priceLevelItem adapts a priceLevel into a btree.Item ordered by price.
type priceLevelItem struct {
	price money.Amount
	level *priceLevel
}

func (a *priceLevelItem) Less(b btree.Item) bool {
	return a.price.LT(b.(*priceLevelItem).price)
}

// side is one B-tree-ordered side (bids or asks) of a book.
type side struct {
	tree *btree.BTree
	desc bool // true: iterate best-first as descending (bids); false: ascending (asks)
}

func newSide(desc bool) *side {
	return &side{tree: btree.New(btreeDegree), desc: desc}
}

func (s *side) get(price money.Amount) *priceLevel {
	item := s.tree.Get(&priceLevelItem{price: price})
	if item == nil {
		return nil
	}
	return item.(*priceLevelItem).level
}

func (s *side) getOrCreate(price money.Amount) *priceLevel {
	if lvl := s.get(price); lvl != nil {
		return lvl
	}
	lvl := newPriceLevel(price)
	s.tree.ReplaceOrInsert(&priceLevelItem{price: price, level: lvl})
	return lvl
}

func (s *side) remove(price money.Amount) {
	s.tree.Delete(&priceLevelItem{price: price})
}

// best returns the best (most aggressive) resting price level, or nil if
// the side is empty.
func (s *side) best() *priceLevel {
	var item btree.Item
	if s.desc {
		item = s.tree.Max()
	} else {
		item = s.tree.Min()
	}
	if item == nil {
		return nil
	}
	return item.(*priceLevelItem).level
}

// pruneIfEmpty removes the level from the tree if it holds no more orders.
func (s *side) pruneIfEmpty(lvl *priceLevel) {
	if lvl.isEmpty() {
		s.remove(lvl.price)
	}
}

// forEachLevel visits every level, best price first.
func (s *side) forEachLevel(fn func(*priceLevel) bool) {
	iter := func(i btree.Item) bool {
		return fn(i.(*priceLevelItem).level)
	}
	if s.desc {
		s.tree.Descend(iter)
	} else {
		s.tree.Ascend(iter)
	}
}
