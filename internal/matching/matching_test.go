package matching_test

import (
	"context"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/predictionx/internal/eventstore"
	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/matching"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/oracle"
	"github.com/openalpha/predictionx/internal/orderbook"
	"github.com/openalpha/predictionx/internal/outcomeledger"
	"github.com/openalpha/predictionx/internal/social"
)

// --- fake ledger.Repository ---

type fakeLedgerRepo struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]ledger.Account
	transactions map[uuid.UUID]ledger.Transaction
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		accounts:     make(map[uuid.UUID]ledger.Account),
		transactions: make(map[uuid.UUID]ledger.Transaction),
	}
}

func (f *fakeLedgerRepo) Begin(ctx context.Context) (ledger.Tx, error)    { return "tx", nil }
func (f *fakeLedgerRepo) Commit(ctx context.Context, tx ledger.Tx) error   { return nil }
func (f *fakeLedgerRepo) Rollback(ctx context.Context, tx ledger.Tx) error { return nil }

func (f *fakeLedgerRepo) InsertAccount(ctx context.Context, tx ledger.Tx, acc ledger.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[acc.ID] = acc
	return nil
}

func (f *fakeLedgerRepo) GetAccount(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (f *fakeLedgerRepo) FirstAccountForOperator(ctx context.Context, tx ledger.Tx, operatorID string) (*ledger.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if acc.OperatorID == operatorID {
			a := acc
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeLedgerRepo) AccountsForOperator(ctx context.Context, tx ledger.Tx, operatorID string) ([]ledger.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Account
	for _, acc := range f.accounts {
		if acc.OperatorID == operatorID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) InsertTransaction(ctx context.Context, tx ledger.Tx, txn ledger.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[txn.ID] = txn
	return nil
}

func (f *fakeLedgerRepo) GetTransaction(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.transactions[id]
	if !ok {
		return nil, nil
	}
	return &txn, nil
}

func (f *fakeLedgerRepo) SumEntries(ctx context.Context, tx ledger.Tx, accountID uuid.UUID, phase *ledger.Phase) (money.Amount, money.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	debits, credits := money.Zero, money.Zero
	for _, txn := range f.transactions {
		for _, e := range txn.Entries {
			if e.AccountID != accountID {
				continue
			}
			if phase != nil && e.Phase != *phase {
				continue
			}
			switch e.Direction {
			case ledger.Debit:
				debits = debits.Add(e.Amount)
			case ledger.Credit:
				credits = credits.Add(e.Amount)
			}
		}
	}
	return debits, credits, nil
}

// --- fake outcomeledger.Repository ---

type fakeOutcomeRepo struct {
	mu      sync.Mutex
	entries []outcomeledger.Entry
}

func (f *fakeOutcomeRepo) InsertEntries(ctx context.Context, tx ledger.Tx, entries []outcomeledger.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeOutcomeRepo) NetHoldingsByAsset(ctx context.Context, assetType string) (map[uuid.UUID]money.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]money.Amount)
	for _, e := range f.entries {
		if e.AssetType != assetType {
			continue
		}
		cur, ok := out[e.AccountID]
		if !ok {
			cur = money.Zero
		}
		switch e.Direction {
		case ledger.Debit:
			out[e.AccountID] = cur.Add(e.Amount)
		case ledger.Credit:
			out[e.AccountID] = cur.Sub(e.Amount)
		}
	}
	return out, nil
}

// --- fake eventstore.Repository ---

type fakeEventRepo struct {
	mu     sync.Mutex
	events []eventstore.DomainEvent
	nextID int64
}

func (f *fakeEventRepo) Append(ctx context.Context, tx ledger.Tx, event eventstore.DomainEvent) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	event.ID = f.nextID
	f.events = append(f.events, event)
	return event.ID, nil
}

func (f *fakeEventRepo) ByMarket(ctx context.Context, marketID string) ([]eventstore.DomainEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []eventstore.DomainEvent
	for _, e := range f.events {
		if e.MarketID != nil && *e.MarketID == marketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ByUser(ctx context.Context, userID string) ([]eventstore.DomainEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []eventstore.DomainEvent
	for _, e := range f.events {
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type harness struct {
	engine      *matching.Engine
	ledger      *ledger.Ledger
	outcomeRepo *fakeOutcomeRepo
	eventRepo   *fakeEventRepo
	books       *orderbook.Store
	social      *social.Graph
	registry    *oracle.OutcomeRegistry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	l := ledger.New(newFakeLedgerRepo(), log.NewNopLogger())
	outcomeRepo := &fakeOutcomeRepo{}
	ol := outcomeledger.New(outcomeRepo)
	eventRepo := &fakeEventRepo{}
	events := eventstore.New(eventRepo)
	books := orderbook.NewStore()
	socialGraph := social.NewGraph()
	registry := oracle.NewOutcomeRegistry()
	registry.Register("outcome-x")

	engine := matching.New(l, ol, events, books, socialGraph, registry, log.NewNopLogger())
	return &harness{
		engine:      engine,
		ledger:      l,
		outcomeRepo: outcomeRepo,
		eventRepo:   eventRepo,
		books:       books,
		social:      socialGraph,
		registry:    registry,
	}
}

func mustAmount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return a
}

func fundAccount(t *testing.T, h *harness, userID string, cash string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	acc, err := h.ledger.CreateAccount(ctx, uuid.New(), userID+" Wallet", ledger.AccountAsset, userID)
	require.NoError(t, err)

	system, err := h.ledger.CreateAccount(ctx, uuid.New(), "System Funding", ledger.AccountLiability, "system")
	require.NoError(t, err)

	_, err = h.ledger.PostTransaction(ctx, nil, []ledger.JournalEntry{
		{AccountID: acc.ID, Amount: mustAmount(t, cash), Direction: ledger.Debit, Phase: ledger.PhaseClearing},
		{AccountID: system.ID, Amount: mustAmount(t, cash), Direction: ledger.Credit, Phase: ledger.PhaseClearing},
	}, ledger.PostOptions{})
	require.NoError(t, err)
	return acc.ID
}

func newOrder(t *testing.T, userID string, side orderbook.Side, price, qty string) *orderbook.Order {
	t.Helper()
	return &orderbook.Order{
		UserID:       userID,
		OutcomeID:    "outcome-x",
		Side:         side,
		Price:        mustAmount(t, price),
		RemainingQty: mustAmount(t, qty),
	}
}

func TestProcessOrderBasicMatchSettlesLedgerAndEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fundAccount(t, h, "buyer", "1000.00")
	fundAccount(t, h, "seller", "0")

	_, _, err := h.engine.ProcessOrder(ctx, newOrder(t, "seller", orderbook.Ask, "0.50", "10"))
	require.NoError(t, err)
	_, matches, err := h.engine.ProcessOrder(ctx, newOrder(t, "buyer", orderbook.Bid, "0.60", "10"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.True(t, matches[0].Price.Equal(mustAmount(t, "0.50")))

	buyerEvents, err := h.eventRepo.ByUser(ctx, "buyer")
	require.NoError(t, err)
	found := false
	for _, e := range buyerEvents {
		if e.EventType == eventstore.TradeMatched {
			found = true
		}
	}
	require.True(t, found)

	holdings, err := h.outcomeRepo.NetHoldingsByAsset(ctx, "OUTCOME_X")
	require.NoError(t, err)
	require.Len(t, holdings, 2)
}

func TestProcessOrderRejectsUnrecognizedOutcome(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := newOrder(t, "buyer", orderbook.Bid, "0.50", "1")
	order.OutcomeID = "outcome-unknown"

	_, _, err := h.engine.ProcessOrder(ctx, order)
	require.Error(t, err)
	var invalid *matching.InvalidOutcomeError
	require.ErrorAs(t, err, &invalid)
}

func TestProcessOrderFailsOnInsufficientFunds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fundAccount(t, h, "buyer", "1.00")
	fundAccount(t, h, "seller", "0")

	_, _, err := h.engine.ProcessOrder(ctx, newOrder(t, "seller", orderbook.Ask, "0.50", "10"))
	require.NoError(t, err)

	_, _, err = h.engine.ProcessOrder(ctx, newOrder(t, "buyer", orderbook.Bid, "0.60", "10"))
	require.Error(t, err)
	var insufficient *matching.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
}

func TestProcessOrderMirrorsToFollowersOneHop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fundAccount(t, h, "leader", "1000.00")
	fundAccount(t, h, "seller", "0")

	const followerCount = 5
	for i := 0; i < followerCount; i++ {
		follower := "follower-" + string(rune('a'+i))
		fundAccount(t, h, follower, "1000.00")
		_, err := h.social.Follow(follower, "leader")
		require.NoError(t, err)
	}

	_, _, err := h.engine.ProcessOrder(ctx, newOrder(t, "seller", orderbook.Ask, "0.50", "100"))
	require.NoError(t, err)

	_, matches, err := h.engine.ProcessOrder(ctx, newOrder(t, "leader", orderbook.Bid, "0.60", "10"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Each of the 5 followers should now have a mirrored fill against the
	// remaining 90 units resting in the seller's ask.
	for i := 0; i < followerCount; i++ {
		follower := "follower-" + string(rune('a'+i))
		events, err := h.eventRepo.ByUser(ctx, follower)
		require.NoError(t, err)
		matchedCount := 0
		for _, e := range events {
			if e.EventType == eventstore.TradeMatched {
				matchedCount++
			}
		}
		require.Equal(t, 1, matchedCount, "follower %s should have exactly one mirrored fill", follower)
	}
}
