package copytrading_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/predictionx/internal/copytrading"
	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/oracle"
)

type fakeRepo struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]ledger.Account
	transactions map[uuid.UUID]ledger.Transaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:     make(map[uuid.UUID]ledger.Account),
		transactions: make(map[uuid.UUID]ledger.Transaction),
	}
}

func (f *fakeRepo) Begin(ctx context.Context) (ledger.Tx, error)    { return "tx", nil }
func (f *fakeRepo) Commit(ctx context.Context, tx ledger.Tx) error   { return nil }
func (f *fakeRepo) Rollback(ctx context.Context, tx ledger.Tx) error { return nil }

func (f *fakeRepo) InsertAccount(ctx context.Context, tx ledger.Tx, acc ledger.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[acc.ID] = acc
	return nil
}

func (f *fakeRepo) GetAccount(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (f *fakeRepo) FirstAccountForOperator(ctx context.Context, tx ledger.Tx, operatorID string) (*ledger.Account, error) {
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

func (f *fakeRepo) AccountsForOperator(ctx context.Context, tx ledger.Tx, operatorID string) ([]ledger.Account, error) {
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

func (f *fakeRepo) InsertTransaction(ctx context.Context, tx ledger.Tx, txn ledger.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[txn.ID] = txn
	return nil
}

func (f *fakeRepo) GetTransaction(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.transactions[id]
	if !ok {
		return nil, nil
	}
	return &txn, nil
}

func (f *fakeRepo) SumEntries(ctx context.Context, tx ledger.Tx, accountID uuid.UUID, phase *ledger.Phase) (money.Amount, money.Amount, error) {
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

func strp(s string) *string { return &s }

func TestHandleTradeProposedSwallowsMissingActorID(t *testing.T) {
	repo := newFakeRepo()
	l := ledger.New(repo, log.NewNopLogger())
	engine := copytrading.New(l, log.NewNopLogger())

	amount, err := money.Parse("100.00")
	require.NoError(t, err)

	engine.HandleTradeProposed(context.Background(), oracle.CelebrityTradeSignal{
		TradeID:     uuid.New(),
		OperatorID:  "drake-op",
		Amount:      amount,
		OutcomeID:   "outcome-x",
		OutcomeName: "Drake Win",
		ActorID:     nil,
	})

	require.Empty(t, engine.GetClearingTransactionIdsForOutcome("outcome-x"))
}

func TestHandleTradeProposedPostsClearingTransaction(t *testing.T) {
	repo := newFakeRepo()
	l := ledger.New(repo, log.NewNopLogger())
	ctx := context.Background()

	_, err := l.CreateAccount(ctx, uuid.New(), "drake Main Operating Account", ledger.AccountAsset, "drake-op")
	require.NoError(t, err)

	engine := copytrading.New(l, log.NewNopLogger())
	amount, err := money.Parse("250.00")
	require.NoError(t, err)

	engine.HandleTradeProposed(ctx, oracle.CelebrityTradeSignal{
		TradeID:     uuid.New(),
		OperatorID:  "drake-op",
		Amount:      amount,
		OutcomeID:   "outcome-x",
		OutcomeName: "Drake Win",
		ActorID:     strp("drake"),
	})

	ids := engine.GetClearingTransactionIdsForOutcome("outcome-x")
	require.Len(t, ids, 1)

	last, ok := engine.GetLastClearingTransactionIdForOutcome("outcome-x")
	require.True(t, ok)
	require.Equal(t, ids[0], last)
}

func TestConcurrentMarketHoldingAccountCreationIsSingleflighted(t *testing.T) {
	repo := newFakeRepo()
	l := ledger.New(repo, log.NewNopLogger())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := l.CreateAccount(ctx, uuid.New(), fmt.Sprintf("celeb-%d Main Operating Account", i), ledger.AccountAsset, fmt.Sprintf("op-%d", i))
		require.NoError(t, err)
	}

	engine := copytrading.New(l, log.NewNopLogger())
	amount, err := money.Parse("10.00")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			actor := fmt.Sprintf("celeb-%d", i)
			engine.HandleTradeProposed(ctx, oracle.CelebrityTradeSignal{
				TradeID:     uuid.New(),
				OperatorID:  fmt.Sprintf("op-%d", i),
				Amount:      amount,
				OutcomeID:   "outcome-shared",
				OutcomeName: "Shared Market",
				ActorID:     &actor,
			})
		}()
	}
	wg.Wait()

	ids := engine.GetClearingTransactionIdsForOutcome("outcome-shared")
	require.Len(t, ids, 10)

	holdingAccounts, err := l.AccountsForOperator(ctx, copytrading.SystemOperatorID)
	require.NoError(t, err)
	require.Len(t, holdingAccounts, 1, "only one market holding account should be created for the shared outcome")
}
