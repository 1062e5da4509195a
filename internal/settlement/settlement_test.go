package settlement_test

import (
	"context"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/settlement"
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
	return nil, nil
}

func (f *fakeRepo) AccountsForOperator(ctx context.Context, tx ledger.Tx, operatorID string) ([]ledger.Account, error) {
	return nil, nil
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

type fakeClearingIndex struct {
	ids []uuid.UUID
}

func (f *fakeClearingIndex) GetClearingTransactionIdsForOutcome(outcomeID string) []uuid.UUID {
	return f.ids
}

func mustAmount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return a
}

func TestSettleOutcomeNoClearingTransactions(t *testing.T) {
	repo := newFakeRepo()
	l := ledger.New(repo, log.NewNopLogger())
	engine := settlement.New(l, &fakeClearingIndex{}, log.NewNopLogger())

	result, err := engine.SettleOutcome(context.Background(), "outcome-x", nil, nil)
	require.NoError(t, err)
	require.Empty(t, result.New)
	require.Empty(t, result.AlreadySettled)
}

func TestSettleOutcomeIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	l := ledger.New(repo, log.NewNopLogger())
	ctx := context.Background()

	celeb, err := l.CreateAccount(ctx, uuid.New(), "Celebrity", ledger.AccountAsset, "drake-op")
	require.NoError(t, err)
	holding, err := l.CreateAccount(ctx, uuid.New(), "Market Holding Account", ledger.AccountLiability, "system")
	require.NoError(t, err)

	txType := ledger.TransactionTrade
	clearingID, err := l.PostTransaction(ctx, nil, []ledger.JournalEntry{
		{AccountID: celeb.ID, Amount: mustAmount(t, "100.00"), Direction: ledger.Debit, Phase: ledger.PhaseClearing},
		{AccountID: holding.ID, Amount: mustAmount(t, "100.00"), Direction: ledger.Credit, Phase: ledger.PhaseClearing},
	}, ledger.PostOptions{Type: &txType})
	require.NoError(t, err)

	index := &fakeClearingIndex{ids: []uuid.UUID{clearingID}}
	engine := settlement.New(l, index, log.NewNopLogger())

	first, err := engine.SettleOutcome(ctx, "outcome-x", nil, nil)
	require.NoError(t, err)
	require.Len(t, first.New, 1)
	require.Empty(t, first.AlreadySettled)

	second, err := engine.SettleOutcome(ctx, "outcome-x", nil, nil)
	require.NoError(t, err)
	require.Empty(t, second.New)
	require.Len(t, second.AlreadySettled, 1)
	require.Equal(t, clearingID, second.AlreadySettled[0])

	clearingPhase := ledger.PhaseClearing
	celebClearingBal, err := l.GetAccountBalance(ctx, celeb.ID, &clearingPhase)
	require.NoError(t, err)
	require.True(t, celebClearingBal.Equal(mustAmount(t, "100.00")))

	settlementPhase := ledger.PhaseSettlement
	celebSettlementBal, err := l.GetAccountBalance(ctx, celeb.ID, &settlementPhase)
	require.NoError(t, err)
	require.True(t, celebSettlementBal.Equal(mustAmount(t, "-100.00")), "reversal should flip direction, netting the clearing entry")
}
