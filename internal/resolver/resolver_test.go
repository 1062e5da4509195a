package resolver_test

import (
	"context"
	"sync"
	"testing"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/outcomeledger"
	"github.com/openalpha/predictionx/internal/resolver"
)

type fakeRepo struct {
	mu      sync.Mutex
	entries []outcomeledger.Entry
}

func (f *fakeRepo) InsertEntries(ctx context.Context, tx ledger.Tx, entries []outcomeledger.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeRepo) NetHoldingsByAsset(ctx context.Context, assetType string) (map[uuid.UUID]money.Amount, error) {
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

func mustAmount(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	require.NoError(t, err)
	return a
}

func TestResolveMarketCreditsOnlyPositiveHolders(t *testing.T) {
	repo := &fakeRepo{}
	ol := outcomeledger.New(repo)
	res := resolver.New(ol, log.NewNopLogger())

	holderA, holderB, holderC := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, ol.InsertSettlementEntries(context.Background(), []outcomeledger.Entry{
		{AccountID: holderA, AssetType: "DRAKE_WIN", Amount: mustAmount(t, "3"), Direction: ledger.Debit},
		{AccountID: holderB, AssetType: "DRAKE_WIN", Amount: mustAmount(t, "2"), Direction: ledger.Debit},
		{AccountID: holderC, AssetType: "DRAKE_WIN", Amount: mustAmount(t, "5"), Direction: ledger.Debit},
		{AccountID: holderC, AssetType: "DRAKE_WIN", Amount: mustAmount(t, "5"), Direction: ledger.Credit},
	}))

	settlementAccount := uuid.New()
	result, err := res.ResolveMarket(context.Background(), "DRAKE_WIN", settlementAccount, mustAmount(t, "1.00"))
	require.NoError(t, err)
	require.Equal(t, 2, result.AccountsSettled)
	require.True(t, result.TotalUSDPaidOut.Equal(mustAmount(t, "5.00")))
}

func TestResolveMarketDefaultsUSDPerTokenWhenZero(t *testing.T) {
	repo := &fakeRepo{}
	ol := outcomeledger.New(repo)
	res := resolver.New(ol, log.NewNopLogger())

	holder := uuid.New()
	require.NoError(t, ol.InsertSettlementEntries(context.Background(), []outcomeledger.Entry{
		{AccountID: holder, AssetType: "DRAKE_WIN", Amount: mustAmount(t, "4"), Direction: ledger.Debit},
	}))

	result, err := res.ResolveMarket(context.Background(), "DRAKE_WIN", uuid.New(), money.Zero)
	require.NoError(t, err)
	require.True(t, result.TotalUSDPaidOut.Equal(mustAmount(t, "4.00")))
}

func TestResolveMarketRejectsBlankAssetType(t *testing.T) {
	repo := &fakeRepo{}
	ol := outcomeledger.New(repo)
	res := resolver.New(ol, log.NewNopLogger())

	_, err := res.ResolveMarket(context.Background(), "  ", uuid.New(), mustAmount(t, "1.00"))
	require.Error(t, err)
}
