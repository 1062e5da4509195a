// Package resolver implements MarketResolver, the admin settlement path
// that aggregates outcome-asset holdings directly rather than reversing
// Clearing transactions (spec §4.T).
package resolver

import (
	"context"
	"fmt"
	"strings"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/outcomeledger"
)

// Result is the return shape of ResolveMarket.
type Result struct {
	AccountsSettled int
	TotalUSDPaidOut money.Amount
}

// Resolver is MarketResolver.
type Resolver struct {
	outcomeLedger *outcomeledger.AccountingService
	logger        log.Logger
}

func New(outcomeLedger *outcomeledger.AccountingService, logger log.Logger) *Resolver {
	return &Resolver{outcomeLedger: outcomeLedger, logger: logger.With("module", "resolver")}
}

// ResolveMarket aggregates every account's net holding of winningAssetType,
// then zeroes each positive holder's position while crediting cash at
// usdPerToken per unit, debiting the settlement account symmetrically.
func (r *Resolver) ResolveMarket(ctx context.Context, winningAssetType string, settlementAccountID uuid.UUID, usdPerToken money.Amount) (Result, error) {
	if strings.TrimSpace(winningAssetType) == "" {
		return Result{}, fmt.Errorf("resolver: winning asset type must not be blank")
	}
	if usdPerToken.IsZero() {
		usdPerToken = money.MustParse("1.00")
	}

	holdings, err := r.outcomeLedger.NetHoldings(ctx, winningAssetType)
	if err != nil {
		return Result{}, fmt.Errorf("resolver: reading net holdings: %w", err)
	}

	result := Result{TotalUSDPaidOut: money.Zero}

	for accountID, holding := range holdings {
		if !holding.IsPositive() {
			continue
		}

		usdAmount := holding.Mul(usdPerToken)
		entries := []outcomeledger.Entry{
			{AccountID: accountID, AssetType: winningAssetType, Amount: holding, Direction: ledger.Credit},
			{AccountID: accountID, AssetType: "CASH", Amount: usdAmount, Direction: ledger.Debit},
			{AccountID: settlementAccountID, AssetType: winningAssetType, Amount: holding, Direction: ledger.Debit},
			{AccountID: settlementAccountID, AssetType: "CASH", Amount: usdAmount, Direction: ledger.Credit},
		}
		if err := r.outcomeLedger.InsertSettlementEntries(ctx, entries); err != nil {
			return Result{}, fmt.Errorf("resolver: crediting account %s: %w", accountID, err)
		}

		result.AccountsSettled++
		result.TotalUSDPaidOut = result.TotalUSDPaidOut.Add(usdAmount)
	}

	r.logger.Info("resolved market", "winning_asset_type", winningAssetType, "accounts_settled", result.AccountsSettled, "total_usd_paid_out", result.TotalUSDPaidOut)
	return result, nil
}
