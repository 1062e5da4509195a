// Package outcomeledger implements the per-asset holdings ledger used for
// settlement aggregation (spec §4.O, the AccountingService).
package outcomeledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
)

// Entry is a single leg of a share position in a named outcome asset, e.g.
// DRAKE_ALBUM. Invariant: for any asset type, Σ(Debit) = Σ(Credit) after
// every trade involving that asset.
type Entry struct {
	AccountID  uuid.UUID
	AssetType  string
	Amount     money.Amount
	Direction  ledger.Direction
	OccurredAt time.Time
}

// Repository is the persistence contract for outcome-ledger entries.
type Repository interface {
	InsertEntries(ctx context.Context, tx ledger.Tx, entries []Entry) error
	NetHoldingsByAsset(ctx context.Context, assetType string) (map[uuid.UUID]money.Amount, error)
}

// AccountingService books the share leg of every trade.
type AccountingService struct {
	repo Repository
}

func New(repo Repository) *AccountingService {
	return &AccountingService{repo: repo}
}

// BookTrade produces exactly four ledger entries for one match: buyer
// Credit cash + buyer Debit outcome-asset + seller Debit cash + seller
// Credit outcome-asset. All four entries, the "CASH" pair included, are
// written to the outcome ledger in one repository call; the caller posts
// the double-entry Ledger cash transaction separately.
//
// Fails with an error if cashAmount <= 0, outcomeQuantity <= 0, or the
// asset type is blank.
func (s *AccountingService) BookTrade(ctx context.Context, tx ledger.Tx, buyerAccountID, sellerAccountID uuid.UUID, cashAmount money.Amount, outcomeAssetType string, outcomeQuantity money.Amount, occurredAt *time.Time) error {
	if !cashAmount.IsPositive() {
		return fmt.Errorf("outcomeledger: cash amount must be positive")
	}
	if !outcomeQuantity.IsPositive() {
		return fmt.Errorf("outcomeledger: outcome quantity must be positive")
	}
	if strings.TrimSpace(outcomeAssetType) == "" {
		return fmt.Errorf("outcomeledger: outcome asset type must not be blank")
	}

	ts := time.Now().UTC()
	if occurredAt != nil {
		ts = *occurredAt
	}

	entries := []Entry{
		{AccountID: buyerAccountID, AssetType: "CASH", Amount: cashAmount, Direction: ledger.Credit, OccurredAt: ts},
		{AccountID: buyerAccountID, AssetType: outcomeAssetType, Amount: outcomeQuantity, Direction: ledger.Debit, OccurredAt: ts},
		{AccountID: sellerAccountID, AssetType: "CASH", Amount: cashAmount, Direction: ledger.Debit, OccurredAt: ts},
		{AccountID: sellerAccountID, AssetType: outcomeAssetType, Amount: outcomeQuantity, Direction: ledger.Credit, OccurredAt: ts},
	}
	return s.repo.InsertEntries(ctx, tx, entries)
}

// InsertSettlementEntries writes an arbitrary batch of already-built
// entries, outside the fixed 4-leg BookTrade shape. MarketResolver uses
// this to post the zero-out-and-credit entries produced by admin
// settlement, which span two accounts and two asset types (the winning
// asset and CASH) rather than one trade's buyer/seller pair.
func (s *AccountingService) InsertSettlementEntries(ctx context.Context, entries []Entry) error {
	ts := time.Now().UTC()
	for i := range entries {
		if entries[i].OccurredAt.IsZero() {
			entries[i].OccurredAt = ts
		}
	}
	return s.repo.InsertEntries(ctx, nil, entries)
}

// NetHoldings returns, per account, Σ(Debit) − Σ(Credit) for the given
// asset type: each account's net holding of that asset.
func (s *AccountingService) NetHoldings(ctx context.Context, assetType string) (map[uuid.UUID]money.Amount, error) {
	return s.repo.NetHoldingsByAsset(ctx, assetType)
}

// ResolveAssetType derives the canonical outcome-asset-type string for an
// outcome-id: trimmed, hyphens to underscores, upper-cased. Blank input
// maps to "OUTCOME_UNKNOWN". Idempotent on already-upper-underscored input.
func ResolveAssetType(outcomeID string) string {
	trimmed := strings.TrimSpace(outcomeID)
	if trimmed == "" {
		return "OUTCOME_UNKNOWN"
	}
	return strings.ToUpper(strings.ReplaceAll(trimmed, "-", "_"))
}
