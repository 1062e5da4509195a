// Package settlement implements AutoSettlement: idempotent reversal of
// every Clearing transaction posted for an outcome once that outcome
// resolves (spec §4.A).
package settlement

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/oracle"
)

// ClearingIndexReader is the read side of CopyTradingEngine's
// ClearingIndex. It is defined locally, rather than imported from
// copytrading, so this package's only outward dependency beyond ledger is
// oracle (for the Settler contract it implements); copytrading depends on
// neither settlement nor oracle's Settler, so no cycle forms.
type ClearingIndexReader interface {
	GetClearingTransactionIdsForOutcome(outcomeID string) []uuid.UUID
}

// Engine is AutoSettlement. It implements oracle.Settler so
// BaseOracleService.SetSettler can resolve it as the late-bound settlement
// dependency.
type Engine struct {
	ledger *ledger.Ledger
	index  *settlementIndex
	clear  ClearingIndexReader
	logger log.Logger
}

func New(l *ledger.Ledger, clearingIndex ClearingIndexReader, logger log.Logger) *Engine {
	return &Engine{
		ledger: l,
		index:  newSettlementIndex(),
		clear:  clearingIndex,
		logger: logger.With("module", "settlement"),
	}
}

// SettleOutcome is AutoSettlement.SettleOutcome (spec §4.A), satisfying
// oracle.Settler.
func (e *Engine) SettleOutcome(ctx context.Context, outcomeID string, confidence *float64, sources []string) (oracle.SettlementResult, error) {
	clearingIDs := e.clear.GetClearingTransactionIdsForOutcome(outcomeID)
	if len(clearingIDs) == 0 {
		return oracle.SettlementResult{
			Message:    fmt.Sprintf("No clearing transactions for outcome %s", outcomeID),
			Confidence: confidence,
			Sources:    sources,
		}, nil
	}

	result := oracle.SettlementResult{Confidence: confidence, Sources: sources}

	for _, clearingID := range clearingIDs {
		var settlementID uuid.UUID
		var alreadyPresent bool
		var postErr error

		e.index.withLock(func(lookup func(uuid.UUID) (uuid.UUID, bool), insert func(uuid.UUID, uuid.UUID)) {
			if existing, ok := lookup(clearingID); ok {
				settlementID = existing
				alreadyPresent = true
				return
			}
			settlementID, postErr = e.postReversal(ctx, clearingID)
			if postErr != nil {
				return
			}
			insert(clearingID, settlementID)
		})

		if postErr != nil {
			return oracle.SettlementResult{}, postErr
		}
		if alreadyPresent {
			result.AlreadySettled = append(result.AlreadySettled, clearingID)
			continue
		}
		result.New = append(result.New, settlementID)
	}

	result.Message = fmt.Sprintf("Settled outcome %s: %d new, %d already settled", outcomeID, len(result.New), len(result.AlreadySettled))
	e.logger.Info("settled outcome", "outcome_id", outcomeID, "new", len(result.New), "already_settled", len(result.AlreadySettled))
	return result, nil
}

// postReversal loads the Clearing transaction and posts its mirror image:
// every entry's direction flipped, phase forced to Settlement, amounts
// unchanged.
func (e *Engine) postReversal(ctx context.Context, clearingID uuid.UUID) (uuid.UUID, error) {
	clearingTx, err := e.ledger.GetTransaction(ctx, nil, clearingID)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("settlement: loading clearing transaction %s: %w", clearingID, err)
	}
	if clearingTx == nil {
		return uuid.UUID{}, fmt.Errorf("settlement: clearing transaction %s not found", clearingID)
	}

	reversed := make([]ledger.JournalEntry, len(clearingTx.Entries))
	for i, entry := range clearingTx.Entries {
		direction := ledger.Credit
		if entry.Direction == ledger.Credit {
			direction = ledger.Debit
		}
		reversed[i] = ledger.JournalEntry{
			AccountID: entry.AccountID,
			Amount:    entry.Amount,
			Direction: direction,
			Phase:     ledger.PhaseSettlement,
		}
	}

	id := clearingID
	opts := ledger.PostOptions{SettlesClearingTransactionID: &id, Type: clearingTx.Type}
	return e.ledger.PostTransaction(ctx, nil, reversed, opts)
}
