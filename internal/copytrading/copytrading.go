// Package copytrading converts a celebrity trade-signal into a ledger
// Clearing transaction (spec §4.C).
package copytrading

import (
	"context"
	"fmt"
	"strings"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/oracle"
)

// SystemOperatorID owns every Market Holding Account.
const SystemOperatorID = "system"

// Engine subscribes to Oracle.TradeProposed and posts a Clearing
// transaction per signal.
type Engine struct {
	ledger *ledger.Ledger
	index  *clearingIndex
	group  singleflight.Group
	logger log.Logger
}

func New(l *ledger.Ledger, logger log.Logger) *Engine {
	return &Engine{
		ledger: l,
		index:  newClearingIndex(),
		logger: logger.With("module", "copytrading"),
	}
}

func celebrityAccountName(actorID string) string {
	return actorID + " Main Operating Account"
}

func marketHoldingAccountName(outcomeName string) string {
	return "Market Holding Account - " + outcomeName
}

// HandleTradeProposed is the Oracle.TradeProposed subscriber. Signal
// handling is fire-and-forget: errors are logged and swallowed so one bad
// signal cannot break the oracle's dispatch to other subscribers (spec
// §4.C, flagged as an open question in §9 but implemented as specified).
func (e *Engine) HandleTradeProposed(ctx context.Context, signal oracle.CelebrityTradeSignal) {
	if err := e.process(ctx, signal); err != nil {
		e.logger.Error("dropping celebrity trade signal", "trade_id", signal.TradeID, "outcome_id", signal.OutcomeID, "error", err)
	}
}

func (e *Engine) process(ctx context.Context, signal oracle.CelebrityTradeSignal) error {
	if signal.ActorID == nil || strings.TrimSpace(*signal.ActorID) == "" {
		return fmt.Errorf("copytrading: signal has no actor id")
	}

	wantName := celebrityAccountName(*signal.ActorID)
	accounts, err := e.ledger.AccountsForOperator(ctx, signal.OperatorID)
	if err != nil {
		return fmt.Errorf("copytrading: listing accounts for operator %s: %w", signal.OperatorID, err)
	}
	var celebrityAccount *ledger.Account
	for i := range accounts {
		if accounts[i].Name == wantName {
			celebrityAccount = &accounts[i]
			break
		}
	}
	if celebrityAccount == nil {
		return fmt.Errorf("copytrading: no account named %q for operator %s", wantName, signal.OperatorID)
	}

	holdingAccount, err := e.getOrCreateMarketHoldingAccount(ctx, signal.OutcomeID, signal.OutcomeName)
	if err != nil {
		return fmt.Errorf("copytrading: market holding account: %w", err)
	}

	entries := []ledger.JournalEntry{
		{AccountID: celebrityAccount.ID, Amount: signal.Amount, Direction: ledger.Debit, Phase: ledger.PhaseClearing},
		{AccountID: holdingAccount.ID, Amount: signal.Amount, Direction: ledger.Credit, Phase: ledger.PhaseClearing},
	}
	txType := ledger.TransactionTrade
	txID, err := e.ledger.PostTransaction(ctx, nil, entries, ledger.PostOptions{Type: &txType})
	if err != nil {
		return fmt.Errorf("copytrading: posting clearing transaction: %w", err)
	}

	e.index.Append(signal.OutcomeID, txID)
	e.logger.Info("posted clearing transaction", "transaction_id", txID, "outcome_id", signal.OutcomeID, "amount", signal.Amount)
	return nil
}

// getOrCreateMarketHoldingAccount uses a per-outcome mutual-exclusion
// primitive (singleflight, keyed by outcome-id) so only one concurrent
// caller actually creates the account; everyone else observes the winner's
// result.
func (e *Engine) getOrCreateMarketHoldingAccount(ctx context.Context, outcomeID, outcomeName string) (*ledger.Account, error) {
	key := strings.ToLower(strings.TrimSpace(outcomeID))
	name := marketHoldingAccountName(outcomeName)

	result, err, _ := e.group.Do(key, func() (interface{}, error) {
		accounts, err := e.ledger.AccountsForOperator(ctx, SystemOperatorID)
		if err != nil {
			return nil, err
		}
		for i := range accounts {
			if accounts[i].Name == name {
				return &accounts[i], nil
			}
		}
		acc, err := e.ledger.CreateAccount(ctx, uuid.New(), name, ledger.AccountLiability, SystemOperatorID)
		if err != nil {
			return nil, err
		}
		return &acc, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ledger.Account), nil
}

// GetClearingTransactionIdsForOutcome returns a snapshot copy of every
// clearing transaction id posted for the outcome.
func (e *Engine) GetClearingTransactionIdsForOutcome(outcomeID string) []uuid.UUID {
	return e.index.Snapshot(outcomeID)
}

// GetLastClearingTransactionIdForOutcome returns the latest clearing
// transaction id for the outcome, for API echo.
func (e *Engine) GetLastClearingTransactionIdForOutcome(outcomeID string) (uuid.UUID, bool) {
	return e.index.Last(outcomeID)
}
