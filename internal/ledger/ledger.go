// Package ledger implements the double-entry accounting core: accounts,
// balanced journal entries, and phased (Clearing/Settlement) balances.
package ledger

import (
	"context"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/money"
)

// Tx is an open database transaction that Repository methods can be asked
// to join. A nil Tx means "use the repository's own connection/pool".
type Tx interface{}

// Repository is the persistence contract the Ledger depends on. The
// concrete implementation (internal/store) backs it with Postgres; tests
// use an in-memory fake.
type Repository interface {
	InsertAccount(ctx context.Context, tx Tx, acc Account) error
	GetAccount(ctx context.Context, tx Tx, id uuid.UUID) (*Account, error)
	FirstAccountForOperator(ctx context.Context, tx Tx, operatorID string) (*Account, error)
	AccountsForOperator(ctx context.Context, tx Tx, operatorID string) ([]Account, error)

	// InsertTransaction persists the transaction and its entries atomically.
	// If tx is nil the repository opens and commits its own transaction.
	InsertTransaction(ctx context.Context, tx Tx, txn Transaction) error
	GetTransaction(ctx context.Context, tx Tx, id uuid.UUID) (*Transaction, error)
	SumEntries(ctx context.Context, tx Tx, accountID uuid.UUID, phase *Phase) (debits, credits money.Amount, err error)

	// Begin opens a new underlying transaction for callers (e.g. the
	// matching engine) that need to join ledger writes with other side
	// effects in one atomic unit.
	Begin(ctx context.Context) (Tx, error)
	Commit(ctx context.Context, tx Tx) error
	Rollback(ctx context.Context, tx Tx) error
}

// Ledger is the accounting core described in spec §4.L.
type Ledger struct {
	repo   Repository
	logger log.Logger
}

func New(repo Repository, logger log.Logger) *Ledger {
	return &Ledger{repo: repo, logger: logger.With("module", "ledger")}
}

// CreateAccount persists a new account. Fails on a blank name.
func (l *Ledger) CreateAccount(ctx context.Context, id uuid.UUID, name string, typ AccountType, operatorID string) (Account, error) {
	if strings.TrimSpace(name) == "" {
		return Account{}, &ErrBlankName{}
	}
	acc := Account{
		ID:         id,
		Name:       name,
		Type:       typ,
		OperatorID: operatorID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.InsertAccount(ctx, nil, acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// PostOptions carries the optional fields of PostTransaction.
type PostOptions struct {
	SettlesClearingTransactionID *uuid.UUID
	Type                         *TransactionType
}

// PostTransaction verifies the balance invariant on the decimal grid, then
// writes the transaction and its entries atomically. If tx is non-nil the
// caller's open transaction is joined; otherwise PostTransaction opens and
// commits its own.
func (l *Ledger) PostTransaction(ctx context.Context, tx Tx, entries []JournalEntry, opts PostOptions) (uuid.UUID, error) {
	totalDebits, totalCredits := money.Zero, money.Zero
	for _, e := range entries {
		switch e.Direction {
		case Debit:
			totalDebits = totalDebits.Add(e.Amount)
		case Credit:
			totalCredits = totalCredits.Add(e.Amount)
		}
	}
	if !totalDebits.Equal(totalCredits) {
		return uuid.UUID{}, &ErrTransactionNotBalanced{TotalDebits: totalDebits, TotalCredits: totalCredits}
	}

	txn := Transaction{
		ID:                           uuid.New(),
		Entries:                      entries,
		CreatedAt:                    time.Now().UTC(),
		SettlesClearingTransactionID: opts.SettlesClearingTransactionID,
		Type:                         opts.Type,
	}

	joined := tx != nil
	activeTx := tx
	if !joined {
		var err error
		activeTx, err = l.repo.Begin(ctx)
		if err != nil {
			return uuid.UUID{}, err
		}
	}

	if err := l.repo.InsertTransaction(ctx, activeTx, txn); err != nil {
		if !joined {
			_ = l.repo.Rollback(ctx, activeTx)
		}
		return uuid.UUID{}, err
	}

	if !joined {
		if err := l.repo.Commit(ctx, activeTx); err != nil {
			return uuid.UUID{}, err
		}
	}

	l.logger.Debug("posted transaction", "transaction_id", txn.ID, "entries", len(entries))
	return txn.ID, nil
}

// GetTransaction loads a previously posted transaction by id, joining the
// caller's open tx if one is supplied. Used by AutoSettlement to read back
// a Clearing transaction's entries before building its reversal.
func (l *Ledger) GetTransaction(ctx context.Context, tx Tx, id uuid.UUID) (*Transaction, error) {
	return l.repo.GetTransaction(ctx, tx, id)
}

// GetAccountBalance returns Σ(Debit) − Σ(Credit) for the account, optionally
// restricted to a single phase. Asset-account sign convention: the caller
// interprets sign, no absolute-value coercion happens here.
func (l *Ledger) GetAccountBalance(ctx context.Context, accountID uuid.UUID, phase *Phase) (money.Amount, error) {
	debits, credits, err := l.repo.SumEntries(ctx, nil, accountID, phase)
	if err != nil {
		return money.Zero, err
	}
	return debits.Sub(credits), nil
}

// GetOperatorBalances returns every account's all-phase balance for an
// operator, used to expose ledger state to controllers.
func (l *Ledger) GetOperatorBalances(ctx context.Context, operatorID string) (map[uuid.UUID]money.Amount, error) {
	accounts, err := l.repo.AccountsForOperator(ctx, nil, operatorID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]money.Amount, len(accounts))
	for _, acc := range accounts {
		bal, err := l.GetAccountBalance(ctx, acc.ID, nil)
		if err != nil {
			return nil, err
		}
		out[acc.ID] = bal
	}
	return out, nil
}

// FirstAccountForOperator resolves the first account registered to an
// operator-id; the matching engine uses user-id as operator-id here.
func (l *Ledger) FirstAccountForOperator(ctx context.Context, operatorID string) (*Account, error) {
	return l.repo.FirstAccountForOperator(ctx, nil, operatorID)
}

// AccountsForOperator lists every account registered to an operator-id.
func (l *Ledger) AccountsForOperator(ctx context.Context, operatorID string) ([]Account, error) {
	return l.repo.AccountsForOperator(ctx, nil, operatorID)
}

// Begin exposes a transaction handle for callers (the matching engine,
// settlement) that need to post ledger entries as part of a larger atomic
// unit alongside outcome-ledger entries and domain events.
func (l *Ledger) Begin(ctx context.Context) (Tx, error) { return l.repo.Begin(ctx) }
func (l *Ledger) Commit(ctx context.Context, tx Tx) error { return l.repo.Commit(ctx, tx) }
func (l *Ledger) Rollback(ctx context.Context, tx Tx) error { return l.repo.Rollback(ctx, tx) }
