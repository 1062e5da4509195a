package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/money"
)

// AccountType enumerates the double-entry account classes.
type AccountType string

const (
	AccountAsset     AccountType = "Asset"
	AccountLiability AccountType = "Liability"
	AccountEquity    AccountType = "Equity"
	AccountRevenue   AccountType = "Revenue"
	AccountExpense   AccountType = "Expense"
)

// Direction is a journal entry's debit/credit side.
type Direction string

const (
	Debit  Direction = "Debit"
	Credit Direction = "Credit"
)

// Phase distinguishes provisional Clearing accounting from final Settlement
// accounting. Phase is per-entry, not per-transaction, so a single
// transaction may carry entries of both phases.
type Phase string

const (
	PhaseClearing   Phase = "Clearing"
	PhaseSettlement Phase = "Settlement"
)

// Account is immutable after creation.
type Account struct {
	ID         uuid.UUID
	Name       string
	Type       AccountType
	OperatorID string
	CreatedAt  time.Time
}

// JournalEntry is a single leg of a balanced Transaction. It never exists
// outside a Transaction and is never mutated once posted.
type JournalEntry struct {
	AccountID uuid.UUID
	Amount    money.Amount
	Direction Direction
	Phase     Phase
}

// TransactionType optionally tags a transaction's origin.
type TransactionType string

const (
	TransactionTrade TransactionType = "Trade"
)

// Transaction is an ordered, balanced sequence of journal entries.
type Transaction struct {
	ID                          uuid.UUID
	Entries                     []JournalEntry
	CreatedAt                   time.Time
	SettlesClearingTransactionID *uuid.UUID
	Type                        *TransactionType
}
