package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/money"
)

// ErrTransactionNotBalanced is raised when the sum of debits does not equal
// the sum of credits across a transaction's entries, compared on the exact
// decimal grid.
type ErrTransactionNotBalanced struct {
	TotalDebits  money.Amount
	TotalCredits money.Amount
}

func (e *ErrTransactionNotBalanced) Error() string {
	return fmt.Sprintf("transaction not balanced: debits=%s credits=%s", e.TotalDebits, e.TotalCredits)
}

// ErrAccountNotFound is raised when a referenced account does not exist.
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %s", e.AccountID)
}

// ErrBlankName is raised by CreateAccount on a blank name.
type ErrBlankName struct{}

func (e *ErrBlankName) Error() string { return "account name must not be blank" }
