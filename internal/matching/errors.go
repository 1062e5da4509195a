package matching

import "github.com/openalpha/predictionx/internal/money"

// InvalidOutcomeError rejects an order for an outcome-id the registry does
// not recognise.
type InvalidOutcomeError struct{ OutcomeID string }

func (e *InvalidOutcomeError) Error() string {
	return "matching: unknown outcome " + e.OutcomeID
}

// InvalidOperationError covers structural failures that should never happen
// in a correctly-provisioned system, e.g. a matched trader with no account.
type InvalidOperationError struct{ Reason string }

func (e *InvalidOperationError) Error() string { return "matching: " + e.Reason }

// InsufficientFundsError rejects a match whose buyer cannot cover the cost.
type InsufficientFundsError struct {
	Required  money.Amount
	Available money.Amount
}

func (e *InsufficientFundsError) Error() string {
	return "matching: insufficient funds: required " + e.Required.String() + " available " + e.Available.String()
}
