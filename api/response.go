package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/matching"
	"github.com/openalpha/predictionx/internal/orderbook"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders every validation and domain rejection as a plain-text
// message per spec §7; no stack trace ever reaches the response body.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

// statusForDomainError maps the typed domain rejections from
// internal/matching and internal/ledger to the HTTP status spec §7
// assigns them. Anything unrecognised is a 5xx: infrastructure errors
// propagate to the top-level handler untouched.
func statusForDomainError(err error) (int, string) {
	switch e := err.(type) {
	case *matching.InvalidOutcomeError:
		return http.StatusBadRequest, e.Error()
	case *matching.InsufficientFundsError:
		return http.StatusConflict, e.Error()
	case *matching.InvalidOperationError:
		return http.StatusUnprocessableEntity, e.Error()
	case *ledger.ErrTransactionNotBalanced:
		return http.StatusUnprocessableEntity, e.Error()
	case *ledger.ErrAccountNotFound:
		return http.StatusNotFound, e.Error()
	case *ledger.ErrBlankName:
		return http.StatusBadRequest, e.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// sideFromString accepts "Buy"/"Sell", "Bid"/"Ask", and the ordinal forms
// "0" (Bid) / "1" (Ask), all case-insensitive, per spec §6.
func sideFromString(raw string) (orderbook.Side, bool) {
	switch strings.ToLower(raw) {
	case "buy", "0", "bid":
		return orderbook.Bid, true
	case "sell", "1", "ask":
		return orderbook.Ask, true
	default:
		return "", false
	}
}
