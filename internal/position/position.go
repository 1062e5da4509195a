// Package position projects a user's net per-outcome position from the
// TradeMatched domain-event stream (spec §4.P).
package position

import (
	"context"
	"encoding/json"
	"sort"

	"cosmossdk.io/log"

	"github.com/openalpha/predictionx/internal/eventstore"
	"github.com/openalpha/predictionx/internal/money"
)

// NetPosition is one outcome's non-zero net quantity for a user.
type NetPosition struct {
	OutcomeID   string
	NetQuantity money.Amount
}

// Service computes net positions by scanning the event stream. It never
// mutates state; unparseable payloads are skipped and logged, and a total
// read failure yields an empty list rather than an error, matching the
// spec's "log-only" handling.
type Service struct {
	events *eventstore.Store
	logger log.Logger
}

func New(events *eventstore.Store, logger log.Logger) *Service {
	return &Service{events: events, logger: logger.With("module", "position")}
}

// GetNetPosition scans the user's slice of the event stream, aggregating
// +quantity when userID is the buyer and −quantity when the seller, per
// outcome-id. If marketID is non-empty, only events tagged with that
// market-id are considered. Results are sorted by outcome-id and only
// non-zero net positions are returned.
func (s *Service) GetNetPosition(ctx context.Context, userID string, marketID string) []NetPosition {
	events, err := s.events.ByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to read user event stream", "user_id", userID, "error", err)
		return nil
	}

	totals := make(map[string]money.Amount)
	for _, ev := range events {
		if ev.EventType != eventstore.TradeMatched {
			continue
		}
		if marketID != "" && (ev.MarketID == nil || *ev.MarketID != marketID) {
			continue
		}
		var payload eventstore.TradeMatchedPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			s.logger.Warn("skipping unparseable TradeMatched payload", "event_id", ev.ID, "error", err)
			continue
		}
		qty, err := money.Parse(payload.Quantity)
		if err != nil {
			s.logger.Warn("skipping unparseable TradeMatched quantity", "event_id", ev.ID, "error", err)
			continue
		}
		current, ok := totals[payload.OutcomeID]
		if !ok {
			current = money.Zero
		}
		if payload.BuyerUserID == userID {
			totals[payload.OutcomeID] = current.Add(qty)
		} else if payload.SellerUserID == userID {
			totals[payload.OutcomeID] = current.Sub(qty)
		}
	}

	var out []NetPosition
	for outcomeID, net := range totals {
		if net.IsZero() {
			continue
		}
		out = append(out, NetPosition{OutcomeID: outcomeID, NetQuantity: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OutcomeID < out[j].OutcomeID })
	return out
}
