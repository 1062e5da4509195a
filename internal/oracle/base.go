package oracle

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/orderbook"
)

const (
	flashCapMinutes  = 15
	baseFloorMinutes = 60
)

// BaseOracleService owns market lifecycle: creating markets, registering
// their outcomes, listing active markets, and late-bound settlement
// notification (spec §4.R).
type BaseOracleService struct {
	mu       sync.RWMutex
	markets  map[uuid.UUID]*MarketEvent
	byOutcome map[string]*MarketEvent

	registry *OutcomeRegistry
	books    *orderbook.Store

	marketOpenedListeners []MarketOpenedListener

	// settler is resolved lazily: the base service only looks it up when
	// NotifyOutcomeReached is actually invoked, which is what breaks the
	// Oracle -> Settlement -> CopyTradingEngine -> Oracle construction
	// cycle described in spec §9.
	settlerMu sync.RWMutex
	settler   Settler

	responsibleOracleID string
	logger              log.Logger
}

func NewBaseOracleService(registry *OutcomeRegistry, books *orderbook.Store, responsibleOracleID string, logger log.Logger) *BaseOracleService {
	return &BaseOracleService{
		markets:             make(map[uuid.UUID]*MarketEvent),
		byOutcome:           make(map[string]*MarketEvent),
		registry:            registry,
		books:               books,
		responsibleOracleID: responsibleOracleID,
		logger:              logger.With("module", "oracle"),
	}
}

// SetSettler resolves the late-bound settlement dependency. Called once,
// after the settlement service has been constructed (which itself depends
// on the copy-trading engine, which depends on this oracle to subscribe to
// TradeProposed — hence the deferred wiring).
func (s *BaseOracleService) SetSettler(settler Settler) {
	s.settlerMu.Lock()
	defer s.settlerMu.Unlock()
	s.settler = settler
}

// OnMarketOpened registers a listener invoked synchronously whenever
// CreateMarketEvent succeeds.
func (s *BaseOracleService) OnMarketOpened(fn MarketOpenedListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marketOpenedListeners = append(s.marketOpenedListeners, fn)
}

func normalizeDuration(typ MarketEventType, minutes int) int {
	switch typ {
	case Flash:
		if minutes > flashCapMinutes || minutes <= 0 {
			return flashCapMinutes
		}
	default:
		if minutes < baseFloorMinutes {
			return baseFloorMinutes
		}
	}
	if minutes <= 0 {
		return baseFloorMinutes
	}
	return minutes
}

// CreateMarketEvent derives an outcome-id, normalises the duration (Flash
// capped at 15 minutes, Base floored at 60), stores the market, registers
// its outcome, creates the empty book, and notifies MarketOpened listeners.
func (s *BaseOracleService) CreateMarketEvent(actorID, title string, typ MarketEventType, durationMinutes int) (MarketEvent, error) {
	id := uuid.New()
	outcomeID := "outcome-" + hex.EncodeToString(id[:])
	normalized := normalizeDuration(typ, durationMinutes)
	now := time.Now().UTC()

	market := MarketEvent{
		ID:                  id,
		Title:               title,
		Type:                typ,
		OutcomeID:           outcomeID,
		ActorID:             actorID,
		ResponsibleOracleID: s.responsibleOracleID,
		DurationMinutes:     normalized,
		CreatedAt:           now,
		ExpiresAt:           now.Add(time.Duration(normalized) * time.Minute),
	}

	s.mu.Lock()
	s.markets[id] = &market
	s.byOutcome[normalizeOutcome(outcomeID)] = &market
	listeners := append([]MarketOpenedListener(nil), s.marketOpenedListeners...)
	s.mu.Unlock()

	s.registry.Register(outcomeID)
	s.books.GetOrCreate(outcomeID)

	for _, fn := range listeners {
		fn(market)
	}

	s.logger.Info("market opened", "outcome_id", outcomeID, "type", typ, "expires_at", market.ExpiresAt)
	return market, nil
}

// GetActiveEvents returns every market whose expiry is still in the future.
func (s *BaseOracleService) GetActiveEvents() []MarketEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now().UTC()
	var out []MarketEvent
	for _, m := range s.markets {
		if m.IsActive(now) {
			out = append(out, *m)
		}
	}
	return out
}

// GetMarketByOutcome returns the market registered for an outcome-id, if any.
func (s *BaseOracleService) GetMarketByOutcome(outcomeID string) (MarketEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byOutcome[normalizeOutcome(outcomeID)]
	if !ok {
		return MarketEvent{}, false
	}
	return *m, true
}

// Registry exposes the outcome registry so the matching engine can
// validate incoming orders against it.
func (s *BaseOracleService) Registry() *OutcomeRegistry { return s.registry }

// NotifyOutcomeReached delegates to the lazily-resolved settlement
// service. If no settler has been wired yet, this is a configuration
// error surfaced to the caller rather than silently ignored.
func (s *BaseOracleService) NotifyOutcomeReached(ctx context.Context, outcomeID string, confidence *float64, sources []string) (SettlementResult, error) {
	s.settlerMu.RLock()
	settler := s.settler
	s.settlerMu.RUnlock()
	if settler == nil {
		return SettlementResult{}, fmt.Errorf("oracle: settlement service not wired")
	}
	return settler.SettleOutcome(ctx, outcomeID, confidence, sources)
}
