package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/orderbook"
)

// CelebrityOracleService adds celebrity trade-signal simulation on top of
// BaseOracleService's market lifecycle.
type CelebrityOracleService struct {
	*BaseOracleService

	mu        sync.RWMutex
	listeners []TradeProposedListener
	logger    log.Logger
}

func NewCelebrityOracleService(registry *OutcomeRegistry, books *orderbook.Store, responsibleOracleID string, logger log.Logger) *CelebrityOracleService {
	return &CelebrityOracleService{
		BaseOracleService: NewBaseOracleService(registry, books, responsibleOracleID, logger),
		logger:            logger.With("module", "oracle.celebrity"),
	}
}

// OnTradeProposed subscribes a listener invoked synchronously for every
// SimulateTrade call. CopyTradingEngine is the canonical subscriber.
func (s *CelebrityOracleService) OnTradeProposed(fn TradeProposedListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SimulateTrade validates the signal and dispatches TradeProposed
// synchronously to every subscriber.
func (s *CelebrityOracleService) SimulateTrade(ctx context.Context, operatorID string, amount money.Amount, outcomeID, outcomeName string, actorID *string) (CelebrityTradeSignal, error) {
	if !amount.IsPositive() {
		return CelebrityTradeSignal{}, fmt.Errorf("oracle: trade amount must be positive")
	}
	if strings.TrimSpace(outcomeID) == "" {
		return CelebrityTradeSignal{}, fmt.Errorf("oracle: outcome id must not be blank")
	}

	signal := CelebrityTradeSignal{
		TradeID:     uuid.New(),
		OperatorID:  operatorID,
		Amount:      amount,
		OutcomeID:   outcomeID,
		OutcomeName: outcomeName,
		ActorID:     actorID,
	}

	s.mu.RLock()
	listeners := append([]TradeProposedListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, signal)
	}

	return signal, nil
}
