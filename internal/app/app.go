// Package app composes every core component into one wired service: the
// same role the teacher's cosmos app.go DI container played, trimmed to
// plain constructor composition since this service has no chain node,
// genesis file, or module manager to assemble.
package app

import (
	"cosmossdk.io/log"

	"github.com/openalpha/predictionx/internal/copytrading"
	"github.com/openalpha/predictionx/internal/eventstore"
	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/matching"
	"github.com/openalpha/predictionx/internal/oracle"
	"github.com/openalpha/predictionx/internal/orderbook"
	"github.com/openalpha/predictionx/internal/outcomeledger"
	"github.com/openalpha/predictionx/internal/position"
	"github.com/openalpha/predictionx/internal/resolver"
	"github.com/openalpha/predictionx/internal/settlement"
	"github.com/openalpha/predictionx/internal/social"
	"github.com/openalpha/predictionx/internal/store"
	"github.com/openalpha/predictionx/internal/telemetry"
)

// ResponsibleOracleID tags every market this process's oracle opens.
const ResponsibleOracleID = "predictionx-core"

// App holds every wired component the API layer needs. It is constructed
// once at process start and handed to the HTTP server.
type App struct {
	Ledger        *ledger.Ledger
	OutcomeLedger *outcomeledger.AccountingService
	Events        *eventstore.Store
	Books         *orderbook.Store
	Social        *social.Graph
	Oracle        *oracle.CelebrityOracleService
	Matching      *matching.Engine
	CopyTrading   *copytrading.Engine
	Settlement    *settlement.Engine
	Resolver      *resolver.Resolver
	Position      *position.Service
	Metrics       *telemetry.Collector
}

// New wires every component against a Postgres-backed pool, resolving the
// Oracle -> Settlement -> CopyTrading -> Oracle construction cycle (spec
// §9) by constructing CopyTrading and Settlement first and handing the
// oracle a late-bound Settler only once both exist.
func New(pool *store.Pool, logger log.Logger) *App {
	ledgerRepo := store.NewLedgerRepository(pool)
	outcomeLedgerRepo := store.NewOutcomeLedgerRepository(pool)
	eventRepo := store.NewEventStoreRepository(pool)

	l := ledger.New(ledgerRepo, logger)
	ol := outcomeledger.New(outcomeLedgerRepo)
	events := eventstore.New(eventRepo)
	books := orderbook.NewStore()
	socialGraph := social.NewGraph()
	registry := oracle.NewOutcomeRegistry()

	celebrityOracle := oracle.NewCelebrityOracleService(registry, books, ResponsibleOracleID, logger)

	copyEngine := copytrading.New(l, logger)
	celebrityOracle.OnTradeProposed(copyEngine.HandleTradeProposed)

	settlementEngine := settlement.New(l, copyEngine, logger)
	celebrityOracle.SetSettler(settlementEngine)

	matchingEngine := matching.New(l, ol, events, books, socialGraph, registry, logger)
	resolverSvc := resolver.New(ol, logger)
	positionSvc := position.New(events, logger)

	return &App{
		Ledger:        l,
		OutcomeLedger: ol,
		Events:        events,
		Books:         books,
		Social:        socialGraph,
		Oracle:        celebrityOracle,
		Matching:      matchingEngine,
		CopyTrading:   copyEngine,
		Settlement:    settlementEngine,
		Resolver:      resolverSvc,
		Position:      positionSvc,
		Metrics:       telemetry.GetCollector(),
	}
}
