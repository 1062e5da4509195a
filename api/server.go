// Package api implements the HTTP surface described in spec §6, wired
// against the core services composed by internal/app. Handler shape
// (one handler method per resource, writeJSON/writeError helpers) and the
// router/CORS/rate-limit composition in NewServer are adapted from the
// teacher's api/server.go and api/handlers/*.go.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/openalpha/predictionx/api/middleware"
	"github.com/openalpha/predictionx/api/websocket"
	"github.com/openalpha/predictionx/internal/app"
	"github.com/openalpha/predictionx/internal/orderbook"
	"github.com/openalpha/predictionx/internal/telemetry"
)

func metricsHandler() http.Handler { return telemetry.Handler() }

// Config carries the HTTP server's listen and timeout configuration.
type Config struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	RateLimitPerSec   float64
	RateLimitBurst    float64
}

func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            "8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		RateLimitPerSec: 50,
		RateLimitBurst:  100,
	}
}

// Server is the HTTP+WebSocket front door over the wired App.
type Server struct {
	app        *app.App
	httpServer *http.Server
	hub        *websocket.Hub
	liquidity  *liquidityToggle
	limiter    *middleware.RateLimiter
}

func NewServer(a *app.App, cfg Config) *Server {
	s := &Server{
		app:       a,
		hub:       websocket.NewHub(),
		liquidity: newLiquidityToggle(),
		limiter:   middleware.NewRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)
	handler = s.limiter.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	r.HandleFunc("/api/wallet/create", s.handleCreateWallet).Methods(http.MethodPost)
	r.HandleFunc("/api/wallet/{id}/balance", s.handleWalletBalance).Methods(http.MethodGet)

	r.HandleFunc("/api/secondary/order", s.handlePlaceOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/secondary/order/bulk", s.handleBulkOrders).Methods(http.MethodPost)
	r.HandleFunc("/api/secondary/book/{marketId}", s.handleBook).Methods(http.MethodGet)
	r.HandleFunc("/api/secondary/orders/{marketId}/{operatorId}", s.handleCancelByOperator).Methods(http.MethodDelete)

	r.HandleFunc("/api/markets/active", s.handleActiveMarkets).Methods(http.MethodGet)
	r.HandleFunc("/api/markets/orderbook/{outcomeId}", s.handleMarketOrderbook).Methods(http.MethodGet)

	r.HandleFunc("/api/celebrity/simulate", s.handleSimulateTrade).Methods(http.MethodPost)
	r.HandleFunc("/api/celebrity/outcome-reached", s.handleOutcomeReached).Methods(http.MethodPost)

	r.HandleFunc("/api/admin/resolve-market", s.handleResolveMarket).Methods(http.MethodPost)

	r.HandleFunc("/api/portfolio/{accountId}", s.handlePortfolio).Methods(http.MethodGet)
	r.HandleFunc("/api/portfolio/position", s.handlePosition).Methods(http.MethodGet)

	r.HandleFunc("/api/audit/market/{marketId}", s.handleAuditMarket).Methods(http.MethodGet)
	r.HandleFunc("/api/audit/user/{userId}", s.handleAuditUser).Methods(http.MethodGet)

	r.HandleFunc("/api/copy-trading/follow", s.handleFollow).Methods(http.MethodPost)

	r.HandleFunc("/api/liquidity/quotes", s.handleLiquidityQuotes).Methods(http.MethodGet)
	r.HandleFunc("/api/liquidity/settings", s.handleLiquiditySettings).Methods(http.MethodGet, http.MethodPatch)

	r.HandleFunc("/ws", s.hub.ServeWS)
}

// Start runs the WebSocket hub loop and serves HTTP until the context is
// cancelled, then gracefully shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// broadcastTradeMatched publishes one "trade-matched" WebSocket message
// per fill and records it in telemetry.
func (s *Server) broadcastTradeMatched(outcomeID string, m orderbook.MatchResult) {
	s.hub.Publish(websocket.TradeMatched{
		MarketID: outcomeID,
		Price:    m.Price.String(),
		Quantity: m.Quantity.String(),
		Side:     "Sell",
	})
	qty, _ := m.Quantity.Dec().Float64()
	value, _ := m.Price.Mul(m.Quantity).Dec().Float64()
	s.app.Metrics.RecordMatch(outcomeID, qty, value)
}
