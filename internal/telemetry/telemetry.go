// Package telemetry holds the process-wide Prometheus metrics collector.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds every predictionx metric.
type Collector struct {
	// Order metrics
	OrdersTotal   *prometheus.CounterVec
	OrderLatency  *prometheus.HistogramVec

	// Matching engine metrics
	MatchesTotal    *prometheus.CounterVec
	MatchingLatency *prometheus.HistogramVec
	OrderbookDepth  *prometheus.GaugeVec

	// Trade volume metrics
	TradeVolume *prometheus.CounterVec
	TradeValue  *prometheus.CounterVec

	// Copy-trading metrics
	ClearingTransactionsTotal *prometheus.CounterVec
	MirroredOrdersTotal       *prometheus.CounterVec

	// Settlement metrics
	SettlementTransactionsTotal *prometheus.CounterVec
	AlreadySettledTotal         *prometheus.CounterVec

	// Oracle / market-lifecycle metrics
	MarketsOpenedTotal *prometheus.CounterVec
	ActiveMarkets      *prometheus.GaugeVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec
}

// GetCollector returns the singleton metrics collector.
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

func newCollector() *Collector {
	c := &Collector{}

	c.OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "orders", Name: "total", Help: "Total number of orders submitted"},
		[]string{"outcome_id", "side", "status"},
	)
	c.OrderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "predictionx", Subsystem: "orders", Name: "latency_ms", Help: "ProcessOrder latency in milliseconds"},
		[]string{"outcome_id"},
	)

	c.MatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "matching", Name: "matches_total", Help: "Total number of matches produced"},
		[]string{"outcome_id"},
	)
	c.MatchingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "predictionx", Subsystem: "matching", Name: "latency_ms", Help: "MatchOrders latency in milliseconds"},
		[]string{"outcome_id"},
	)
	c.OrderbookDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "predictionx", Subsystem: "matching", Name: "orderbook_depth", Help: "Number of resting orders per side"},
		[]string{"outcome_id", "side"},
	)

	c.TradeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "trades", Name: "volume_total", Help: "Cumulative matched quantity"},
		[]string{"outcome_id"},
	)
	c.TradeValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "trades", Name: "value_total", Help: "Cumulative matched cash value"},
		[]string{"outcome_id"},
	)

	c.ClearingTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "copytrading", Name: "clearing_transactions_total", Help: "Clearing transactions posted by CopyTradingEngine"},
		[]string{"outcome_id"},
	)
	c.MirroredOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "copytrading", Name: "mirrored_orders_total", Help: "Orders produced by one-hop mirroring"},
		[]string{"outcome_id"},
	)

	c.SettlementTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "settlement", Name: "transactions_total", Help: "New Settlement transactions posted"},
		[]string{"outcome_id"},
	)
	c.AlreadySettledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "settlement", Name: "already_settled_total", Help: "SettleOutcome calls observing an already-settled clearing transaction"},
		[]string{"outcome_id"},
	)

	c.MarketsOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "oracle", Name: "markets_opened_total", Help: "Markets created by CreateMarketEvent"},
		[]string{"type"},
	)
	c.ActiveMarkets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "predictionx", Subsystem: "oracle", Name: "active_markets", Help: "Markets whose expiry has not passed"},
		[]string{"type"},
	)

	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "predictionx", Subsystem: "ws", Name: "connections_active", Help: "Active websocket connections"},
		[]string{},
	)
	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "ws", Name: "messages_total", Help: "Websocket messages published"},
		[]string{"topic"},
	)

	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "api", Name: "requests_total", Help: "HTTP requests served"},
		[]string{"method", "path", "status"},
	)
	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "predictionx", Subsystem: "api", Name: "request_latency_ms", Help: "HTTP request latency in milliseconds"},
		[]string{"method", "path"},
	)
	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "api", Name: "errors_total", Help: "HTTP 4xx/5xx responses"},
		[]string{"method", "path", "status"},
	)
	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "predictionx", Subsystem: "api", Name: "rate_limit_hits_total", Help: "Requests rejected by the rate limiter"},
		[]string{"path"},
	)

	c.register()
	return c
}

func (c *Collector) register() {
	prometheus.MustRegister(c.OrdersTotal)
	prometheus.MustRegister(c.OrderLatency)

	prometheus.MustRegister(c.MatchesTotal)
	prometheus.MustRegister(c.MatchingLatency)
	prometheus.MustRegister(c.OrderbookDepth)

	prometheus.MustRegister(c.TradeVolume)
	prometheus.MustRegister(c.TradeValue)

	prometheus.MustRegister(c.ClearingTransactionsTotal)
	prometheus.MustRegister(c.MirroredOrdersTotal)

	prometheus.MustRegister(c.SettlementTransactionsTotal)
	prometheus.MustRegister(c.AlreadySettledTotal)

	prometheus.MustRegister(c.MarketsOpenedTotal)
	prometheus.MustRegister(c.ActiveMarkets)

	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)

	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)
	prometheus.MustRegister(c.RateLimitHits)
}

// ============ Recording Helpers ============

func (c *Collector) RecordOrder(outcomeID, side, status string) {
	c.OrdersTotal.WithLabelValues(outcomeID, side, status).Inc()
}

func (c *Collector) RecordOrderLatency(outcomeID string, latencyMs float64) {
	c.OrderLatency.WithLabelValues(outcomeID).Observe(latencyMs)
}

func (c *Collector) RecordMatch(outcomeID string, volume, value float64) {
	c.MatchesTotal.WithLabelValues(outcomeID).Inc()
	c.TradeVolume.WithLabelValues(outcomeID).Add(volume)
	c.TradeValue.WithLabelValues(outcomeID).Add(value)
}

func (c *Collector) RecordMatchingLatency(outcomeID string, latencyMs float64) {
	c.MatchingLatency.WithLabelValues(outcomeID).Observe(latencyMs)
}

func (c *Collector) RecordClearingTransaction(outcomeID string) {
	c.ClearingTransactionsTotal.WithLabelValues(outcomeID).Inc()
}

func (c *Collector) RecordMirroredOrder(outcomeID string) {
	c.MirroredOrdersTotal.WithLabelValues(outcomeID).Inc()
}

func (c *Collector) RecordSettlement(outcomeID string, newCount, alreadySettledCount int) {
	if newCount > 0 {
		c.SettlementTransactionsTotal.WithLabelValues(outcomeID).Add(float64(newCount))
	}
	if alreadySettledCount > 0 {
		c.AlreadySettledTotal.WithLabelValues(outcomeID).Add(float64(alreadySettledCount))
	}
}

func (c *Collector) RecordMarketOpened(marketType string) {
	c.MarketsOpenedTotal.WithLabelValues(marketType).Inc()
}

func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

func (c *Collector) RecordWSMessage(topic string) {
	c.WSMessagesTotal.WithLabelValues(topic).Inc()
}

// ============ HTTP Handler ============

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed latency for the Record*Latency helpers above.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer { return &Timer{start: time.Now()} }

func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
