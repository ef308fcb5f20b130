// Package metrics exposes Prometheus metrics and a health endpoint for the
// trading bot.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading loop.
type Metrics struct {
	CyclesTotal      prometheus.Counter
	FetchErrorsTotal prometheus.Counter
	CyclePanicsTotal prometheus.Counter

	TradesTotal         *prometheus.CounterVec // labels: side
	RejectedTradesTotal prometheus.Counter

	SignalState  prometheus.Gauge // -1=SELL, 0=HOLD, 1=BUY
	LastPrice    prometheus.Gauge
	QuoteBalance prometheus.Gauge
	BaseBalance  prometheus.Gauge
	MarkToMarket prometheus.Gauge
	PnL          prometheus.Gauge

	CycleDuration prometheus.Histogram
}

// New registers and returns all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Total trading cycles executed",
		}),
		FetchErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_fetch_errors_total",
			Help: "Total market data fetch failures (cycle skipped)",
		}),
		CyclePanicsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_cycle_panics_total",
			Help: "Total cycles recovered from an unexpected panic",
		}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bot_trades_total",
			Help: "Total executed trades by side",
		}, []string{"side"}),
		RejectedTradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bot_rejected_trades_total",
			Help: "Total trades rejected for being below minimum size",
		}),
		SignalState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bot_signal_state",
			Help: "Latest signal: -1=SELL, 0=HOLD, 1=BUY",
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bot_last_price",
			Help: "Latest observed close price",
		}),
		QuoteBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bot_quote_balance",
			Help: "Current quote balance",
		}),
		BaseBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bot_base_balance",
			Help: "Current base balance",
		}),
		MarkToMarket: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bot_mark_to_market",
			Help: "Portfolio value at the latest price",
		}),
		PnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bot_pnl",
			Help: "Absolute P&L vs the initial quote baseline",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bot_cycle_duration_seconds",
			Help:    "Duration of one trading cycle (fetch through trade)",
			Buckets: prometheus.DefBuckets,
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal, m.FetchErrorsTotal, m.CyclePanicsTotal,
		m.TradesTotal, m.RejectedTradesTotal,
		m.SignalState, m.LastPrice,
		m.QuoteBalance, m.BaseBalance, m.MarkToMarket, m.PnL,
		m.CycleDuration,
	)
	return m
}

// HealthStatus tracks liveness of the bot's collaborators.
type HealthStatus struct {
	mu sync.RWMutex

	MarketDataOK   bool      `json:"market_data_ok"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastCycleAt    time.Time `json:"last_cycle_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetMarketDataOK(v bool) {
	h.mu.Lock()
	h.MarketDataOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCycleAt(t time.Time) {
	h.mu.Lock()
	h.LastCycleAt = t
	h.mu.Unlock()
}

// ServeHTTP renders the health status as JSON.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h)
}

// Server serves /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
