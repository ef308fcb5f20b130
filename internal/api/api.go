// Package api exposes the bot's state over HTTP using Gin.
//
// The package is organized as:
// - api.go: handler struct, dependencies, routing, server management
// - handler.go: HTTP request handlers
// - middleware.go: middleware functions
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trading-botv1/internal/bot"
	"trading-botv1/internal/model"
	"trading-botv1/internal/store/sqlite"
)

const (
	ServiceName         = "trading-bot"
	ServiceVersion      = "1.0.0"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"

	defaultTradesLimit = 50
	maxTradesLimit     = 500
)

// StatusSource reports the trading loop's current state.
type StatusSource interface {
	Status() bot.Status
}

// Portfolio reports balances and profitability.
type Portfolio interface {
	Balance() model.Balance
	MarkToMarket(price float64) float64
	PnL(price float64) (absolute, percent float64)
}

// TradeStore lists recorded trades, newest first.
type TradeStore interface {
	Trades(limit int) ([]sqlite.TradeRecord, error)
}

// Handler handles HTTP requests using the Gin framework.
type Handler struct {
	status    StatusSource
	portfolio Portfolio
	trades    TradeStore // optional
	logger    *slog.Logger
	server    *http.Server
}

// NewHandler creates an API handler. trades may be nil when no journal is
// configured; the trades endpoint then reports 503.
func NewHandler(status StatusSource, portfolio Portfolio, trades TradeStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		status:    status,
		portfolio: portfolio,
		trades:    trades,
		logger:    logger,
	}
}

// SetupRoutes configures all API routes.
func (h *Handler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.GET("/status", h.GetStatus)
	v1.GET("/portfolio", h.GetPortfolio)
	v1.GET("/trades", h.GetTrades)
	v1.GET("/signal", h.GetSignal)

	return router
}

// Start runs the HTTP server in the background.
func (h *Handler) Start(addr string) {
	h.server = &http.Server{Addr: addr, Handler: h.SetupRoutes()}
	go func() {
		h.logger.Info("api server listening", "addr", addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("api server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (h *Handler) Stop(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}
