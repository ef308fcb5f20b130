package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"version":   ServiceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStatus handles GET /api/v1/status requests.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status())
}

// GetPortfolio handles GET /api/v1/portfolio requests.
func (h *Handler) GetPortfolio(c *gin.Context) {
	st := h.status.Status()
	bal := h.portfolio.Balance()

	resp := gin.H{
		"balance":    bal,
		"last_price": st.LastPrice,
	}
	if st.LastPrice > 0 {
		abs, pct := h.portfolio.PnL(st.LastPrice)
		resp["mark_to_market"] = h.portfolio.MarkToMarket(st.LastPrice)
		resp["pnl"] = abs
		resp["pnl_percent"] = pct
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrades handles GET /api/v1/trades requests.
func (h *Handler) GetTrades(c *gin.Context) {
	if h.trades == nil {
		h.handleError(c, nil, http.StatusServiceUnavailable, "trade journal not configured")
		return
	}

	limit := defaultTradesLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.handleError(c, err, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxTradesLimit {
			n = maxTradesLimit
		}
		limit = n
	}

	trades, err := h.trades.Trades(limit)
	if err != nil {
		h.handleError(c, err, http.StatusInternalServerError, "internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

// GetSignal handles GET /api/v1/signal requests.
func (h *Handler) GetSignal(c *gin.Context) {
	st := h.status.Status()
	c.JSON(http.StatusOK, gin.H{
		"signal":        st.LastSignal,
		"last_price":    st.LastPrice,
		"last_cycle_at": st.LastCycleAt,
	})
}

// handleError logs the error and sends the HTTP response.
func (h *Handler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestID := "unknown"
	if id, ok := c.Get(RequestIDContextKey); ok {
		if s, ok := id.(string); ok {
			requestID = s
		}
	}

	attrs := []any{
		slog.String("request_id", requestID),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status_code", statusCode),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger.Error("api error", attrs...)

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": requestID,
	})
}
