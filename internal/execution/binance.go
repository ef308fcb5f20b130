// Package execution places real orders on the exchange. It is only wired
// in live mode; paper trading is handled entirely by the ledger.
package execution

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"trading-botv1/internal/model"
)

// DefaultBaseURL is the Binance spot REST endpoint for order placement.
const DefaultBaseURL = "https://api.binance.com"

// BinanceConfig configures the live order executor.
type BinanceConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Symbol     string // e.g. "BTC/USDT"
	Timeout    time.Duration
	RecvWindow time.Duration
}

// BinanceExecutor submits signed market orders to Binance spot.
// Each order carries a fresh UUID client order id so retries and fills
// can be correlated in the exchange's order history.
type BinanceExecutor struct {
	cfg    BinanceConfig
	symbol string
	http   *http.Client
	log    *slog.Logger
	now    func() time.Time
}

// NewBinanceExecutor creates a live executor. APIKey and APISecret must be set.
func NewBinanceExecutor(cfg BinanceConfig, log *slog.Logger) (*BinanceExecutor, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("binance executor: api key and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &BinanceExecutor{
		cfg:    cfg,
		symbol: strings.ToUpper(strings.ReplaceAll(cfg.Symbol, "/", "")),
		http:   &http.Client{Timeout: cfg.Timeout},
		log:    log,
		now:    time.Now,
	}, nil
}

// orderResponse is the subset of the Binance order ACK/FULL response we read.
type orderResponse struct {
	Symbol          string `json:"symbol"`
	OrderID         int64  `json:"orderId"`
	ClientOrderID   string `json:"clientOrderId"`
	TransactTime    int64  `json:"transactTime"`
	Status          string `json:"status"`
	ExecutedQty     string `json:"executedQty"`
	CumulativeQuote string `json:"cummulativeQuoteQty"`
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Submit places a market order for baseAmount and returns the executed
// trade. The price argument is the reference price from the candle window;
// the returned trade reflects the exchange's actual fill when available.
func (e *BinanceExecutor) Submit(ctx context.Context, side model.Side, baseAmount, price float64) (model.Trade, error) {
	params := url.Values{}
	params.Set("symbol", e.symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(baseAmount, 'f', 8, 64))
	params.Set("newClientOrderId", uuid.NewString())
	params.Set("newOrderRespType", "FULL")
	params.Set("recvWindow", strconv.FormatInt(e.cfg.RecvWindow.Milliseconds(), 10))
	params.Set("timestamp", strconv.FormatInt(e.now().UnixMilli(), 10))

	body := params.Encode()
	body += "&signature=" + e.sign(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.cfg.BaseURL+"/api/v3/order", strings.NewReader(body))
	if err != nil {
		return model.Trade{}, fmt.Errorf("submit order: %w", err)
	}
	req.Header.Set("X-MBX-APIKEY", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.http.Do(req)
	if err != nil {
		return model.Trade{}, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Trade{}, fmt.Errorf("submit order: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Msg != "" {
			return model.Trade{}, fmt.Errorf("submit order: exchange rejected (code %d): %s", apiErr.Code, apiErr.Msg)
		}
		return model.Trade{}, fmt.Errorf("submit order: exchange status %d", resp.StatusCode)
	}

	var order orderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		return model.Trade{}, fmt.Errorf("submit order: decode response: %w", err)
	}
	if order.Status != "FILLED" && order.Status != "PARTIALLY_FILLED" {
		return model.Trade{}, fmt.Errorf("submit order: unexpected status %q", order.Status)
	}

	trade := e.buildTrade(order, side, baseAmount, price)
	e.log.Info("order filled",
		"order_id", order.OrderID,
		"client_order_id", order.ClientOrderID,
		"side", trade.Side,
		"amount", trade.BaseAmount,
		"price", trade.Price)
	return trade, nil
}

// buildTrade derives the effective fill from the exchange response,
// falling back to the requested amounts when the response omits them.
func (e *BinanceExecutor) buildTrade(order orderResponse, side model.Side, baseAmount, price float64) model.Trade {
	ts := e.now().UTC()
	if order.TransactTime > 0 {
		ts = time.UnixMilli(order.TransactTime).UTC()
	}

	executed, _ := strconv.ParseFloat(order.ExecutedQty, 64)
	quote, _ := strconv.ParseFloat(order.CumulativeQuote, 64)
	if executed <= 0 {
		executed = baseAmount
	}
	if quote <= 0 {
		quote = executed * price
	}
	fillPrice := price
	if executed > 0 && quote > 0 {
		fillPrice = quote / executed
	}

	return model.Trade{
		TS:         ts,
		Side:       side,
		Price:      fillPrice,
		BaseAmount: executed,
		QuoteValue: quote,
	}
}

// sign computes the HMAC-SHA256 signature over the query string.
func (e *BinanceExecutor) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(e.cfg.APISecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
