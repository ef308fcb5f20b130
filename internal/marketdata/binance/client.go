// Package binance provides market data from the Binance spot REST and
// WebSocket APIs: candle windows, ticker prices, and a live price stream.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trading-botv1/internal/model"
)

const (
	// DefaultBaseURL is the Binance spot REST endpoint.
	DefaultBaseURL = "https://api.binance.com"

	// DefaultWSURL is the Binance spot WebSocket stream endpoint.
	DefaultWSURL = "wss://stream.binance.com:9443/ws"
)

// ClientConfig configures the REST client.
type ClientConfig struct {
	BaseURL             string
	Timeout             time.Duration
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
}

// Client fetches candles and ticker prices over REST. All exchange calls go
// through a circuit breaker so a flapping endpoint is rejected fast instead
// of hammered; the trading loop treats the rejection like any other fetch
// failure and skips the cycle.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *CircuitBreaker
	log     *slog.Logger
}

// NewClient creates a Binance REST market-data client.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerResetTimeout == 0 {
		cfg.BreakerResetTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	breaker := NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout)
	breaker.OnStateChange = func(from, to BreakerState) {
		log.Warn("exchange circuit breaker state change",
			"from", from.String(), "to", to.String())
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		log:     log,
	}
}

// FetchWindow returns the most recent `limit` candles, oldest first.
func (c *Client) FetchWindow(ctx context.Context, symbol, timeframe string, limit int) (model.Window, error) {
	var window model.Window
	err := c.breaker.Execute(func() error {
		w, err := c.fetchKlines(ctx, symbol, timeframe, limit)
		if err != nil {
			return err
		}
		window = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return window, nil
}

// FetchLastPrice returns the latest traded price for the symbol.
func (c *Client) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := c.breaker.Execute(func() error {
		p, err := c.fetchTicker(ctx, symbol)
		if err != nil {
			return err
		}
		price = p
		return nil
	})
	if err != nil {
		return 0, err
	}
	return price, nil
}

func (c *Client) fetchKlines(ctx context.Context, symbol, timeframe string, limit int) (model.Window, error) {
	q := url.Values{}
	q.Set("symbol", StreamSymbol(symbol))
	q.Set("interval", timeframe)
	q.Set("limit", strconv.Itoa(limit))

	var rows [][]any
	if err := c.getJSON(ctx, "/api/v3/klines?"+q.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("fetch klines: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fetch klines: empty response for %s", symbol)
	}

	window := make(model.Window, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("fetch klines: row %d: %w", i, err)
		}
		window = append(window, candle)
	}
	if !window.Ordered() {
		return nil, fmt.Errorf("fetch klines: timestamps not strictly increasing")
	}
	return window, nil
}

func (c *Client) fetchTicker(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", StreamSymbol(symbol))

	var payload struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.getJSON(ctx, "/api/v3/ticker/price?"+q.Encode(), &payload); err != nil {
		return 0, fmt.Errorf("fetch ticker: %w", err)
	}
	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker: bad price %q: %w", payload.Price, err)
	}
	return price, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseKline converts one Binance kline row:
// [openTime, open, high, low, close, volume, closeTime, ...]
func parseKline(row []any) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("short kline row (%d fields)", len(row))
	}
	openTime, err := fieldInt64(row[0])
	if err != nil {
		return model.Candle{}, fmt.Errorf("open time: %w", err)
	}
	var vals [5]float64
	for i := 0; i < 5; i++ {
		v, err := fieldFloat(row[i+1])
		if err != nil {
			return model.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return model.Candle{
		TS:     time.UnixMilli(openTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func fieldFloat(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(x, 64)
	case float64:
		return x, nil
	case json.Number:
		return x.Float64()
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func fieldInt64(v any) (int64, error) {
	f, err := fieldFloat(v)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// StreamSymbol normalizes "BTC/USDT" to Binance's "BTCUSDT" form.
func StreamSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}
