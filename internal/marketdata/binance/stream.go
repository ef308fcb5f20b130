package binance

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Stream subscribes to the Binance miniTicker WebSocket stream for one
// symbol and invokes OnPrice for every update. It reconnects with capped
// exponential backoff until the context is cancelled. Used to keep
// mark-to-market current between trading cycles; the trading loop itself
// never depends on the stream.
type Stream struct {
	endpoint string
	log      *slog.Logger

	// OnPrice receives each close price update. Required.
	OnPrice func(price float64)

	// OnReconnect is invoked before each reconnection attempt (optional).
	OnReconnect func()
}

// miniTicker is the subset of the Binance miniTicker payload we read.
type miniTicker struct {
	Event  string `json:"e"`
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// NewStream creates a miniTicker stream for the symbol (e.g. "BTC/USDT").
func NewStream(wsURL, symbol string, log *slog.Logger) *Stream {
	if wsURL == "" {
		wsURL = DefaultWSURL
	}
	if log == nil {
		log = slog.Default()
	}
	endpoint := strings.TrimRight(wsURL, "/") + "/" + strings.ToLower(StreamSymbol(symbol)) + "@miniTicker"
	return &Stream{endpoint: endpoint, log: log}
}

// Run connects and consumes ticker updates until ctx is cancelled.
func (s *Stream) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.endpoint, nil)
		if err != nil {
			s.log.Warn("ticker stream dial failed", "endpoint", s.endpoint, "error", err)
		} else {
			s.log.Info("ticker stream connected", "endpoint", s.endpoint)
			backoff = time.Second
			s.consume(ctx, conn)
		}

		if s.OnReconnect != nil {
			s.OnReconnect()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// consume reads messages until the connection breaks or ctx is cancelled.
func (s *Stream) consume(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("ticker stream read failed", "error", err)
			}
			return
		}

		var tick miniTicker
		if err := json.Unmarshal(msg, &tick); err != nil {
			s.log.Warn("ticker stream parse failed", "error", err)
			continue
		}
		price, err := strconv.ParseFloat(tick.Close, 64)
		if err != nil || price <= 0 {
			continue
		}
		if s.OnPrice != nil {
			s.OnPrice(price)
		}
	}
}
