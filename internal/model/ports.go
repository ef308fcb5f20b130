package model

import "context"

// ── Collaborator Port Interfaces ──
// These interfaces decouple the trading core from concrete exchange and
// persistence implementations. Each implementation satisfies one or more
// of these interfaces.

// MarketDataProvider supplies price history and ticker prices.
type MarketDataProvider interface {
	// FetchWindow returns the most recent `limit` candles for the symbol
	// at the given timeframe (e.g. "15m"), ordered oldest first.
	FetchWindow(ctx context.Context, symbol, timeframe string, limit int) (Window, error)

	// FetchLastPrice returns the latest traded price for the symbol.
	FetchLastPrice(ctx context.Context, symbol string) (float64, error)
}

// OrderExecutor submits real orders in live mode. Paper trading never
// touches an executor; the ledger alone records simulated fills.
type OrderExecutor interface {
	Submit(ctx context.Context, side Side, baseAmount, price float64) (Trade, error)
}

// ResultSink persists the final balances and trade history.
// Persist is called exactly once, at shutdown.
type ResultSink interface {
	Persist(final Balance, trades []Trade) error
}
