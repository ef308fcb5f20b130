package model

import "time"

// Side represents the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade represents one executed (or simulated) trade.
// Trades are append-only; once recorded they are never modified.
type Trade struct {
	TS         time.Time `json:"timestamp"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	BaseAmount float64   `json:"amount"` // e.g. BTC bought or sold
	QuoteValue float64   `json:"value"`  // BaseAmount * Price at execution
}

// Balance holds the quote and base balances of the portfolio
// (e.g. USDT and BTC). Never negative.
type Balance struct {
	Quote float64 `json:"quote"`
	Base  float64 `json:"base"`
}
