// Package ledger tracks the simulated quote/base balances, applies trades
// against signals, and computes mark-to-market value and P&L.
//
// All mutation goes through ApplyTrade behind a single mutex: the trading
// loop is strictly sequential, but the status API reads balances
// concurrently, so every access is serialized.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"trading-botv1/internal/model"
	"trading-botv1/internal/signal"
)

var (
	// ErrBelowMinQuote rejects a BUY whose allocation is under the minimum
	// quote trade size. Balances stay unchanged.
	ErrBelowMinQuote = errors.New("insufficient quote balance for trade")

	// ErrBelowMinBase rejects a SELL whose allocation is under the minimum
	// base trade size. Balances stay unchanged.
	ErrBelowMinBase = errors.New("insufficient base balance for trade")
)

// Config holds the ledger's sizing rules.
type Config struct {
	InitialQuote       float64 // starting quote balance and P&L baseline
	AllocationFraction float64 // fraction of the current balance per trade
	MinQuoteTrade      float64 // minimum quote value of a BUY
	MinBaseTrade       float64 // minimum base amount of a SELL
}

// DefaultConfig returns the standard paper-trading setup: 10,000 quote,
// 20% allocation, 10.0 minimum quote trade, 0.0001 minimum base trade.
func DefaultConfig() Config {
	return Config{
		InitialQuote:       10000.0,
		AllocationFraction: 0.20,
		MinQuoteTrade:      10.0,
		MinBaseTrade:       0.0001,
	}
}

// Ledger holds the simulated balances and the append-only trade history.
type Ledger struct {
	mu     sync.Mutex
	cfg    Config
	quote  float64
	base   float64
	trades []model.Trade
}

// New creates a ledger with the configured initial quote balance and an
// empty base balance.
func New(cfg Config) *Ledger {
	return &Ledger{
		cfg:    cfg,
		quote:  cfg.InitialQuote,
		trades: make([]model.Trade, 0, 64),
	}
}

// ApplyTrade mutates the balances according to the signal at the given
// price and records the trade. HOLD is a no-op returning (nil, nil).
// A trade below the minimum size is rejected with ErrBelowMinQuote or
// ErrBelowMinBase and leaves the balances untouched.
//
// The allocation fraction always applies to the *current* balance, so
// repeated one-sided trades decay geometrically and never fully deplete
// either side.
func (l *Ledger) ApplyTrade(sig signal.Signal, price float64, ts time.Time) (*model.Trade, error) {
	if sig == signal.Hold {
		return nil, nil
	}
	if price <= 0 {
		return nil, fmt.Errorf("invalid trade price %v", price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var trade model.Trade
	switch sig {
	case signal.Buy:
		spend := l.quote * l.cfg.AllocationFraction
		if spend < l.cfg.MinQuoteTrade {
			return nil, fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinQuote, spend, l.cfg.MinQuoteTrade)
		}
		amount := spend / price
		l.base += amount
		l.quote -= spend
		trade = model.Trade{
			TS:         ts,
			Side:       model.SideBuy,
			Price:      price,
			BaseAmount: amount,
			QuoteValue: spend,
		}

	case signal.Sell:
		amount := l.base * l.cfg.AllocationFraction
		if amount < l.cfg.MinBaseTrade {
			return nil, fmt.Errorf("%w: %.6f < %.6f", ErrBelowMinBase, amount, l.cfg.MinBaseTrade)
		}
		received := amount * price
		l.quote += received
		l.base -= amount
		trade = model.Trade{
			TS:         ts,
			Side:       model.SideSell,
			Price:      price,
			BaseAmount: amount,
			QuoteValue: received,
		}

	default:
		return nil, fmt.Errorf("unknown signal %q", sig)
	}

	l.trades = append(l.trades, trade)
	return &trade, nil
}

// Preview returns the base amount a trade for this signal would move,
// applying the same minimum-size checks as ApplyTrade without mutating
// anything. Used by live mode to size the exchange order before the
// ledger mirrors the fill.
func (l *Ledger) Preview(sig signal.Signal, price float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("invalid trade price %v", price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch sig {
	case signal.Buy:
		spend := l.quote * l.cfg.AllocationFraction
		if spend < l.cfg.MinQuoteTrade {
			return 0, fmt.Errorf("%w: %.2f < %.2f", ErrBelowMinQuote, spend, l.cfg.MinQuoteTrade)
		}
		return spend / price, nil
	case signal.Sell:
		amount := l.base * l.cfg.AllocationFraction
		if amount < l.cfg.MinBaseTrade {
			return 0, fmt.Errorf("%w: %.6f < %.6f", ErrBelowMinBase, amount, l.cfg.MinBaseTrade)
		}
		return amount, nil
	default:
		return 0, fmt.Errorf("no trade for signal %q", sig)
	}
}

// Balance returns a snapshot of the current balances.
func (l *Ledger) Balance() model.Balance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.Balance{Quote: l.quote, Base: l.base}
}

// Trades returns a copy of the trade history, oldest first.
func (l *Ledger) Trades() []model.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]model.Trade, len(l.trades))
	copy(cp, l.trades)
	return cp
}

// TradeCount returns the number of recorded trades.
func (l *Ledger) TradeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}

// MarkToMarket returns the portfolio value at the given price:
// quote + base × price. Linear in price with slope = base.
func (l *Ledger) MarkToMarket(price float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.quote + l.base*price
}

// PnL returns the absolute and percentage profit/loss at the given price,
// relative to the initial quote baseline.
func (l *Ledger) PnL(price float64) (absolute, percent float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	absolute = l.quote + l.base*price - l.cfg.InitialQuote
	percent = absolute / l.cfg.InitialQuote * 100
	return absolute, percent
}
