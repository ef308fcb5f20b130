// Package bot runs the trading loop: fetch the latest price window, compute
// indicators, evaluate the signal, apply the trade against the ledger, wait,
// repeat. The loop is strictly sequential; no concurrent cycles ever touch
// the ledger.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"trading-botv1/internal/indicator"
	"trading-botv1/internal/ledger"
	"trading-botv1/internal/logger"
	"trading-botv1/internal/metrics"
	"trading-botv1/internal/model"
	"trading-botv1/internal/signal"
)

// State is the lifecycle state of the trading loop.
type State int32

const (
	StateRunning State = iota
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Evaluator turns indicator snapshots into a trading signal.
// *signal.Engine is the production implementation.
type Evaluator interface {
	Evaluate(snaps []indicator.Snapshot, month time.Month) signal.Signal
}

// TradePublisher pushes executed trades and cycle state to an external
// stream (e.g. Redis) for other consumers. Optional.
type TradePublisher interface {
	PublishTrade(ctx context.Context, trade model.Trade) error
	PublishState(ctx context.Context, price float64, sig signal.Signal, bal model.Balance) error
}

// Status is a point-in-time view of the loop for the status API.
type Status struct {
	State       string        `json:"state"`
	Cycles      int64         `json:"cycles"`
	TradeCount  int           `json:"trade_count"`
	LastSignal  signal.Signal `json:"last_signal"`
	LastPrice   float64       `json:"last_price"`
	LastCycleAt time.Time     `json:"last_cycle_at"`
}

// Config holds the loop's trading parameters.
type Config struct {
	Symbol        string
	Timeframe     string
	WindowSize    int           // candles fetched per cycle
	CheckInterval time.Duration // wait between cycles
	MaxTrades     int           // 0 = unlimited
	PaperTrading  bool
}

// Deps are the loop's collaborators. Provider, Ledger, Engine and Sink are
// required; the rest are optional.
type Deps struct {
	Provider  model.MarketDataProvider
	Ledger    *ledger.Ledger
	Engine    Evaluator
	Params    indicator.Params
	Sink      model.ResultSink
	Executor  model.OrderExecutor // live mode only
	Publisher TradePublisher
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus
	Log       *slog.Logger
	Now       func() time.Time // injectable clock for tests
}

// Loop is the trading loop state machine.
type Loop struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
	now  func() time.Time

	mu          sync.Mutex
	state       State
	cycles      int64
	lastSignal  signal.Signal
	lastPrice   float64
	lastCycleAt time.Time
}

// New creates a trading loop. The zero CheckInterval defaults to one minute,
// the zero WindowSize to 100 candles.
func New(cfg Config, deps Deps) *Loop {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 100
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Loop{
		cfg:        cfg,
		deps:       deps,
		log:        deps.Log,
		now:        deps.Now,
		lastSignal: signal.Hold,
	}
}

// Run executes trading cycles until ctx is cancelled or the max-trades
// limit is reached, then persists the final results. The shutdown path
// always runs, even if the last cycle failed.
func (l *Loop) Run(ctx context.Context) (err error) {
	l.setState(StateRunning)
	l.log.Info("trading loop started",
		"symbol", l.cfg.Symbol,
		"timeframe", l.cfg.Timeframe,
		"check_interval", l.cfg.CheckInterval.String(),
		"max_trades", l.cfg.MaxTrades,
		"paper_trading", l.cfg.PaperTrading,
	)

	defer func() {
		err = l.shutdown()
	}()

	for {
		if l.maxTradesReached() {
			l.log.Info("maximum trades reached, stopping", "max_trades", l.cfg.MaxTrades)
			return nil
		}
		if ctx.Err() != nil {
			l.log.Info("stop requested")
			return nil
		}

		l.runCycle(ctx)

		if l.maxTradesReached() {
			continue // skip the final wait
		}
		select {
		case <-ctx.Done():
		case <-time.After(l.cfg.CheckInterval):
		}
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Status returns a snapshot for the status API.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:       l.state.String(),
		Cycles:      l.cycles,
		TradeCount:  l.deps.Ledger.TradeCount(),
		LastSignal:  l.lastSignal,
		LastPrice:   l.lastPrice,
		LastCycleAt: l.lastCycleAt,
	}
}

// ObservePrice records an out-of-cycle price update (e.g. from the ticker
// stream) so mark-to-market stays current between cycles.
func (l *Loop) ObservePrice(price float64) {
	l.mu.Lock()
	l.lastPrice = price
	l.mu.Unlock()
	if l.deps.Metrics != nil {
		l.deps.Metrics.LastPrice.Set(price)
		l.deps.Metrics.MarkToMarket.Set(l.deps.Ledger.MarkToMarket(price))
	}
}

func (l *Loop) maxTradesReached() bool {
	return l.cfg.MaxTrades > 0 && l.deps.Ledger.TradeCount() >= l.cfg.MaxTrades
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// runCycle performs one fetch→indicators→signal→trade pass. Any panic is
// contained here: the cycle is logged and treated as HOLD, the loop lives on.
func (l *Loop) runCycle(ctx context.Context) {
	l.mu.Lock()
	l.cycles++
	cycle := l.cycles
	l.mu.Unlock()

	clog := logger.WithCycle(l.log, cycle)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			clog.Error("cycle panicked, treating as HOLD", "panic", r)
			if l.deps.Metrics != nil {
				l.deps.Metrics.CyclePanicsTotal.Inc()
			}
		}
	}()
	if l.deps.Metrics != nil {
		l.deps.Metrics.CyclesTotal.Inc()
		defer func() {
			l.deps.Metrics.CycleDuration.Observe(time.Since(start).Seconds())
		}()
	}

	window, err := l.deps.Provider.FetchWindow(ctx, l.cfg.Symbol, l.cfg.Timeframe, l.cfg.WindowSize)
	if err != nil {
		clog.Warn("market data fetch failed, skipping cycle", "error", err)
		if l.deps.Metrics != nil {
			l.deps.Metrics.FetchErrorsTotal.Inc()
		}
		if l.deps.Health != nil {
			l.deps.Health.SetMarketDataOK(false)
		}
		return
	}
	if l.deps.Health != nil {
		l.deps.Health.SetMarketDataOK(true)
		l.deps.Health.SetLastCycleAt(time.Now())
	}

	last, ok := window.Last()
	if !ok {
		clog.Warn("empty price window, skipping cycle")
		return
	}
	price := last.Close

	snaps := indicator.Compute(window, l.deps.Params)
	sig := l.deps.Engine.Evaluate(snaps, l.now().Month())
	l.recordCycle(price, sig)
	clog.Info("cycle evaluated", "price", price, "signal", sig, "candles", len(window))

	if l.deps.Publisher != nil {
		if perr := l.deps.Publisher.PublishState(ctx, price, sig, l.deps.Ledger.Balance()); perr != nil {
			clog.Warn("state publish failed", "error", perr)
		}
	}

	if sig == signal.Hold {
		return
	}
	l.executeTrade(ctx, clog, sig, price)
}

// executeTrade routes the signal through the live executor when configured,
// then mirrors the fill in the ledger. The ledger is only mutated after a
// successful submit, so a rejected live order leaves the books untouched.
func (l *Loop) executeTrade(ctx context.Context, clog *slog.Logger, sig signal.Signal, price float64) {
	if !l.cfg.PaperTrading && l.deps.Executor != nil {
		amount, err := l.deps.Ledger.Preview(sig, price)
		if err != nil {
			l.warnRejected(clog, err)
			return
		}
		side := model.SideBuy
		if sig == signal.Sell {
			side = model.SideSell
		}
		if _, err := l.deps.Executor.Submit(ctx, side, amount, price); err != nil {
			clog.Error("order submit failed, ledger unchanged", "error", err)
			return
		}
	}

	trade, err := l.deps.Ledger.ApplyTrade(sig, price, l.now())
	if err != nil {
		l.warnRejected(clog, err)
		return
	}
	if trade == nil {
		return
	}

	clog.Info("trade executed",
		"side", trade.Side,
		"price", trade.Price,
		"amount", trade.BaseAmount,
		"value", trade.QuoteValue,
		"trade_count", l.deps.Ledger.TradeCount(),
	)
	if l.deps.Metrics != nil {
		l.deps.Metrics.TradesTotal.WithLabelValues(string(trade.Side)).Inc()
		l.updateGauges(price)
	}
	if l.deps.Publisher != nil {
		if perr := l.deps.Publisher.PublishTrade(ctx, *trade); perr != nil {
			clog.Warn("trade publish failed", "error", perr)
		}
	}
}

func (l *Loop) warnRejected(clog *slog.Logger, err error) {
	if errors.Is(err, ledger.ErrBelowMinQuote) || errors.Is(err, ledger.ErrBelowMinBase) {
		clog.Warn("trade rejected", "reason", err)
		if l.deps.Metrics != nil {
			l.deps.Metrics.RejectedTradesTotal.Inc()
		}
		return
	}
	clog.Error("trade failed", "error", err)
}

func (l *Loop) recordCycle(price float64, sig signal.Signal) {
	l.mu.Lock()
	l.lastPrice = price
	l.lastSignal = sig
	l.lastCycleAt = l.now()
	l.mu.Unlock()

	if l.deps.Metrics == nil {
		return
	}
	switch sig {
	case signal.Buy:
		l.deps.Metrics.SignalState.Set(1)
	case signal.Sell:
		l.deps.Metrics.SignalState.Set(-1)
	default:
		l.deps.Metrics.SignalState.Set(0)
	}
	l.updateGauges(price)
}

func (l *Loop) updateGauges(price float64) {
	bal := l.deps.Ledger.Balance()
	abs, _ := l.deps.Ledger.PnL(price)
	l.deps.Metrics.LastPrice.Set(price)
	l.deps.Metrics.QuoteBalance.Set(bal.Quote)
	l.deps.Metrics.BaseBalance.Set(bal.Base)
	l.deps.Metrics.MarkToMarket.Set(l.deps.Ledger.MarkToMarket(price))
	l.deps.Metrics.PnL.Set(abs)
}

// shutdown emits the final portfolio summary and persists results.
func (l *Loop) shutdown() error {
	l.setState(StateStopping)

	price := l.Status().LastPrice
	bal := l.deps.Ledger.Balance()
	trades := l.deps.Ledger.Trades()
	abs, pct := l.deps.Ledger.PnL(price)

	l.log.Info("final portfolio summary",
		"quote_balance", bal.Quote,
		"base_balance", bal.Base,
		"mark_to_market", l.deps.Ledger.MarkToMarket(price),
		"pnl", abs,
		"pnl_percent", pct,
		"total_trades", len(trades),
	)

	var err error
	if l.deps.Sink != nil {
		if err = l.deps.Sink.Persist(bal, trades); err != nil {
			l.log.Error("result persistence failed", "error", err)
		} else {
			l.log.Info("results persisted", "trades", len(trades))
		}
	}

	l.setState(StateStopped)
	return err
}
