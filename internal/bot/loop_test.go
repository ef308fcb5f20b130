package bot

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"trading-botv1/internal/indicator"
	"trading-botv1/internal/ledger"
	"trading-botv1/internal/model"
	"trading-botv1/internal/signal"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) (model.Window, error)
}

func (p *fakeProvider) FetchWindow(ctx context.Context, symbol, timeframe string, limit int) (model.Window, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()
	return p.fn(call)
}

func (p *fakeProvider) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, errors.New("not implemented")
}

type fakeEvaluator struct {
	sig signal.Signal
}

func (e *fakeEvaluator) Evaluate(snaps []indicator.Snapshot, month time.Month) signal.Signal {
	return e.sig
}

type fakeSink struct {
	mu     sync.Mutex
	calls  int
	bal    model.Balance
	trades []model.Trade
}

func (s *fakeSink) Persist(final model.Balance, trades []model.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.bal = final
	s.trades = trades
	return nil
}

type fakeExecutor struct {
	mu     sync.Mutex
	err    error
	side   model.Side
	amount float64
	calls  int
}

func (e *fakeExecutor) Submit(ctx context.Context, side model.Side, baseAmount, price float64) (model.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.side = side
	e.amount = baseAmount
	if e.err != nil {
		return model.Trade{}, e.err
	}
	return model.Trade{Side: side, Price: price, BaseAmount: baseAmount, QuoteValue: baseAmount * price}, nil
}

func testWindow(price float64) model.Window {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	w := make(model.Window, 60)
	for i := range w {
		w[i] = model.Candle{
			TS:     start.Add(time.Duration(i) * 15 * time.Minute),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 10,
		}
	}
	return w
}

func newTestLoop(cfg Config, deps Deps) *Loop {
	if cfg.Symbol == "" {
		cfg.Symbol = "BTC/USDT"
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "15m"
	}
	if !cfg.PaperTrading && deps.Executor == nil {
		cfg.PaperTrading = true
	}
	return New(cfg, deps)
}

func TestRunCycle_BuySignalTrades(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	l := newTestLoop(Config{}, Deps{
		Provider: &fakeProvider{fn: func(int) (model.Window, error) { return testWindow(50000), nil }},
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Buy},
	})

	l.runCycle(context.Background())

	bal := led.Balance()
	if math.Abs(bal.Quote-8000) > 1e-9 || math.Abs(bal.Base-0.04) > 1e-12 {
		t.Errorf("balance after BUY = %+v, want quote 8000 base 0.04", bal)
	}
	st := l.Status()
	if st.LastSignal != signal.Buy || st.LastPrice != 50000 || st.Cycles != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestRunCycle_HoldDoesNotTrade(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	l := newTestLoop(Config{}, Deps{
		Provider: &fakeProvider{fn: func(int) (model.Window, error) { return testWindow(50000), nil }},
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Hold},
	})

	l.runCycle(context.Background())

	if led.TradeCount() != 0 {
		t.Errorf("HOLD produced %d trades", led.TradeCount())
	}
}

func TestRunCycle_FetchFailureLeavesLedgerUntouched(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	provider := &fakeProvider{fn: func(call int) (model.Window, error) {
		if call == 1 {
			return testWindow(50000), nil
		}
		return nil, errors.New("exchange unreachable")
	}}
	l := newTestLoop(Config{}, Deps{
		Provider: provider,
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Buy},
	})

	l.runCycle(context.Background())
	after1 := led.Balance()

	l.runCycle(context.Background())
	after2 := led.Balance()

	if after1 != after2 {
		t.Errorf("failed fetch mutated ledger: %+v → %+v", after1, after2)
	}
	if st := l.Status(); st.Cycles != 2 {
		t.Errorf("cycles = %d, want 2", st.Cycles)
	}
}

func TestRunCycle_PanicRecovered(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	l := newTestLoop(Config{}, Deps{
		Provider: &fakeProvider{fn: func(int) (model.Window, error) { panic("provider exploded") }},
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Buy},
	})

	l.runCycle(context.Background()) // must not crash the test

	if led.TradeCount() != 0 {
		t.Error("panicked cycle must not trade")
	}
}

func TestRun_MaxTradesStopsAndPersists(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	sink := &fakeSink{}
	l := newTestLoop(Config{MaxTrades: 3, CheckInterval: time.Millisecond}, Deps{
		Provider: &fakeProvider{fn: func(int) (model.Window, error) { return testWindow(50000), nil }},
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Buy},
		Sink:     sink,
	})

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := led.TradeCount(); got != 3 {
		t.Errorf("trade count = %d, want 3", got)
	}
	if sink.calls != 1 {
		t.Errorf("sink persisted %d times, want exactly once", sink.calls)
	}
	if len(sink.trades) != 3 {
		t.Errorf("persisted %d trades, want 3", len(sink.trades))
	}
	if sink.bal != led.Balance() {
		t.Errorf("persisted balance %+v != ledger %+v", sink.bal, led.Balance())
	}
	if l.State() != StateStopped {
		t.Errorf("state = %s, want STOPPED", l.State())
	}
}

func TestRun_CancellationIsPrompt(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	sink := &fakeSink{}
	l := newTestLoop(Config{CheckInterval: time.Hour}, Deps{
		Provider: &fakeProvider{fn: func(int) (model.Window, error) { return testWindow(50000), nil }},
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Hold},
		Sink:     sink,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not interrupt the inter-cycle wait")
	}

	if sink.calls != 1 {
		t.Errorf("sink persisted %d times, want exactly once", sink.calls)
	}
	if l.State() != StateStopped {
		t.Errorf("state = %s, want STOPPED", l.State())
	}
}

func TestExecuteTrade_LiveSubmitFailureLeavesLedger(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	exec := &fakeExecutor{err: errors.New("order rejected")}
	l := New(Config{Symbol: "BTC/USDT", Timeframe: "15m", PaperTrading: false}, Deps{
		Provider: &fakeProvider{fn: func(int) (model.Window, error) { return testWindow(50000), nil }},
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Buy},
		Executor: exec,
	})

	l.runCycle(context.Background())

	if exec.calls != 1 {
		t.Fatalf("executor called %d times, want 1", exec.calls)
	}
	if led.TradeCount() != 0 {
		t.Error("rejected live order must leave the ledger untouched")
	}
}

func TestExecuteTrade_LiveSubmitMirroredInLedger(t *testing.T) {
	led := ledger.New(ledger.DefaultConfig())
	exec := &fakeExecutor{}
	l := New(Config{Symbol: "BTC/USDT", Timeframe: "15m", PaperTrading: false}, Deps{
		Provider: &fakeProvider{fn: func(int) (model.Window, error) { return testWindow(50000), nil }},
		Ledger:   led,
		Engine:   &fakeEvaluator{sig: signal.Buy},
		Executor: exec,
	})

	l.runCycle(context.Background())

	if exec.side != model.SideBuy {
		t.Errorf("executor side = %s, want BUY", exec.side)
	}
	if math.Abs(exec.amount-0.04) > 1e-12 {
		t.Errorf("executor amount = %v, want 0.04", exec.amount)
	}
	if led.TradeCount() != 1 {
		t.Errorf("ledger trades = %d, want 1", led.TradeCount())
	}
}
