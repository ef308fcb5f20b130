package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "BTC/USDT" {
		t.Errorf("Symbol = %q", cfg.Symbol)
	}
	if cfg.Timeframe != "15m" {
		t.Errorf("Timeframe = %q", cfg.Timeframe)
	}
	if cfg.WindowSize != 100 {
		t.Errorf("WindowSize = %d", cfg.WindowSize)
	}
	if cfg.CheckInterval != 5*time.Minute {
		t.Errorf("CheckInterval = %v", cfg.CheckInterval)
	}
	if !cfg.PaperTrading {
		t.Error("expected paper trading by default")
	}
	if cfg.InitialQuote != 10000.0 || cfg.AllocationPercent != 0.20 {
		t.Errorf("balance/allocation = %v/%v", cfg.InitialQuote, cfg.AllocationPercent)
	}
	if cfg.MaxTrades != 0 {
		t.Errorf("MaxTrades = %d, want 0 (unlimited)", cfg.MaxTrades)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SYMBOL", "ETH/USDT")
	t.Setenv("CHECK_INTERVAL", "30s")
	t.Setenv("MAX_TRADES", "10")
	t.Setenv("ALLOCATION_PERCENT", "0.5")
	t.Setenv("PAPER_TRADING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Symbol != "ETH/USDT" {
		t.Errorf("Symbol = %q", cfg.Symbol)
	}
	if cfg.CheckInterval != 30*time.Second {
		t.Errorf("CheckInterval = %v", cfg.CheckInterval)
	}
	if cfg.MaxTrades != 10 || cfg.AllocationPercent != 0.5 {
		t.Errorf("MaxTrades/Allocation = %d/%v", cfg.MaxTrades, cfg.AllocationPercent)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WINDOW_SIZE", "not-a-number")
	t.Setenv("CHECK_INTERVAL", "soon")
	t.Setenv("PAPER_TRADING", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WindowSize != 100 || cfg.CheckInterval != 5*time.Minute || !cfg.PaperTrading {
		t.Errorf("expected fallbacks, got %d/%v/%v",
			cfg.WindowSize, cfg.CheckInterval, cfg.PaperTrading)
	}
}

func TestLoad_IndicatorDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RSIPeriod != 14 || cfg.RSIOversold != 30 || cfg.RSIOverbought != 70 {
		t.Errorf("rsi = %d/%v/%v", cfg.RSIPeriod, cfg.RSIOversold, cfg.RSIOverbought)
	}
	if cfg.MACDFast != 12 || cfg.MACDSlow != 26 || cfg.MACDSignal != 9 {
		t.Errorf("macd = %d/%d/%d", cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	}
	if cfg.BBPeriod != 20 || cfg.BBStdDev != 2.0 || cfg.VolumePeriod != 20 {
		t.Errorf("bb/vol = %d/%v/%d", cfg.BBPeriod, cfg.BBStdDev, cfg.VolumePeriod)
	}
}

func TestLoad_MACDFastMustBeBelowSlow(t *testing.T) {
	t.Setenv("MACD_FAST", "30")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for fast period above slow")
	}
}

func TestLoad_RSIThresholdOrder(t *testing.T) {
	t.Setenv("RSI_OVERSOLD", "80")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for oversold above overbought")
	}
}

func TestLoad_WindowTooSmall(t *testing.T) {
	t.Setenv("WINDOW_SIZE", "20")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for window below signal minimum")
	}
}

func TestLoad_BadAllocation(t *testing.T) {
	t.Setenv("ALLOCATION_PERCENT", "1.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for allocation above 1")
	}
}

func TestLoad_LiveRequiresCredentials(t *testing.T) {
	t.Setenv("PAPER_TRADING", "false")
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for live mode without credentials")
	}

	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with credentials: %v", err)
	}
}
