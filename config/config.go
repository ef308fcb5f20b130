package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Trading
	Symbol            string
	Timeframe         string
	WindowSize        int
	CheckInterval     time.Duration
	MaxTrades         int // 0 = unlimited
	PaperTrading      bool
	InitialQuote      float64
	AllocationPercent float64
	MinQuoteValue     float64
	MinBaseAmount     float64

	// Indicators
	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64
	MACDFast      int
	MACDSlow      int
	MACDSignal    int
	BBPeriod      int
	BBStdDev      float64
	VolumePeriod  int

	// Exchange
	BinanceBaseURL   string
	BinanceWSURL     string
	BinanceAPIKey    string
	BinanceAPISecret string
	StreamEnabled    bool

	// Infrastructure
	RedisAddr     string // empty disables the publisher
	RedisPassword string
	RedisDB       int
	SQLitePath    string
	ResultsPath   string
	MetricsAddr   string
	APIAddr       string // empty disables the status API

	// Logging
	LogLevel string
}

// Load reads configuration from a .env file (if present) and the
// environment, with sensible defaults.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := &Config{
		Symbol:            getEnv("SYMBOL", "BTC/USDT"),
		Timeframe:         getEnv("TIMEFRAME", "15m"),
		WindowSize:        getInt("WINDOW_SIZE", 100),
		CheckInterval:     getDuration("CHECK_INTERVAL", 5*time.Minute),
		MaxTrades:         getInt("MAX_TRADES", 0),
		PaperTrading:      getBool("PAPER_TRADING", true),
		InitialQuote:      getFloat("INITIAL_BALANCE", 10000.0),
		AllocationPercent: getFloat("ALLOCATION_PERCENT", 0.20),
		MinQuoteValue:     getFloat("MIN_TRADE_VALUE", 10.0),
		MinBaseAmount:     getFloat("MIN_TRADE_AMOUNT", 0.0001),

		RSIPeriod:     getInt("RSI_PERIOD", 14),
		RSIOversold:   getFloat("RSI_OVERSOLD", 30),
		RSIOverbought: getFloat("RSI_OVERBOUGHT", 70),
		MACDFast:      getInt("MACD_FAST", 12),
		MACDSlow:      getInt("MACD_SLOW", 26),
		MACDSignal:    getInt("MACD_SIGNAL", 9),
		BBPeriod:      getInt("BB_PERIOD", 20),
		BBStdDev:      getFloat("BB_STDDEV", 2.0),
		VolumePeriod:  getInt("VOLUME_PERIOD", 20),

		BinanceBaseURL:   getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		BinanceWSURL:     getEnv("BINANCE_WS_URL", "wss://stream.binance.com:9443/ws"),
		BinanceAPIKey:    getEnv("BINANCE_API_KEY", ""),
		BinanceAPISecret: getEnv("BINANCE_API_SECRET", ""),
		StreamEnabled:    getBool("STREAM_ENABLED", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "data/trades.db"),
		ResultsPath:   getEnv("RESULTS_PATH", "trading_results.json"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		APIAddr:       getEnv("API_ADDR", ":8080"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("config: SYMBOL must not be empty")
	}
	if c.WindowSize < 50 {
		return fmt.Errorf("config: WINDOW_SIZE must be at least 50, got %d", c.WindowSize)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("config: CHECK_INTERVAL must be positive")
	}
	if c.AllocationPercent <= 0 || c.AllocationPercent > 1 {
		return fmt.Errorf("config: ALLOCATION_PERCENT must be in (0, 1], got %v", c.AllocationPercent)
	}
	if c.InitialQuote <= 0 {
		return fmt.Errorf("config: INITIAL_BALANCE must be positive, got %v", c.InitialQuote)
	}
	if c.MaxTrades < 0 {
		return fmt.Errorf("config: MAX_TRADES must not be negative, got %d", c.MaxTrades)
	}
	if c.RSIPeriod <= 0 || c.MACDFast <= 0 || c.MACDSlow <= 0 || c.MACDSignal <= 0 ||
		c.BBPeriod <= 0 || c.VolumePeriod <= 0 {
		return fmt.Errorf("config: indicator periods must be positive")
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("config: MACD_FAST must be below MACD_SLOW, got %d/%d", c.MACDFast, c.MACDSlow)
	}
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("config: RSI_OVERSOLD must be below RSI_OVERBOUGHT, got %v/%v", c.RSIOversold, c.RSIOverbought)
	}
	if !c.PaperTrading && (c.BinanceAPIKey == "" || c.BinanceAPISecret == "") {
		return fmt.Errorf("config: live trading requires BINANCE_API_KEY and BINANCE_API_SECRET")
	}
	return nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
