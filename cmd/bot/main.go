package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trading-botv1/config"
	"trading-botv1/internal/api"
	"trading-botv1/internal/bot"
	"trading-botv1/internal/execution"
	"trading-botv1/internal/indicator"
	"trading-botv1/internal/ledger"
	"trading-botv1/internal/logger"
	"trading-botv1/internal/marketdata/binance"
	"trading-botv1/internal/metrics"
	"trading-botv1/internal/model"
	"trading-botv1/internal/results"
	"trading-botv1/internal/signal"
	redisstore "trading-botv1/internal/store/redis"
	sqlitestore "trading-botv1/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("trading-bot", logger.ParseLevel("info")).Error("config load failed", "error", err)
		os.Exit(1)
	}

	log := logger.Init("trading-bot", logger.ParseLevel(cfg.LogLevel))
	log.Info("starting",
		"symbol", cfg.Symbol,
		"timeframe", cfg.Timeframe,
		"interval", cfg.CheckInterval.String(),
		"paper_trading", cfg.PaperTrading)

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Metrics & health ----
	prom := metrics.New()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- SQLite trade journal ----
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	journal, err := sqlitestore.NewJournal(cfg.SQLitePath, log)
	if err != nil {
		log.Error("sqlite init failed", "error", err)
		os.Exit(1)
	}
	defer journal.Close()
	health.SetSQLiteOK(true)

	// ---- Redis publisher (optional) ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = redisstore.New(redisstore.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
		if err != nil {
			log.Warn("redis init failed, continuing without redis", "error", err)
		} else {
			defer publisher.Close()
			health.SetRedisConnected(true)
		}
	}

	// ---- Market data ----
	client := binance.NewClient(binance.ClientConfig{BaseURL: cfg.BinanceBaseURL}, log)

	// ---- Live order executor ----
	var executor model.OrderExecutor
	if !cfg.PaperTrading {
		exec, err := execution.NewBinanceExecutor(execution.BinanceConfig{
			BaseURL:   cfg.BinanceBaseURL,
			APIKey:    cfg.BinanceAPIKey,
			APISecret: cfg.BinanceAPISecret,
			Symbol:    cfg.Symbol,
		}, log)
		if err != nil {
			log.Error("executor init failed", "error", err)
			os.Exit(1)
		}
		executor = exec
		log.Warn("live trading enabled, orders will hit the exchange")
	}

	// ---- Core ----
	book := ledger.New(ledger.Config{
		InitialQuote:       cfg.InitialQuote,
		AllocationFraction: cfg.AllocationPercent,
		MinQuoteTrade:      cfg.MinQuoteValue,
		MinBaseTrade:       cfg.MinBaseAmount,
	})

	sink := results.MultiSink{
		results.NewFileSink(cfg.ResultsPath, log),
		journal,
	}

	loop := bot.New(bot.Config{
		Symbol:        cfg.Symbol,
		Timeframe:     cfg.Timeframe,
		WindowSize:    cfg.WindowSize,
		CheckInterval: cfg.CheckInterval,
		MaxTrades:     cfg.MaxTrades,
		PaperTrading:  cfg.PaperTrading,
	}, bot.Deps{
		Provider: client,
		Ledger:   book,
		Engine:   signal.NewEngine(cfg.RSIOversold, cfg.RSIOverbought),
		Params: indicator.Params{
			RSIPeriod:    cfg.RSIPeriod,
			MACDFast:     cfg.MACDFast,
			MACDSlow:     cfg.MACDSlow,
			MACDSignal:   cfg.MACDSignal,
			BBPeriod:     cfg.BBPeriod,
			BBStdDev:     cfg.BBStdDev,
			VolumePeriod: cfg.VolumePeriod,
		},
		Sink:      sink,
		Executor:  executor,
		Publisher: newPublisher(journal, publisher),
		Metrics:   prom,
		Health:    health,
		Log:       log,
	})

	// ---- Live price stream ----
	if cfg.StreamEnabled {
		stream := binance.NewStream(cfg.BinanceWSURL, cfg.Symbol, log)
		stream.OnPrice = loop.ObservePrice
		go stream.Run(ctx)
	}

	// ---- Status API ----
	var apiSrv *api.Handler
	if cfg.APIAddr != "" {
		apiSrv = api.NewHandler(loop, book, journal, log)
		apiSrv.Start(cfg.APIAddr)
	}

	// ---- Run ----
	if err := loop.Run(ctx); err != nil {
		log.Error("trading loop failed", "error", err)
	}

	// ---- Shutdown ----
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if apiSrv != nil {
		apiSrv.Stop(shutdownCtx)
	}
	metricsSrv.Stop(shutdownCtx)
	log.Info("stopped")
}

// journalPublisher records each trade in the SQLite journal and, when
// Redis is configured, mirrors trades and cycle state there as well.
type journalPublisher struct {
	journal *sqlitestore.Journal
	redis   *redisstore.Publisher
}

func newPublisher(journal *sqlitestore.Journal, redis *redisstore.Publisher) bot.TradePublisher {
	return &journalPublisher{journal: journal, redis: redis}
}

func (p *journalPublisher) PublishTrade(ctx context.Context, trade model.Trade) error {
	var errs []error
	if err := p.journal.RecordTrade(trade); err != nil {
		errs = append(errs, err)
	}
	if p.redis != nil {
		if err := p.redis.PublishTrade(ctx, trade); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *journalPublisher) PublishState(ctx context.Context, price float64, sig signal.Signal, bal model.Balance) error {
	if p.redis == nil {
		return nil
	}
	return p.redis.PublishState(ctx, price, sig, bal)
}
