// Package redis publishes trades and cycle state to Redis so dashboards
// and other consumers can follow the bot live. The publisher is optional;
// the trading loop runs unchanged without it.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"trading-botv1/internal/model"
	"trading-botv1/internal/signal"
)

const (
	tradeStream      = "bot:trades"
	tradeStreamMax   = 10000
	latestPriceKey   = "bot:latest:price"
	latestSignalKey  = "bot:latest:signal"
	latestBalanceKey = "bot:latest:balance"
	defaultLatestTTL = 30 * time.Minute
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes trades to a capped Redis stream and mirrors the latest
// price, signal, and balances into TTL'd keys.
type Publisher struct {
	client *goredis.Client
	log    *slog.Logger
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("redis connected", "addr", cfg.Addr)
	return &Publisher{client: client, log: log}, nil
}

// PublishTrade appends the trade to the trade stream and announces it on
// the pubsub channel.
func (p *Publisher) PublishTrade(ctx context.Context, trade model.Trade) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	jsonData := string(data)

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: tradeStream,
		MaxLen: tradeStreamMax,
		Approx: true,
		Values: map[string]interface{}{"data": jsonData},
	})
	pipe.Publish(ctx, "pub:"+tradeStream, jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish trade: %w", err)
	}
	return nil
}

// stateSnapshot is the JSON mirrored into the latest-balance key.
type stateSnapshot struct {
	Price   float64       `json:"price"`
	Signal  signal.Signal `json:"signal"`
	Balance model.Balance `json:"balance"`
	TS      time.Time     `json:"ts"`
}

// PublishState mirrors the latest price, signal, and balances into TTL'd
// keys so a consumer can read current state without replaying the stream.
func (p *Publisher) PublishState(ctx context.Context, price float64, sig signal.Signal, bal model.Balance) error {
	snap, err := json.Marshal(stateSnapshot{
		Price: price, Signal: sig, Balance: bal, TS: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, latestPriceKey, price, defaultLatestTTL)
	pipe.Set(ctx, latestSignalKey, string(sig), defaultLatestTTL)
	pipe.Set(ctx, latestBalanceKey, string(snap), defaultLatestTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
