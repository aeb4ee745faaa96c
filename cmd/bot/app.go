package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/collector"
	"BreakoutSentinel/internal/config"
	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/position"
	"BreakoutSentinel/internal/recorder"
	"BreakoutSentinel/internal/scanner"
	"BreakoutSentinel/internal/strategy"
)

// app holds every long-lived component built from the config.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	feed     *collector.Feed
	store    position.Store
	telegram *notifier.TelegramNotifier
	sink     notifier.Sink
	recorder recorder.Recorder
	scanner  *scanner.Scanner

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.NewMetrics()}

	var fetcher collector.Fetcher
	switch cfg.Feed.Source {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	guarded := collector.NewGuardedFetcher(fetcher, cfg.Feed.RateLimit, cfg.Feed.Burst)
	a.feed = collector.NewFeed(guarded, cfg.Feed.LookbackDays, cfg.Feed.Timeout, a.metrics)
	log.Info().Str("source", fetcher.Name()).Int("lookback_days", cfg.Feed.LookbackDays).Msg("price feed ready")

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	sinks := []notifier.Sink{notifier.LogSink{}}
	if cfg.Slack.WebhookURL != "" {
		sinks = append(sinks, notifier.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Proxy))
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sinks = append(sinks, a.telegram)
	}
	if len(sinks) == 1 {
		log.Warn().Msg("no slack webhook or telegram bot configured, signals go to the log only")
	}
	a.sink = notifier.NewMultiSink(a.metrics, sinks...)

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
			a.closers = append(a.closers, sr.Close)
		}
	}

	gate := strategy.NewRegimeGate(a.feed, cfg.Regime.Symbols, cfg.Regime.MAWindow)
	a.scanner = scanner.New(a.feed, gate, a.store, a.sink, a.recorder, a.metrics, cfg.Strategy, cfg.Watchlist)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (position.Store, error) {
	norm := position.Normalizer{StopPct: a.cfg.Strategy.StopPct, TargetPct: a.cfg.Strategy.TargetPct}
	switch a.cfg.Store.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Store.RedisAddr,
			Password: a.cfg.Store.RedisPassword,
			DB:       a.cfg.Store.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", a.cfg.Store.RedisAddr, err)
		}
		a.closers = append(a.closers, client.Close)
		log.Info().Str("addr", a.cfg.Store.RedisAddr).Str("key", a.cfg.Store.RedisKey).Msg("position store: redis")
		return position.NewRedisStore(client, a.cfg.Store.RedisKey, norm), nil
	default:
		log.Info().Str("path", a.cfg.Store.Path).Msg("position store: file")
		return position.NewFileStore(a.cfg.Store.Path, norm), nil
	}
}

// Close releases everything newApp opened, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}
