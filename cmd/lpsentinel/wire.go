package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"LPSentinel/internal/collector"
	"LPSentinel/internal/config"
	"LPSentinel/internal/logger"
	"LPSentinel/internal/metrics"
	"LPSentinel/internal/monitor"
	"LPSentinel/internal/notifier"
	"LPSentinel/internal/recorder"
	"LPSentinel/internal/state"
)

const mainLog = logger.Component("main")

// app is the wired process. close releases what build opened.
type app struct {
	cfg      *config.Config
	monitor  *monitor.Monitor
	telegram *notifier.TelegramNotifier
	metrics  *metrics.Metrics
	recorder recorder.Recorder
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		mainLog.L().Warn().Err(err).Msg("close recorder")
	}
}

// build wires every collaborator from config. With dryRun nothing is
// delivered or recorded.
func build(cfg *config.Config, dryRun bool) (*app, error) {
	a := &app{cfg: cfg, recorder: recorder.NewNoopRecorder()}

	source := collector.NewLlamaSource(collector.LlamaOptions{
		URL:       cfg.Source.URL,
		UserAgent: cfg.Source.UserAgent,
		ProxyURL:  cfg.Proxy,
		Timeout:   cfg.Source.Timeout,
		Attempts:  cfg.Source.Attempts,
		Backoff:   cfg.Source.Backoff,
	})
	mainLog.L().Info().Str("source", source.Name()).Str("preset", cfg.Preset).Msg("data source ready")

	var note notifier.Notifier = notifier.Discard{}
	if !dryRun {
		var targets notifier.Multi
		if cfg.Discord.WebhookURL != "" {
			targets = append(targets, notifier.NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Proxy))
		}
		if cfg.TelegramEnabled() {
			a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			targets = append(targets, a.telegram)
		}
		if len(targets) > 0 {
			note = notifier.WithRetry(targets, 2, 2*time.Second)
		}
	}

	var store state.Store
	switch cfg.State.Backend {
	case "redis":
		r := cfg.State.Redis
		store = state.NewRedisStore(r.Addr, r.Password, r.DB, r.Key)
	default:
		store = state.NewFileStore(cfg.State.Path)
	}

	var oracle collector.PriceOracle
	if cfg.Profile.Divergence.Enabled {
		oracle = collector.NewCoinGeckoOracle(collector.CoinGeckoOptions{
			URL:       cfg.Oracle.URL,
			IDs:       cfg.Oracle.IDs,
			ProxyURL:  cfg.Proxy,
			CacheTTL:  cfg.Oracle.CacheTTL,
			RateLimit: rate.Every(cfg.Oracle.MinInterval),
		})
	}

	if !dryRun && cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			mainLog.L().Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}

	if !dryRun && cfg.Metrics.Addr != "" {
		a.metrics = metrics.New()
	}

	mon, err := monitor.New(cfg.Profile, monitor.Deps{
		Source:   source,
		Notifier: note,
		Store:    store,
		Oracle:   oracle,
		Recorder: a.recorder,
		Metrics:  a.metrics,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.monitor = mon
	return a, nil
}

// serveMetrics runs the /metrics endpoint until ctx ends.
func (a *app) serveMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	go func() {
		mainLog.L().Info().Str("addr", srv.Addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLog.L().Error().Err(err).Msg("metrics server")
		}
	}()
}
