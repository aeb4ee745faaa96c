package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"BreakoutSentinel/internal/httpapi"
	"BreakoutSentinel/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scanner on its schedule until interrupted",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log.Info().Msg("BreakoutSentinel starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewScheduler(ctx, a.scanner)
	if err := sched.RegisterScan(cfg.Schedule.ScanCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	var api *httpapi.Server
	if cfg.HTTP.Addr != "" {
		api = httpapi.NewServer(cfg.HTTP.Addr, a.scanner, a.recorder, a.metrics.Registry)
		go func() {
			if err := api.Start(); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	if a.telegram != nil && cfg.Telegram.Polling {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	a.scanner.AnnounceStartup(ctx)

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, executing scan now")
		sched.RunInBackground()
	}

	log.Info().Str("schedule", cfg.Schedule.ScanCron).Strs("watchlist", cfg.Watchlist).Msg("BreakoutSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	if api != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}
	log.Info().Msg("BreakoutSentinel stopped")
	return nil
}
