package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"BreakoutSentinel/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "Breakout signal scanner",
	Long: `BreakoutSentinel scans a watchlist for base-and-handle breakouts confirmed
by volume and relative strength, tracks simulated positions to their stop or
target, and posts advisory signals to Slack or Telegram. It never places orders.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to the YAML config (env CONFIG_PATH)")
	rootCmd.AddCommand(runCmd, scanCmd, positionsCmd, historyCmd, pivotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path, loads and validates it, and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if v := os.Getenv("CONFIG_PATH"); v != "" && !cmd.Flags().Changed("config") {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	setupLogging(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
