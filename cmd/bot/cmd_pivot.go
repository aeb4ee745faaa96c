package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"BreakoutSentinel/internal/strategy"
)

var pivotCmd = &cobra.Command{
	Use:   "pivot TICKER...",
	Short: "Show the base-and-handle pivot and entry verdict for tickers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPivot,
}

func runPivot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	for _, arg := range args {
		ticker := strings.ToUpper(arg)
		series, err := a.feed.FetchDaily(ctx, ticker)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", ticker, err)
			continue
		}
		pivot, weeks, ok := strategy.SetupPivot(series.DailyBars, cfg.Strategy.Pattern)
		if !ok {
			fmt.Fprintf(out, "%s: no base-and-handle in %d completed weeks (close %.2f)\n", ticker, weeks, series.Last().Close)
			continue
		}
		fmt.Fprintf(out, "%s: pivot %.2f, buy zone (%.2f, %.2f], close %.2f\n",
			ticker, pivot, pivot, pivot*(1+cfg.Strategy.BuyWindow), series.Last().Close)

		entry, err := strategy.EvaluateEntry(series, cfg.Strategy, time.Now())
		switch {
		case err == nil:
			fmt.Fprintf(out, "  entry qualifies: %s\n", plain(entry.Signal))
		case errors.Is(err, strategy.ErrNotQualified):
			fmt.Fprintf(out, "  no entry: %v\n", err)
		default:
			fmt.Fprintf(out, "  check failed at %s: %v\n", strategy.StageOf(err), err)
		}
	}
	return nil
}
