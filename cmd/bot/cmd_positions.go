package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
)

var historyLimit int

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List open simulated positions",
	RunE:  runPositions,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent signals from the SQLite history",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of signals to show")
}

func plain(sig model.Signal) string { return notifier.FormatPlain(sig) }

func runPositions(cmd *cobra.Command, _ []string) error {
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

	book, err := a.scanner.Positions(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(book) == 0 {
		fmt.Fprintln(out, "No open positions.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tENTRY\tPIVOT\tSTOP\tTARGET\tOPENED")
	now := time.Now()
	for _, t := range book.Tickers() {
		p := book[t]
		opened := "-"
		if !p.OpenedAt.IsZero() {
			opened = humanize.RelTime(p.OpenedAt, now, "ago", "from now")
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n", t, p.EntryPrice, p.PivotPrice, p.StopPrice, p.TargetPrice, opened)
	}
	return w.Flush()
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.recorder.RecentSignals(historyLimit)
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tTICKER\tPRICE\tDETAIL")
	for _, r := range recs {
		detail := fmt.Sprintf("pivot %.2f size %.1f%%", r.Pivot, r.SizePct)
		if r.Kind == model.KindExit {
			detail = fmt.Sprintf("%s %+.2f%%", r.Reason, r.GainPct)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", r.Timestamp.Local().Format("2006-01-02 15:04"), r.Kind, r.Ticker, r.Price, detail)
	}
	return w.Flush()
}
