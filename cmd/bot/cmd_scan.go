package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle and exit",
	Long: `Run a single scan cycle, persist the position book and deliver any
signals, then exit. Suitable for an external cron job.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.scanner.RunCycle(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cycle %s: %d exits, %d entries, %d held (regime checked=%t uptrend=%t)\n",
		report.ID, len(report.Exits), len(report.Entries), report.Held, report.RegimeChecked, report.Uptrend)
	for _, sig := range report.Signals() {
		fmt.Fprintln(out, "  "+plain(sig))
	}
	return nil
}
