package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"BreakoutSentinel/internal/model"
)

// FormatSlack renders a signal in Slack mrkdwn.
func FormatSlack(sig model.Signal) string {
	switch s := sig.(type) {
	case model.EntrySignal:
		return fmt.Sprintf("*BUY* %s\n"+
			"Entry: %.2f, Pivot: %.2f, Stop: %.2f, Target: %.2f\n"+
			"Vol Ratio: %.2f, RS(1w): %.1f, RS(6m): %.1f, Size: %.2f%%",
			s.Ticker, s.Entry, s.Pivot, s.Stop, s.Target, s.VolRatio, s.RSShort, s.RSLong, s.SizePct)
	case model.ExitSignal:
		return fmt.Sprintf("*SELL* %s\nReason: %s\nExit: %.2f, Entry: %.2f, Gain: %.2f%%",
			s.Ticker, s.Reason, s.ExitPrice, s.Entry, s.GainPct)
	case model.StartupSignal:
		return fmt.Sprintf(":robot_face: Breakout scanner started. Watching %d tickers, %d positions open.",
			len(s.Watchlist), s.Held)
	}
	return FormatPlain(sig)
}

// FormatTelegram renders a signal as Telegram HTML.
func FormatTelegram(sig model.Signal) string {
	var b strings.Builder
	switch s := sig.(type) {
	case model.EntrySignal:
		b.WriteString(fmt.Sprintf("🚀 <b>BUY %s</b>\n\n", html.EscapeString(s.Ticker)))
		b.WriteString(fmt.Sprintf("Entry: %.2f | Pivot: %.2f\n", s.Entry, s.Pivot))
		b.WriteString(fmt.Sprintf("Stop: %.2f | Target: %.2f\n", s.Stop, s.Target))
		b.WriteString(fmt.Sprintf("Vol ratio: %.2fx\n", s.VolRatio))
		b.WriteString(fmt.Sprintf("RS 1w: %.1f | RS 6m: %.1f\n", s.RSShort, s.RSLong))
		b.WriteString(fmt.Sprintf("Size: %.2f%% of equity", s.SizePct))
	case model.ExitSignal:
		icon := "🛑"
		if s.Reason == model.ExitTarget {
			icon = "🎯"
		}
		b.WriteString(fmt.Sprintf("%s <b>SELL %s</b> (%s)\n\n", icon, html.EscapeString(s.Ticker), s.Reason))
		b.WriteString(fmt.Sprintf("Exit: %.2f | Entry: %.2f\n", s.ExitPrice, s.Entry))
		b.WriteString(fmt.Sprintf("Gain: %+.2f%%", s.GainPct))
	case model.StartupSignal:
		b.WriteString("🤖 <b>Breakout scanner started</b>\n\n")
		b.WriteString(fmt.Sprintf("Watchlist: %s\n", html.EscapeString(strings.Join(s.Watchlist, ", "))))
		b.WriteString(fmt.Sprintf("Open positions: %d", s.Held))
	default:
		b.WriteString(html.EscapeString(FormatPlain(sig)))
	}
	return b.String()
}

// FormatPlain renders a one-line summary for logs.
func FormatPlain(sig model.Signal) string {
	switch s := sig.(type) {
	case model.EntrySignal:
		return fmt.Sprintf("BUY %s at %.2f (pivot %.2f, stop %.2f, target %.2f, size %.2f%%)",
			s.Ticker, s.Entry, s.Pivot, s.Stop, s.Target, s.SizePct)
	case model.ExitSignal:
		return fmt.Sprintf("SELL %s on %s at %.2f (entry %.2f, %+.2f%%)",
			s.Ticker, s.Reason, s.ExitPrice, s.Entry, s.GainPct)
	case model.StartupSignal:
		return fmt.Sprintf("scanner started: %d tickers, %d open", len(s.Watchlist), s.Held)
	}
	return fmt.Sprintf("%s %s", sig.Kind(), sig.Symbol())
}

// FormatPositions lists the open book.
func FormatPositions(book model.Book, now time.Time) string {
	if len(book) == 0 {
		return "No open positions."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Open positions</b> (%d)\n\n", len(book)))
	for _, t := range book.Tickers() {
		p := book[t]
		opened := "unknown"
		if !p.OpenedAt.IsZero() {
			opened = humanize.RelTime(p.OpenedAt, now, "ago", "from now")
		}
		b.WriteString(fmt.Sprintf("%s entry %.2f | stop %.2f | target %.2f | opened %s\n",
			html.EscapeString(t), p.EntryPrice, p.StopPrice, p.TargetPrice, opened))
	}
	return b.String()
}
