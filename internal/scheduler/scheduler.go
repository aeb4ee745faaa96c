package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/scanner"
)

// Scheduler triggers scan cycles on a cron spec and answers chat commands.
type Scheduler struct {
	Cron    *cron.Cron
	Scanner *scanner.Scanner
	Ctx     context.Context

	scanEntry cron.EntryID
	now       func() time.Time
	running   sync.WaitGroup
}

// NewScheduler creates a new Scheduler. A cycle that is still running when
// the next tick fires makes that tick a no-op.
func NewScheduler(ctx context.Context, sc *scanner.Scanner) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Scanner: sc,
		Ctx:     ctx,
		now:     time.Now,
	}
}

// RegisterScan schedules the scan cycle. spec accepts six-field cron
// expressions and descriptors such as "@every 30m".
func (s *Scheduler) RegisterScan(spec string) error {
	id, err := s.Cron.AddFunc(spec, s.scanTask)
	if err != nil {
		return fmt.Errorf("register scan task %q: %w", spec, err)
	}
	s.scanEntry = id
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running cycles, scheduled or
// started by RunInBackground, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.running.Wait()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes one scan cycle immediately (for manual trigger / run_on_start).
func (s *Scheduler) RunNow() (*scanner.CycleReport, error) {
	return s.Scanner.RunCycle(s.Ctx)
}

// RunInBackground starts one scan cycle without blocking. Stop waits for it.
func (s *Scheduler) RunInBackground() {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		s.scanTask()
	}()
}

// NextRun reports when the scan task fires next, or the zero time if it is
// not scheduled.
func (s *Scheduler) NextRun() time.Time {
	if s.scanEntry == 0 {
		return time.Time{}
	}
	return s.Cron.Entry(s.scanEntry).Next
}

func (s *Scheduler) scanTask() {
	if _, err := s.RunNow(); err != nil {
		log.Error().Err(err).Msg("scheduled scan failed")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(command, "@", 2)[0])) {
	case "/positions":
		book, err := s.Scanner.Positions(ctx)
		if err != nil {
			log.Error().Err(err).Msg("load positions for command")
			return "❌ Could not load positions."
		}
		return notifier.FormatPositions(book, s.now())
	case "/scan":
		report, err := s.Scanner.RunCycle(ctx)
		if errors.Is(err, scanner.ErrCycleInProgress) {
			return "⏳ A scan is already running."
		}
		if err != nil {
			return fmt.Sprintf("❌ Scan failed: %v", err)
		}
		return formatReport(report, s.now())
	case "/status":
		report := s.Scanner.LastReport()
		var b strings.Builder
		if report == nil {
			b.WriteString("No completed scan yet.\n")
		} else {
			b.WriteString(formatReport(report, s.now()))
		}
		if next := s.NextRun(); !next.IsZero() {
			fmt.Fprintf(&b, "Next scan %s", humanize.RelTime(next, s.now(), "ago", "from now"))
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return "Commands:\n• /positions – open positions\n• /scan – run a scan now\n• /status – last scan summary"
	}
}

func formatReport(r *scanner.CycleReport, now time.Time) string {
	regime := "not checked"
	if r.RegimeChecked {
		regime = "down"
		if r.Uptrend {
			regime = "up"
		}
	}
	return fmt.Sprintf("🔎 Scan %s (%s, took %s)\nRegime: %s\nExits: %d | Entries: %d | Held: %d\n",
		r.ID[:8], humanize.RelTime(r.StartedAt, now, "ago", "from now"), r.Duration.Round(time.Millisecond),
		regime, len(r.Exits), len(r.Entries), r.Held)
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
