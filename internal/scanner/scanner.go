// Package scanner runs the scan cycle: exits for held positions, then
// regime-gated breakout entries for the watchlist, then one store write and
// signal delivery.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/position"
	"BreakoutSentinel/internal/recorder"
	"BreakoutSentinel/internal/strategy"
)

// ErrCycleInProgress is returned when RunCycle is called while another cycle runs.
var ErrCycleInProgress = errors.New("scan cycle already in progress")

// PriceFeed supplies daily series for watchlist and held tickers.
type PriceFeed interface {
	FetchDaily(ctx context.Context, ticker string) (*model.PriceSeries, error)
}

// Regime decides whether new entries are allowed.
type Regime interface {
	IsUptrend(ctx context.Context) bool
}

// CycleReport describes one finished cycle.
type CycleReport struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration

	// RegimeChecked is false when no ticker needed an entry check.
	RegimeChecked bool
	Uptrend       bool

	Exits   []model.ExitSignal
	Entries []model.EntrySignal
	Skipped map[string]strategy.Stage
	Held    int

	DeliveryFailures int
}

// Signals returns exits followed by entries, the order they are delivered in.
func (r *CycleReport) Signals() []model.Signal {
	out := make([]model.Signal, 0, len(r.Exits)+len(r.Entries))
	for _, s := range r.Exits {
		out = append(out, s)
	}
	for _, s := range r.Entries {
		out = append(out, s)
	}
	return out
}

// Scanner owns the position store for the duration of a cycle.
type Scanner struct {
	Feed      PriceFeed
	Regime    Regime
	Store     position.Store
	Sink      notifier.Sink
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Params    strategy.Params
	Watchlist []string

	now  func() time.Time
	mu   sync.Mutex
	last *CycleReport
	lmu  sync.RWMutex
}

// New creates a Scanner. A nil recorder is replaced by a no-op one.
func New(feed PriceFeed, regime Regime, store position.Store, sink notifier.Sink, rec recorder.Recorder, m *metrics.Metrics, p strategy.Params, watchlist []string) *Scanner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scanner{
		Feed:      feed,
		Regime:    regime,
		Store:     store,
		Sink:      sink,
		Recorder:  rec,
		Metrics:   m,
		Params:    p,
		Watchlist: watchlist,
		now:       time.Now,
	}
}

// RunCycle executes one scan. It returns an error only when the store cannot
// be read or written or ctx is cancelled; in those cases nothing is persisted
// and no signal is sent. Per-ticker failures are logged and skipped.
func (s *Scanner) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer s.mu.Unlock()

	report := &CycleReport{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		Skipped:   map[string]strategy.Stage{},
	}
	logger := log.With().Str("cycle", report.ID).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Int("watchlist", len(s.Watchlist)).Msg("scan cycle started")

	err := s.run(ctx, report)
	report.Duration = s.now().Sub(report.StartedAt)
	s.Metrics.ObserveCycle(report.Duration, err, report.Held)
	s.recordCycle(report, err)

	if err != nil {
		logger.Error().Err(err).Dur("took", report.Duration).Msg("scan cycle aborted")
		return nil, err
	}
	s.lmu.Lock()
	s.last = report
	s.lmu.Unlock()

	logger.Info().
		Int("exits", len(report.Exits)).
		Int("entries", len(report.Entries)).
		Int("held", report.Held).
		Bool("uptrend", report.Uptrend).
		Dur("took", report.Duration).
		Msg("scan cycle finished")
	return report, nil
}

func (s *Scanner) run(ctx context.Context, report *CycleReport) error {
	book, err := s.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	working := book.Clone()

	for _, ticker := range book.Tickers() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sig, ok := s.checkExit(ctx, book[ticker]); ok {
			delete(working, ticker)
			report.Exits = append(report.Exits, sig)
		}
	}

	for _, ticker := range s.Watchlist {
		if working.Holds(ticker) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !report.RegimeChecked {
			report.Uptrend = s.Regime.IsUptrend(ctx)
			report.RegimeChecked = true
			s.Metrics.Regime(report.Uptrend)
			if !report.Uptrend {
				zerologFrom(ctx).Info().Msg("market not in uptrend, no new entries this cycle")
				break
			}
		}
		entry, stage := s.checkEntry(ctx, ticker)
		if entry == nil {
			report.Skipped[ticker] = stage
			continue
		}
		working[ticker] = entry.Position
		report.Entries = append(report.Entries, entry.Signal)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Store.Save(ctx, working); err != nil {
		return fmt.Errorf("save positions: %w", err)
	}
	report.Held = len(working)

	for _, sig := range report.Signals() {
		s.record(ctx, report.ID, sig)
		if err := s.Sink.Notify(ctx, sig); err != nil {
			report.DeliveryFailures++
			zerologFrom(ctx).Error().Err(err).Str("ticker", sig.Symbol()).Str("kind", string(sig.Kind())).Msg("signal not delivered")
		}
	}
	return nil
}

func (s *Scanner) checkExit(ctx context.Context, pos model.Position) (model.ExitSignal, bool) {
	logger := zerologFrom(ctx).With().Str("ticker", pos.Ticker).Logger()

	series, err := s.Feed.FetchDaily(ctx, pos.Ticker)
	if err != nil {
		logger.Warn().Err(err).Msg("no price for held position, keeping it")
		return model.ExitSignal{}, false
	}
	reason, last, ok, err := strategy.EvaluateExit(pos, series)
	if err != nil {
		logger.Warn().Err(err).Msg("no price for held position, keeping it")
		return model.ExitSignal{}, false
	}
	if !ok {
		logger.Debug().Float64("close", last).Float64("stop", pos.StopPrice).Float64("target", pos.TargetPrice).Msg("holding")
		return model.ExitSignal{}, false
	}

	sig := model.NewExitSignal(pos, reason, last, s.now())
	s.Metrics.Signal(string(model.KindExit), string(reason))
	logger.Info().Str("reason", string(reason)).Float64("exit", last).Float64("entry", pos.EntryPrice).Float64("gain_pct", sig.GainPct).Msg("exit")
	return sig, true
}

func (s *Scanner) checkEntry(ctx context.Context, ticker string) (*strategy.Entry, strategy.Stage) {
	logger := zerologFrom(ctx).With().Str("ticker", ticker).Logger()

	series, err := s.Feed.FetchDaily(ctx, ticker)
	if err == nil {
		var entry *strategy.Entry
		entry, err = strategy.EvaluateEntry(series, s.Params, s.now())
		if err == nil {
			s.Metrics.Signal(string(model.KindEntry), "")
			logger.Info().Float64("entry", entry.Signal.Entry).Float64("pivot", entry.Signal.Pivot).
				Float64("vol_ratio", entry.Signal.VolRatio).Float64("size_pct", entry.Signal.SizePct).Msg("breakout entry")
			return entry, ""
		}
	}

	stage := strategy.StageOf(err)
	s.Metrics.Skip(string(stage))
	if errors.Is(err, strategy.ErrNotQualified) {
		logger.Debug().Str("stage", string(stage)).Err(err).Msg("no entry")
	} else {
		logger.Warn().Str("stage", string(stage)).Err(err).Msg("entry check skipped")
	}
	return nil, stage
}

func (s *Scanner) record(ctx context.Context, cycleID string, sig model.Signal) {
	rec := recorder.NewSignalRecord(cycleID, sig)
	if err := s.Recorder.RecordSignal(&rec); err != nil {
		zerologFrom(ctx).Error().Err(err).Msg("record signal")
	}
}

func (s *Scanner) recordCycle(report *CycleReport, cycleErr error) {
	rec := &recorder.CycleRecord{
		ID:        report.ID,
		StartedAt: report.StartedAt,
		Duration:  report.Duration,
		Uptrend:   report.Uptrend,
		Exits:     len(report.Exits),
		Entries:   len(report.Entries),
		Skipped:   len(report.Skipped),
		Held:      report.Held,
	}
	if cycleErr != nil {
		rec.Error = cycleErr.Error()
	}
	if err := s.Recorder.RecordCycle(rec); err != nil {
		log.Error().Err(err).Str("cycle", report.ID).Msg("record cycle")
	}
}

// LastReport returns the most recent successful cycle, or nil.
func (s *Scanner) LastReport() *CycleReport {
	s.lmu.RLock()
	defer s.lmu.RUnlock()
	return s.last
}

// Positions returns the currently stored book.
func (s *Scanner) Positions(ctx context.Context) (model.Book, error) {
	return s.Store.Load(ctx)
}

// AnnounceStartup sends the startup signal. Failure is logged only.
func (s *Scanner) AnnounceStartup(ctx context.Context) {
	held := 0
	if book, err := s.Store.Load(ctx); err == nil {
		held = len(book)
	} else {
		log.Warn().Err(err).Msg("load positions for startup notice")
	}
	sig := model.StartupSignal{Watchlist: s.Watchlist, Held: held, Time: s.now()}
	if err := s.Sink.Notify(ctx, sig); err != nil {
		log.Error().Err(err).Msg("startup notice not delivered")
	}
}
