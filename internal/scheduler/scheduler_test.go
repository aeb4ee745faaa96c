package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutSentinel/internal/collector"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/notifier"
	"BreakoutSentinel/internal/position"
	"BreakoutSentinel/internal/scanner"
	"BreakoutSentinel/internal/strategy"
)

var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) (*Scheduler, *position.FileStore) {
	t.Helper()
	m := collector.NewMockFetcher()
	m.Set("^GSPC", collector.BreakoutBars(monday))
	m.Set("NVDA", collector.BreakoutBars(monday))
	feed := collector.NewFeed(m, 213, time.Second, nil)
	store := position.NewFileStore(filepath.Join(t.TempDir(), "positions.json"), position.Normalizer{StopPct: 0.08, TargetPct: 0.2})
	sc := scanner.New(feed, strategy.NewRegimeGate(feed, []string{"^GSPC"}, 50), store,
		notifier.NewMultiSink(nil, notifier.LogSink{}), nil, nil, strategy.DefaultParams(), []string{"NVDA"})
	return NewScheduler(context.Background(), sc), store
}

func TestRegisterScan(t *testing.T) {
	s, _ := newTestScheduler(t)
	assert.True(t, s.NextRun().IsZero())

	require.NoError(t, s.RegisterScan("@every 30m"))
	require.Error(t, s.RegisterScan("not a cron spec"))

	s.Start()
	defer s.Stop()
	next := s.NextRun()
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), next, time.Minute)
}

func TestRegisterScan_SixFieldSpec(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.RegisterScan("0 */30 14-21 * * 1-5"))
}

func TestHandleCommand_Positions(t *testing.T) {
	s, store := newTestScheduler(t)
	assert.Equal(t, "No open positions.", s.HandleCommand(context.Background(), "/positions"))

	book := model.Book{"AAPL": model.NewPosition("AAPL", 200, 195, 0.08, 0.2, time.Now().Add(-48*time.Hour))}
	require.NoError(t, store.Save(context.Background(), book))

	reply := s.HandleCommand(context.Background(), "/positions@breakout_bot")
	assert.Contains(t, reply, "AAPL")
	assert.Contains(t, reply, "184.00")
	assert.Contains(t, reply, "2 days ago")
}

func TestHandleCommand_ScanAndStatus(t *testing.T) {
	s, store := newTestScheduler(t)
	assert.Contains(t, s.HandleCommand(context.Background(), "/status"), "No completed scan yet")

	reply := s.HandleCommand(context.Background(), "/scan")
	assert.Contains(t, reply, "Regime: up")
	assert.Contains(t, reply, "Entries: 1")
	assert.Contains(t, reply, "Held: 1")

	book, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, book.Holds("NVDA"))

	status := s.HandleCommand(context.Background(), "/STATUS")
	assert.Contains(t, status, "Entries: 1")
}

func TestHandleCommand_Help(t *testing.T) {
	s, _ := newTestScheduler(t)
	reply := s.HandleCommand(context.Background(), "hello")
	assert.Contains(t, reply, "/positions")
	assert.Contains(t, reply, "/scan")
	assert.Contains(t, reply, "/status")
}

func TestRunNow(t *testing.T) {
	s, _ := newTestScheduler(t)
	report, err := s.RunNow()
	require.NoError(t, err)
	assert.Len(t, report.Entries, 1)
	assert.Same(t, report, s.Scanner.LastReport())
}

func TestStop_WaitsForBackgroundRun(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.RunInBackground()
	s.Stop()

	report := s.Scanner.LastReport()
	require.NotNil(t, report)
	assert.Len(t, report.Entries, 1)
}
