package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
	"BreakoutSentinel/internal/recorder"
	"BreakoutSentinel/internal/scanner"
	"BreakoutSentinel/internal/strategy"
)

type fakeBackend struct {
	book model.Book
	err  error
	last *scanner.CycleReport
}

func (f *fakeBackend) Positions(context.Context) (model.Book, error) { return f.book, f.err }
func (f *fakeBackend) LastReport() *scanner.CycleReport              { return f.last }

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer(":0", &fakeBackend{}, nil, nil)
	rec := do(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestPositions(t *testing.T) {
	opened := time.Date(2024, 7, 1, 20, 0, 0, 0, time.UTC)
	backend := &fakeBackend{book: model.Book{"NVDA": model.NewPosition("NVDA", 102, 100, 0.08, 0.2, opened)}}
	s := NewServer(":0", backend, nil, nil)

	rec := do(t, s.Handler(), "/positions")
	require.Equal(t, http.StatusOK, rec.Code)
	var book model.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.InDelta(t, 93.84, book["NVDA"].StopPrice, 1e-9)

	rec = do(t, s.Handler(), "/positions/nvda")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entry_price":102`)

	rec = do(t, s.Handler(), "/positions/AAPL")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	backend.err = errors.New("redis down")
	rec = do(t, s.Handler(), "/positions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatus(t *testing.T) {
	backend := &fakeBackend{}
	s := NewServer(":0", backend, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), "/status").Code)

	backend.last = &scanner.CycleReport{
		ID:            "3f0c9a4e-0000-0000-0000-000000000000",
		StartedAt:     time.Now(),
		Duration:      1500 * time.Millisecond,
		RegimeChecked: true,
		Uptrend:       true,
		Held:          1,
		Entries:       []model.EntrySignal{{Ticker: "NVDA", Entry: 102, Pivot: 100}},
		Skipped:       map[string]strategy.Stage{"AAPL": strategy.StagePattern},
	}
	rec := do(t, s.Handler(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var got statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1500), got.DurationMs)
	assert.True(t, got.Uptrend)
	assert.Equal(t, "pattern", got.Skipped["AAPL"])
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "NVDA", got.Entries[0].Ticker)
}

func TestSignals(t *testing.T) {
	r, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer r.Close()
	sig := recorder.NewSignalRecord("c1", model.EntrySignal{Ticker: "NVDA", Entry: 102, Pivot: 100, Time: time.Now()})
	require.NoError(t, r.RecordSignal(&sig))

	s := NewServer(":0", &fakeBackend{}, r, nil)
	rec := do(t, s.Handler(), "/signals?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []recorder.SignalRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "NVDA", got[0].Ticker)

	assert.Equal(t, http.StatusBadRequest, do(t, s.Handler(), "/signals?limit=abc").Code)

	empty := NewServer(":0", &fakeBackend{}, nil, nil)
	rec = do(t, empty.Handler(), "/signals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	m := metrics.NewMetrics()
	m.Signal("ENTRY", "")
	s := NewServer(":0", &fakeBackend{}, nil, m.Registry)

	rec := do(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `breakout_signals_total{kind="ENTRY"`)

	withoutMetrics := NewServer(":0", &fakeBackend{}, nil, nil)
	assert.Equal(t, http.StatusNotFound, do(t, withoutMetrics.Handler(), "/metrics").Code)
}

func TestNotFound(t *testing.T) {
	s := NewServer(":0", &fakeBackend{}, nil, nil)
	rec := do(t, s.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}
