package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreakoutSentinel/internal/collector"
	"BreakoutSentinel/internal/model"
)

var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func weeklyFrom(high, low, close []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(high))
	for i := range high {
		bars[i] = model.OHLCV{
			Time:  monday.AddDate(0, 0, 7*i+4),
			High:  high[i],
			Low:   low[i],
			Close: close[i],
		}
	}
	return bars
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputePivot_HandleHighIsPivot(t *testing.T) {
	high := append(repeat(10, 17), 12, 13, 14)
	closes := append(repeat(11, 17), 13, 13.5, 14)
	pivot, ok := ComputePivot(weeklyFrom(high, repeat(10, 20), closes), DefaultPatternParams())
	require.True(t, ok)
	assert.Equal(t, 14.0, pivot)
}

func TestComputePivot_DeepBaseRejected(t *testing.T) {
	high := append(repeat(10, 17), 12, 13, 14)
	closes := append(repeat(8, 17), 13, 13.5, 14)

	// (14-7)/14 = 0.5
	_, ok := ComputePivot(weeklyFrom(high, repeat(7, 20), closes), DefaultPatternParams())
	assert.False(t, ok)

	// (14-2)/14 = 0.86
	_, ok = ComputePivot(weeklyFrom(high, repeat(2, 20), repeat(3, 20)), DefaultPatternParams())
	assert.False(t, ok)
}

func TestComputePivot_TooFewWeeks(t *testing.T) {
	for n := 0; n < 20; n++ {
		_, ok := ComputePivot(weeklyFrom(repeat(10, n), repeat(9, n), repeat(9.8, n)), DefaultPatternParams())
		assert.False(t, ok, "n=%d", n)
	}
}

func TestComputePivot_UsesOnlyTrailingBase(t *testing.T) {
	// A crash before the last 20 weeks does not count toward depth.
	high := append(repeat(50, 10), repeat(10, 20)...)
	low := append(repeat(1, 10), repeat(9, 20)...)
	closes := append(repeat(2, 10), repeat(9.8, 20)...)
	pivot, ok := ComputePivot(weeklyFrom(high, low, closes), DefaultPatternParams())
	require.True(t, ok)
	assert.Equal(t, 10.0, pivot)
}

func TestComputePivot_DepthAtLimitPasses(t *testing.T) {
	// (100-67)/100 = 0.33 exactly, mid = 83.5
	pivot, ok := ComputePivot(weeklyFrom(repeat(100, 20), repeat(67, 20), repeat(90, 20)), DefaultPatternParams())
	require.True(t, ok)
	assert.Equal(t, 100.0, pivot)
}

func TestComputePivot_HandleCloseAtMidFails(t *testing.T) {
	closes := repeat(95, 20)
	closes[18] = 90 // mid of [80,100]
	_, ok := ComputePivot(weeklyFrom(repeat(100, 20), repeat(80, 20), closes), DefaultPatternParams())
	assert.False(t, ok)

	closes[18] = 90.01
	_, ok = ComputePivot(weeklyFrom(repeat(100, 20), repeat(80, 20), closes), DefaultPatternParams())
	assert.True(t, ok)
}

func TestComputePivot_ZeroHigh(t *testing.T) {
	_, ok := ComputePivot(weeklyFrom(repeat(0, 20), repeat(0, 20), repeat(0, 20)), DefaultPatternParams())
	assert.False(t, ok)
}

func TestComputePivot_CustomWindows(t *testing.T) {
	pp := PatternParams{BaseWeeks: 10, HandleWeeks: 2, MaxDepth: 0.5}
	high := append(repeat(20, 8), 18, 19)
	pivot, ok := ComputePivot(weeklyFrom(high, repeat(12, 10), repeat(17, 10)), pp)
	require.True(t, ok)
	assert.Equal(t, 19.0, pivot)
}

func TestSizePct(t *testing.T) {
	v, err := SizePct(1.0, 0.08)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, v, 1e-9)

	v, err = SizePct(2.0, 0.10)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v, 1e-9)

	_, err = SizePct(1.0, 0)
	require.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.StopPct = 0
	require.ErrorIs(t, p.Validate(), model.ErrInvalidConfiguration)

	p = DefaultParams()
	p.Pattern.HandleWeeks = 30
	require.ErrorIs(t, p.Validate(), model.ErrInvalidConfiguration)

	p = DefaultParams()
	p.RSThreshold = 120
	require.ErrorIs(t, p.Validate(), model.ErrInvalidConfiguration)
}

func breakoutSeries(bars []model.OHLCV) *model.PriceSeries {
	return &model.PriceSeries{Symbol: "NVDA", DailyBars: bars}
}

func TestEvaluateEntry_Breakout(t *testing.T) {
	now := time.Date(2024, time.July, 31, 21, 0, 0, 0, time.UTC)
	entry, err := EvaluateEntry(breakoutSeries(collector.BreakoutBars(monday)), DefaultParams(), now)
	require.NoError(t, err)
	require.NotNil(t, entry)

	sig := entry.Signal
	assert.Equal(t, "NVDA", sig.Ticker)
	assert.InDelta(t, 102.0, sig.Entry, 1e-9)
	assert.InDelta(t, 100.0, sig.Pivot, 1e-9)
	assert.InDelta(t, 93.84, sig.Stop, 1e-9)
	assert.InDelta(t, 122.4, sig.Target, 1e-9)
	assert.InDelta(t, 3.0/1.04, sig.VolRatio, 1e-9)
	assert.Equal(t, 100.0, sig.RSShort)
	assert.Equal(t, 100.0, sig.RSLong)
	assert.InDelta(t, 12.5, sig.SizePct, 1e-9)
	assert.Equal(t, now, sig.Time)

	pos := entry.Position
	assert.Equal(t, "NVDA", pos.Ticker)
	assert.Equal(t, sig.Entry, pos.EntryPrice)
	assert.Equal(t, sig.Stop, pos.StopPrice)
	assert.Equal(t, sig.Target, pos.TargetPrice)
	assert.Equal(t, now, pos.OpenedAt)
}

func TestEvaluateEntry_Skips(t *testing.T) {
	bars := collector.BreakoutBars(monday)
	quietLast := append([]model.OHLCV(nil), bars...)
	quietLast[len(quietLast)-1].Volume = 1_000_000

	tests := []struct {
		name    string
		bars    []model.OHLCV
		params  func(*Params)
		stage   Stage
		wantErr error
	}{
		{name: "empty series", bars: nil, stage: StageData, wantErr: model.ErrDataUnavailable},
		{name: "flat market has no handle", bars: collector.FlatBars(monday, 150, 100), stage: StagePattern, wantErr: ErrNotQualified},
		{name: "too few weeks", bars: bars[len(bars)-60:], stage: StagePattern, wantErr: ErrNotQualified},
		{name: "close at pivot", bars: collector.WithLastClose(bars, 100), stage: StageBreakout, wantErr: ErrNotQualified},
		{name: "extended past buy window", bars: collector.WithLastClose(bars, 105.5), stage: StageBreakout, wantErr: ErrNotQualified},
		{name: "no volume surge", bars: quietLast, stage: StageVolume, wantErr: ErrNotQualified},
		{name: "rs below threshold", bars: bars, params: func(p *Params) { p.RSThreshold = 100.5 }, stage: StageStrength, wantErr: ErrNotQualified},
		{name: "rs history too short", bars: bars, params: func(p *Params) { p.RSLongWindow = 500 }, stage: StageStrength, wantErr: model.ErrInsufficientHistory},
		{name: "zero stop", bars: bars, params: func(p *Params) { p.StopPct = 0 }, stage: StageSizing, wantErr: model.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			if tt.params != nil {
				tt.params(&p)
			}
			entry, err := EvaluateEntry(breakoutSeries(tt.bars), p, time.Now())
			require.Error(t, err)
			assert.Nil(t, entry)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.stage, StageOf(err))
		})
	}
}

func TestEvaluateEntry_TopOfBuyWindow(t *testing.T) {
	_, err := EvaluateEntry(breakoutSeries(collector.WithLastClose(collector.BreakoutBars(monday), 105)), DefaultParams(), time.Now())
	require.NoError(t, err)
}

func TestEvaluateExit(t *testing.T) {
	pos := model.NewPosition("AAPL", 100, 98, 0.08, 0.20, monday)
	series := func(close float64) *model.PriceSeries {
		return &model.PriceSeries{Symbol: "AAPL", DailyBars: collector.WithLastClose(collector.FlatBars(monday, 5, 100), close)}
	}

	tests := []struct {
		name   string
		close  float64
		reason model.ExitReason
		exit   bool
	}{
		{"below stop", 90, model.ExitStop, true},
		{"at stop", 92, model.ExitStop, true},
		{"inside range", 101, "", false},
		{"at target", 120, model.ExitTarget, true},
		{"above target", 130, model.ExitTarget, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, last, ok, err := EvaluateExit(pos, series(tt.close))
			require.NoError(t, err)
			assert.Equal(t, tt.exit, ok)
			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, tt.close, last)
		})
	}
}

func TestEvaluateExit_NoDataIsNeverAnExit(t *testing.T) {
	pos := model.NewPosition("AAPL", 100, 98, 0.08, 0.20, monday)
	_, _, ok, err := EvaluateExit(pos, &model.PriceSeries{Symbol: "AAPL"})
	require.ErrorIs(t, err, model.ErrDataUnavailable)
	assert.False(t, ok)

	_, _, ok, err = EvaluateExit(pos, nil)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestRegimeGate_PrimaryUptrend(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Set("^GSPC", collector.BreakoutBars(monday))
	gate := NewRegimeGate(collector.NewFeed(m, 213, time.Second, nil), []string{"^GSPC", "SPY"}, 50)

	assert.True(t, gate.IsUptrend(context.Background()))
	assert.Equal(t, 0, m.CallCount("SPY"))
}

func TestRegimeGate_Downtrend(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Set("^GSPC", collector.WithLastClose(collector.FlatBars(monday, 60, 100), 90))
	m.Set("SPY", collector.BreakoutBars(monday))
	gate := NewRegimeGate(collector.NewFeed(m, 213, time.Second, nil), []string{"^GSPC", "SPY"}, 50)

	assert.False(t, gate.IsUptrend(context.Background()))
	assert.Equal(t, 0, m.CallCount("SPY"), "a usable primary is final")
}

func TestRegimeGate_FallsBack(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Fail("^GSPC", errors.New("502 bad gateway"))
	m.Set("SPY", collector.FlatBars(monday, 20, 400)) // too short for SMA50
	m.Set("VOO", collector.BreakoutBars(monday))
	gate := NewRegimeGate(collector.NewFeed(m, 213, time.Second, nil), []string{"^GSPC", "SPY", "VOO"}, 50)

	assert.True(t, gate.IsUptrend(context.Background()))
	assert.Equal(t, 1, m.CallCount("VOO"))
}

func TestRegimeGate_AllUnavailableIsNotUptrend(t *testing.T) {
	m := collector.NewMockFetcher()
	m.Fail("^GSPC", errors.New("timeout"))
	gate := NewRegimeGate(collector.NewFeed(m, 213, time.Second, nil), []string{"^GSPC", "SPY"}, 50)

	assert.False(t, gate.IsUptrend(context.Background()))
	assert.Equal(t, 1, m.CallCount("SPY"))
}

func TestSetupPivot_ExcludesCurrentWeek(t *testing.T) {
	bars := collector.BreakoutBars(monday)
	pivot, weeks, ok := SetupPivot(bars, DefaultPatternParams())
	require.True(t, ok)
	assert.Equal(t, 100.0, pivot)
	assert.Equal(t, 29, weeks)

	_, weeks, ok = SetupPivot(nil, DefaultPatternParams())
	assert.False(t, ok)
	assert.Zero(t, weeks)
}
