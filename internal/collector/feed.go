package collector

import (
	"context"
	"fmt"
	"time"

	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
)

// Feed is the price feed the scanner consumes. Every call is bounded by
// Timeout, and any failure or empty result comes back as ErrDataUnavailable.
type Feed struct {
	Fetcher      Fetcher
	LookbackDays int
	Timeout      time.Duration
	Metrics      *metrics.Metrics

	now func() time.Time
}

// NewFeed creates a Feed.
func NewFeed(fetcher Fetcher, lookbackDays int, timeout time.Duration, m *metrics.Metrics) *Feed {
	return &Feed{
		Fetcher:      fetcher,
		LookbackDays: lookbackDays,
		Timeout:      timeout,
		Metrics:      m,
		now:          time.Now,
	}
}

// FetchDaily returns the trailing daily series for a watchlist ticker.
func (f *Feed) FetchDaily(ctx context.Context, ticker string) (*model.PriceSeries, error) {
	return f.fetch(ctx, ticker)
}

// FetchReference returns the trailing daily series for a market reference symbol.
func (f *Feed) FetchReference(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	return f.fetch(ctx, symbol)
}

func (f *Feed) fetch(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	bars, err := f.Fetcher.FetchDailyBars(ctx, symbol, f.LookbackDays)
	f.Metrics.FeedRequest(f.Fetcher.Name(), err)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %v: %w", symbol, f.Fetcher.Name(), err, model.ErrDataUnavailable)
	}
	series := &model.PriceSeries{Symbol: symbol, DailyBars: usableBars(bars), FetchedAt: f.clock()}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}

func (f *Feed) clock() time.Time {
	if f.now == nil {
		return time.Now()
	}
	return f.now()
}

// usableBars drops bars without a positive high, low and close. A zero price
// would otherwise rank below every real close and blow up base depth.
func usableBars(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.High > 0 && b.Low > 0 && b.Close > 0 {
			out = append(out, b)
		}
	}
	return out
}
