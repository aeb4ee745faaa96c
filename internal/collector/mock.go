package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BreakoutSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols missing from Bars return no bars.
type MockFetcher struct {
	mu    sync.Mutex
	Bars  map[string][]model.OHLCV
	Errs  map[string]error
	Calls map[string]int
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Bars:  map[string][]model.OHLCV{},
		Errs:  map[string]error{},
		Calls: map[string]int{},
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// Set replaces the bars served for symbol.
func (m *MockFetcher) Set(symbol string, bars []model.OHLCV) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bars[symbol] = bars
}

// Fail makes every fetch of symbol return err.
func (m *MockFetcher) Fail(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errs[symbol] = err
}

// CallCount reports how many times symbol was fetched.
func (m *MockFetcher) CallCount(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[symbol]
}

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, _ int) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[symbol]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	bars := m.Bars[symbol]
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	return out, nil
}

// FlatBars generates n weekday bars from start with a constant close.
func FlatBars(start time.Time, n int, price float64) []model.OHLCV {
	bars := make([]model.OHLCV, 0, n)
	day := start
	for len(bars) < n {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			bars = append(bars, model.OHLCV{
				Time:   day,
				Open:   price,
				High:   price * 1.01,
				Low:    price * 0.99,
				Close:  price,
				Volume: 1_000_000,
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

// BreakoutBars generates 29 full weeks plus Monday-Wednesday of a 30th,
// starting on the Monday given, shaped as a textbook breakout:
//
//   - weeks 0-8 rise from 50 toward 84,
//   - weeks 9-25 form a base between 90 and 100 closing at 95,
//   - weeks 26-28 are a handle closing at 98 with highs of 100 (the pivot),
//   - the last day closes at 102 on triple volume.
//
// Relative strength is 100 on both windows and the volume ratio is about 2.9.
func BreakoutBars(monday time.Time) []model.OHLCV {
	if monday.Weekday() != time.Monday {
		panic(fmt.Sprintf("BreakoutBars: %s is not a Monday", monday.Format("2006-01-02")))
	}
	var bars []model.OHLCV
	add := func(day time.Time, close, high, low, vol float64) {
		bars = append(bars, model.OHLCV{Time: day, Open: close, High: high, Low: low, Close: close, Volume: vol})
	}
	for w := 0; w < 30; w++ {
		for d := 0; d < 5; d++ {
			day := monday.AddDate(0, 0, 7*w+d)
			switch {
			case w <= 8:
				c := 50 + float64(w)*4 + float64(d)*0.5
				add(day, c, c+1, c-1, 1_000_000)
			case w <= 25:
				add(day, 95, 100, 90, 1_000_000)
			case w <= 28:
				add(day, 98, 100, 96, 1_000_000)
			case d <= 1:
				add(day, 99, 99.5, 98, 1_000_000)
			case d == 2:
				add(day, 102, 103, 99, 3_000_000)
			}
		}
	}
	return bars
}

// WithLastClose returns a copy of bars whose final bar closes at price.
func WithLastClose(bars []model.OHLCV, price float64) []model.OHLCV {
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	last := &out[len(out)-1]
	last.Close = price
	if last.High < price {
		last.High = price
	}
	if last.Low > price {
		last.Low = price
	}
	return out
}
