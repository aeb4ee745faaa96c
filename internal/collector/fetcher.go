package collector

import (
	"context"

	"BreakoutSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns daily bars covering the trailing lookbackDays
	// calendar days, ascending by time.
	FetchDailyBars(ctx context.Context, symbol string, lookbackDays int) ([]model.OHLCV, error)
	Name() string
}
