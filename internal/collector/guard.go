package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"BreakoutSentinel/internal/model"
)

// GuardedFetcher paces requests to the upstream and trips a circuit breaker
// when it keeps failing, so a dead feed costs one timeout, not one per ticker.
type GuardedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedFetcher wraps inner. rps <= 0 disables pacing.
func NewGuardedFetcher(inner Fetcher, rps float64, burst int) *GuardedFetcher {
	st := gobreaker.Settings{Name: inner.Name()}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}
	// An empty answer for one ticker says nothing about the upstream's health.
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, model.ErrDataUnavailable)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("feed circuit breaker state change")
	}

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &GuardedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

func (g *GuardedFetcher) Name() string { return g.inner.Name() }

func (g *GuardedFetcher) FetchDailyBars(ctx context.Context, symbol string, lookbackDays int) ([]model.OHLCV, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchDailyBars(ctx, symbol, lookbackDays)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.OHLCV), nil
}

// State reports the breaker state, for status endpoints.
func (g *GuardedFetcher) State() string {
	return g.breaker.State().String()
}
