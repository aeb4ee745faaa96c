package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/metrics"
	"BreakoutSentinel/internal/model"
)

// Sink delivers signals to one channel.
type Sink interface {
	Notify(ctx context.Context, sig model.Signal) error
	Name() string
}

// MultiSink fans a signal out to every configured sink. A failing sink is
// logged and counted; the others still receive the signal.
type MultiSink struct {
	Sinks   []Sink
	Metrics *metrics.Metrics
}

// NewMultiSink creates a fan-out over sinks.
func NewMultiSink(m *metrics.Metrics, sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks, Metrics: m}
}

func (m *MultiSink) Name() string { return "multi" }

// Notify returns an error wrapping ErrNotificationFailure if any sink failed.
func (m *MultiSink) Notify(ctx context.Context, sig model.Signal) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.Notify(ctx, sig); err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Str("kind", string(sig.Kind())).Str("ticker", sig.Symbol()).Msg("signal delivery failed")
			m.Metrics.NotifyFailure(s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", model.ErrNotificationFailure, errors.Join(errs...))
	}
	return nil
}

// LogSink writes signals to the log. Used when no chat channel is configured.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Notify(_ context.Context, sig model.Signal) error {
	log.Info().Str("kind", string(sig.Kind())).Str("ticker", sig.Symbol()).Msg(FormatPlain(sig))
	return nil
}

// retry runs fn up to attempts+1 times with exponential backoff from base.
func retry(ctx context.Context, attempts int, base time.Duration, what string, fn func() error) error {
	var lastErr error
	for i := 0; i <= attempts; i++ {
		if err := fn(); err != nil {
			lastErr = err
			if i == attempts {
				break
			}
			backoff := base * time.Duration(1<<uint(i))
			log.Warn().Err(err).Int("attempt", i+1).Int("of", attempts+1).Dur("backoff", backoff).Msgf("%s send failed, retrying", what)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d attempts exhausted: %w", attempts+1, lastErr)
}
