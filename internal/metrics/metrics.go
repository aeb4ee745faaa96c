// Package metrics exposes Prometheus instruments for the scan engine.
// All methods are safe on a nil *Metrics so callers and tests can skip it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the breakout scanner.
type Metrics struct {
	Registry *prometheus.Registry

	CyclesTotal    *prometheus.CounterVec // labels: result=ok|error
	CycleDuration  prometheus.Histogram
	SignalsTotal   *prometheus.CounterVec // labels: kind, reason
	SkipsTotal     *prometheus.CounterVec // labels: stage
	OpenPositions  prometheus.Gauge
	RegimeUptrend  prometheus.Gauge
	FeedRequests   *prometheus.CounterVec // labels: source, result
	NotifyFailures *prometheus.CounterVec // labels: sink
}

// NewMetrics registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_cycles_total",
			Help: "Completed scan cycles by result",
		}, []string{"result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "breakout_cycle_duration_seconds",
			Help:    "Wall time of one scan cycle",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_signals_total",
			Help: "Entry and exit signals emitted",
		}, []string{"kind", "reason"}),
		SkipsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_ticker_skips_total",
			Help: "Tickers that produced no entry, by failing stage",
		}, []string{"stage"}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "breakout_open_positions",
			Help: "Positions held after the last cycle",
		}),
		RegimeUptrend: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "breakout_regime_uptrend",
			Help: "1 if the last regime check found an uptrend",
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_feed_requests_total",
			Help: "Price feed requests by source and result",
		}, []string{"source", "result"}),
		NotifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_notify_failures_total",
			Help: "Signal deliveries that failed, by sink",
		}, []string{"sink"}),
	}
	m.Registry.MustRegister(
		m.CyclesTotal, m.CycleDuration, m.SignalsTotal, m.SkipsTotal,
		m.OpenPositions, m.RegimeUptrend, m.FeedRequests, m.NotifyFailures,
	)
	return m
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(d time.Duration, err error, open int) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		m.OpenPositions.Set(float64(open))
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// Signal counts one emitted signal.
func (m *Metrics) Signal(kind, reason string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(kind, reason).Inc()
}

// Skip counts a ticker that failed an entry stage.
func (m *Metrics) Skip(stage string) {
	if m == nil {
		return
	}
	m.SkipsTotal.WithLabelValues(stage).Inc()
}

// Regime records the regime gate result.
func (m *Metrics) Regime(up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.RegimeUptrend.Set(v)
}

// FeedRequest counts one price feed call.
func (m *Metrics) FeedRequest(source string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FeedRequests.WithLabelValues(source, result).Inc()
}

// NotifyFailure counts a failed delivery.
func (m *Metrics) NotifyFailure(sink string) {
	if m == nil {
		return
	}
	m.NotifyFailures.WithLabelValues(sink).Inc()
}
