package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for thunk lifecycles, retry
// attempts, and cache lookups. thunk.AsyncThunk records the thunk
// collectors; the effects middlewares (async tracking, retry, cache) do not
// record into any of them. It plays the same role the
// teacher's pkg/observability/metrics.go plays for command/query execution,
// with the CloudWatch transport swapped for the Prometheus client the pack
// also depends on directly.
type Metrics struct {
	ThunkDuration  *prometheus.HistogramVec
	ThunkTotal     *prometheus.CounterVec
	RetryAttempts  *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec
	InFlightThunks prometheus.Gauge
}

// NewMetrics builds and registers the fluxstate collector set against reg. A
// nil reg uses the default Prometheus registry, matching how most Go
// services wire a single process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ThunkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fluxstate",
			Name:      "thunk_duration_seconds",
			Help:      "Duration of async thunk payload creators by type prefix and outcome.",
		}, []string{"type_prefix", "outcome"}),
		ThunkTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxstate",
			Name:      "thunk_total",
			Help:      "Count of async thunk lifecycle terminations by type prefix and outcome.",
		}, []string{"type_prefix", "outcome"}),
		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxstate",
			Name:      "retry_attempts_total",
			Help:      "Count of retry middleware re-dispatch attempts by type prefix.",
		}, []string{"type_prefix"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxstate",
			Name:      "cache_result_total",
			Help:      "Count of cache middleware lookups by type prefix and hit/miss.",
		}, []string{"type_prefix", "result"}),
		InFlightThunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fluxstate",
			Name:      "thunk_in_flight",
			Help:      "Number of async thunks currently between /pending and a terminal action.",
		}),
	}

	reg.MustRegister(m.ThunkDuration, m.ThunkTotal, m.RetryAttempts, m.CacheHits, m.InFlightThunks)
	return m
}

// RecordThunkSettled records one terminal thunk lifecycle transition.
func (m *Metrics) RecordThunkSettled(typePrefix, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ThunkDuration.WithLabelValues(typePrefix, outcome).Observe(duration.Seconds())
	m.ThunkTotal.WithLabelValues(typePrefix, outcome).Inc()
}

// RecordRetryAttempt records one scheduled retry for typePrefix.
func (m *Metrics) RecordRetryAttempt(typePrefix string) {
	if m == nil {
		return
	}
	m.RetryAttempts.WithLabelValues(typePrefix).Inc()
}

// RecordCacheResult records one cache middleware lookup outcome ("hit" or
// "miss").
func (m *Metrics) RecordCacheResult(typePrefix, result string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(typePrefix, result).Inc()
}

// ThunkStarted increments the in-flight gauge; the returned func decrements
// it, meant to be deferred by the caller.
func (m *Metrics) ThunkStarted() func() {
	if m == nil {
		return func() {}
	}
	m.InFlightThunks.Inc()
	return m.InFlightThunks.Dec
}
