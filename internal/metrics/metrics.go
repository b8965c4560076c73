package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes used as the "result" label
const (
	ResultOK         = "ok"
	ResultFetchError = "fetch_error"
	ResultPanic      = "panic"
)

// Metrics holds the poll loop instrumentation
type Metrics struct {
	Cycles        *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	ParseErrors   prometheus.Counter
	SendFailures  prometheus.Counter
	ActiveRegions prometheus.Gauge
	LastSuccess   prometheus.Gauge
	CycleDuration prometheus.Histogram
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "raidwatch_cycles_total",
			Help: "Poll cycles by outcome",
		}, []string{"result"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "raidwatch_transitions_total",
			Help: "Detected region transitions",
		}, []string{"kind"}),
		ParseErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "raidwatch_parse_errors_total",
			Help: "Snapshot entries skipped because they could not be parsed",
		}),
		SendFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "raidwatch_send_failures_total",
			Help: "Notifications that could not be delivered",
		}),
		ActiveRegions: f.NewGauge(prometheus.GaugeOpts{
			Name: "raidwatch_active_regions",
			Help: "Regions currently under an active tracked alert",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "raidwatch_last_success_timestamp_seconds",
			Help: "Unix time of the last cycle that fetched a snapshot",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "raidwatch_cycle_duration_seconds",
			Help:    "Wall time of a poll cycle",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// ObserveCycle records one finished cycle
func (m *Metrics) ObserveCycle(result string, started time.Time) {
	m.Cycles.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(time.Since(started).Seconds())
	if result == ResultOK {
		m.LastSuccess.Set(float64(time.Now().Unix()))
	}
}
