package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for exchanges, tool calls and outbreak
// synchronisation.  All methods are safe on a nil receiver.
type Metrics struct {
	// Exchanges by path: "direct", "tool" or "failed".
	Exchanges *prometheus.CounterVec

	// Tool invocations by tool and outcome.
	ToolCalls *prometheus.CounterVec

	// Outbreak entries processed by sync, by result.
	SyncEntries *prometheus.CounterVec

	// Failed feed fetches.
	SyncFailures prometheus.Counter

	ExchangeLatency prometheus.Histogram
}

// New creates a Metrics instance registered with reg.  Pass
// prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Exchanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthbot_exchanges_total",
			Help: "Total user exchanges by resolution path",
		}, []string{"path"}),

		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthbot_tool_calls_total",
			Help: "Tool invocations requested by the model, by tool and outcome",
		}, []string{"tool", "outcome"}), // outcome: "ok", "empty", "unknown", "invalid_args", "error"

		SyncEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthbot_outbreak_sync_entries_total",
			Help: "Outbreak feed entries processed by sync, by result",
		}, []string{"result"}), // result: "inserted", "duplicate", "skipped"

		SyncFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "healthbot_outbreak_sync_failures_total",
			Help: "Outbreak feed fetches that failed",
		}),

		ExchangeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "healthbot_exchange_duration_seconds",
			Help:    "Duration of a full exchange including model round trips",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementExchange records how an exchange was resolved.
func (m *Metrics) IncrementExchange(path string) {
	if m != nil {
		m.Exchanges.WithLabelValues(path).Inc()
	}
}

// IncrementToolCall records the outcome of a tool invocation.
func (m *Metrics) IncrementToolCall(tool, outcome string) {
	if m != nil {
		m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	}
}

// AddSyncEntries records n sync entries with the given result.
func (m *Metrics) AddSyncEntries(result string, n int) {
	if m != nil && n > 0 {
		m.SyncEntries.WithLabelValues(result).Add(float64(n))
	}
}

// IncrementSyncFailure records a failed feed fetch.
func (m *Metrics) IncrementSyncFailure() {
	if m != nil {
		m.SyncFailures.Inc()
	}
}

// ObserveExchangeLatency records the total exchange duration.
func (m *Metrics) ObserveExchangeLatency(d time.Duration) {
	if m != nil {
		m.ExchangeLatency.Observe(d.Seconds())
	}
}
