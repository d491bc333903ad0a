package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the write-reconciliation
// layer.
type Metrics struct {
	MutationsSubmitted  *prometheus.CounterVec
	MutationsConfirmed  *prometheus.CounterVec
	MutationsFailed     *prometheus.CounterVec
	RetriesDispatched   prometheus.Counter
	FailedActionsActive prometheus.Gauge
}

// New creates and registers all reconciliation metrics.
func New() *Metrics {
	return &Metrics{
		MutationsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loanconsole_mutations_submitted_total",
			Help: "Total mutations submitted to the ledger, by action kind",
		}, []string{"action"}),
		MutationsConfirmed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loanconsole_mutations_confirmed_total",
			Help: "Total mutations confirmed by the ledger, by action kind",
		}, []string{"action"}),
		MutationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loanconsole_mutations_failed_total",
			Help: "Total mutations that failed, by normalized error kind",
		}, []string{"kind"}),
		RetriesDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loanconsole_retries_dispatched_total",
			Help: "Total failed-action retries dispatched on the retry bus",
		}),
		FailedActionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "loanconsole_failed_actions_active",
			Help: "Current number of records in the durable failed-action store",
		}),
	}
}

func (m *Metrics) IncrementSubmitted(action string) {
	m.MutationsSubmitted.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementConfirmed(action string) {
	m.MutationsConfirmed.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementFailed(kind string) {
	m.MutationsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementRetries() {
	m.RetriesDispatched.Inc()
}

func (m *Metrics) SetFailedActionsActive(count int) {
	m.FailedActionsActive.Set(float64(count))
}
