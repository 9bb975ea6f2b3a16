// Package observability exposes the prometheus instrumentation for the
// consistency core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for save/discard/merge activity.
type Metrics struct {
	saves          *prometheus.CounterVec
	discards       prometheus.Counter
	merges         *prometheus.CounterVec
	pendingChanges prometheus.Gauge
}

// NewMetrics registers the core's collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graphdesk_saves_total",
			Help: "Save passes by outcome.",
		}, []string{"status"}),
		discards: factory.NewCounter(prometheus.CounterOpts{
			Name: "graphdesk_discards_total",
			Help: "Completed discard passes.",
		}),
		merges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graphdesk_merges_total",
			Help: "Merge runs by policy and outcome.",
		}, []string{"policy", "status"}),
		pendingChanges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "graphdesk_pending_changes",
			Help: "Records currently held in the edit buffer.",
		}),
	}
}

// ObserveSave records a save pass outcome.
func (m *Metrics) ObserveSave(status string) {
	m.saves.WithLabelValues(status).Inc()
}

// ObserveDiscard records a completed discard.
func (m *Metrics) ObserveDiscard() {
	m.discards.Inc()
}

// ObserveMerge records a merge run outcome.
func (m *Metrics) ObserveMerge(policy, status string) {
	m.merges.WithLabelValues(policy, status).Inc()
}

// SetPendingChanges updates the pending-change gauge backing the UI badge.
func (m *Metrics) SetPendingChanges(n float64) {
	m.pendingChanges.Set(n)
}
