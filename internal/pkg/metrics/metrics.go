// Package metrics holds the Prometheus collectors of the service.
//
// All methods are safe on a nil *Metrics, so components built without
// metrics (tests, one-shot commands) need no special casing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatsync"

// Metrics groups the collectors recorded by ingestion, sync and transports.
type Metrics struct {
	productsIngested *prometheus.CounterVec
	chatScans        *prometheus.CounterVec
	reconciliations  *prometheus.CounterVec
	jobEvents        *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	kafkaConsumed    *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		productsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_ingested_total",
			Help:      "Products persisted from chat scans",
		}, []string{"result"}),
		chatScans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_scans_total",
			Help:      "Chat scans by outcome",
		}, []string{"outcome"}),
		reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Product reconciliations against a shop by result",
		}, []string{"result"}),
		jobEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_job_events_total",
			Help:      "Sync job lifecycle events",
		}, []string{"event"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_job_duration_seconds",
			Help:      "Time spent running sync jobs",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"status"}),
		kafkaConsumed: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_messages_consumed_seconds",
			Help:      "Time spent handling consumed messages",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "topic", "group"}),
	}
}

// ProductsIngested counts created and updated products of one batch.
func (m *Metrics) ProductsIngested(created, updated int) {
	if m == nil {
		return
	}
	m.productsIngested.WithLabelValues("created").Add(float64(created))
	m.productsIngested.WithLabelValues("updated").Add(float64(updated))
}

// ChatScanned counts one scan by outcome: empty, persisted or error.
func (m *Metrics) ChatScanned(outcome string) {
	if m == nil {
		return
	}
	m.chatScans.WithLabelValues(outcome).Inc()
}

// Reconciled counts one product reconciliation by result.
func (m *Metrics) Reconciled(result string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(result).Inc()
}

// JobEvent counts a sync job lifecycle event.
func (m *Metrics) JobEvent(event string) {
	if m == nil {
		return
	}
	m.jobEvents.WithLabelValues(event).Inc()
}

// JobFinished observes the run time of a job that reached status.
func (m *Metrics) JobFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(status).Observe(d.Seconds())
}

// MessageConsumed observes the handling time of one consumed message.
func (m *Metrics) MessageConsumed(code, topic, group string, d time.Duration) {
	if m == nil {
		return
	}
	m.kafkaConsumed.WithLabelValues(code, topic, group).Observe(d.Seconds())
}
