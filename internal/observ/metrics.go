// Package observ holds the prometheus collectors for the commit core. The
// library registers collectors against the registerer it is given; exposing
// them (or not) is the host application's choice.
package observ

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors shared by the pipeline and the sync manager.
type Metrics struct {
	CommitOutcomes *prometheus.CounterVec
	SyncAttempts   *prometheus.CounterVec
	QueueDepth     prometheus.Gauge
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// Default returns the process-wide metrics registered on the default
// prometheus registerer, created on first use.
func Default() *Metrics {
	defaultOnce.Do(func() { defaultM = NewMetrics(prometheus.DefaultRegisterer) })
	return defaultM
}

// NewMetrics builds the collectors. A nil registerer leaves them unregistered,
// which is what tests and library consumers without prometheus want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommitOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_commit_outcomes_total",
			Help: "Commit results by outcome (committed, queued, rejected).",
		}, []string{"outcome"}),
		SyncAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_sync_attempts_total",
			Help: "Queue replay attempts by result (synced, retry, failed).",
		}, []string{"result"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "pos_queue_depth",
			Help: "Entries currently in the durable offline queue.",
		}),
	}
}
