// Package prompush implements a metrics.Backend that pushes to a Prometheus
// Pushgateway. Observations go into a private registry; Flush pushes the
// whole registry under the job name, replacing the previous push.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/trevormunoz/dumbwaiter/internal/metrics"
)

// Backend implements metrics.Backend.
type Backend struct {
	reg    *prometheus.Registry
	pusher *push.Pusher

	steps         *prometheus.CounterVec
	stepDurations *prometheus.HistogramVec
	rows          *prometheus.CounterVec
	documents     *prometheus.CounterVec
	batches       prometheus.Counter
	batchDuration prometheus.Histogram
}

// NewBackend registers the menus metrics and targets gatewayURL.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is empty")
	}
	if jobName == "" {
		jobName = "menus"
	}

	b := &Backend{
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stages by outcome.",
		}, []string{"step", "status"}),
		stepDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StepDurationSeconds,
			Help:    "Pipeline stage duration.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"step", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows loaded per source table.",
		}, []string{"table"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.DocumentsTotal,
			Help: "Documents submitted, by bulk outcome.",
		}, []string{"status"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Bulk requests sent.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metrics.BatchDurationSeconds,
			Help:    "Bulk request duration.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{b.steps, b.stepDurations, b.rows, b.documents, b.batches, b.batchDuration} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register: %w", err)
		}
	}
	b.pusher = push.New(gatewayURL, jobName).Gatherer(b.reg)
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	switch name {
	case metrics.StepTotal:
		b.steps.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rows.WithLabelValues(labels["table"]).Add(delta)
	case metrics.DocumentsTotal:
		b.documents.WithLabelValues(labels["status"]).Add(delta)
	case metrics.BatchesTotal:
		b.batches.Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}
	switch name {
	case metrics.StepDurationSeconds:
		b.stepDurations.WithLabelValues(labels["step"], labels["status"]).Observe(value)
	case metrics.BatchDurationSeconds:
		b.batchDuration.Observe(value)
	}
}

// Flush pushes the registry to the gateway.
func (b *Backend) Flush() error {
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

// Gatherer exposes the registry (tests, local scrape).
func (b *Backend) Gatherer() prometheus.Gatherer { return b.reg }

var _ metrics.Backend = (*Backend)(nil)
