package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/trevormunoz/dumbwaiter/internal/config"
	"github.com/trevormunoz/dumbwaiter/internal/metrics"
	"github.com/trevormunoz/dumbwaiter/internal/metrics/datadog"
	"github.com/trevormunoz/dumbwaiter/internal/metrics/prompush"
)

// metricsBackend is what cleanup needs from a periodically flushing backend.
type metricsBackend interface {
	Close() error
}

// Seams for tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (metricsBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	newPushBackend = func(job, url string) (metrics.Backend, error) {
		return prompush.NewBackend(job, url)
	}
	setMetricsBackend = func(b any) {
		if mb, ok := b.(metrics.Backend); ok {
			metrics.SetBackend(mb)
		}
	}
	logPrintf = log.Printf
)

// initMetrics installs the configured backend. The returned cleanup is never
// nil and flushes whatever the backend buffered.
func initMetrics(ctx context.Context, cfg config.Metrics) (func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "", "none":
		return noop, nil

	case "datadog", "dd":
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    cfg.JobName,
			Tags:       cfg.Tags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			return noop, fmt.Errorf("datadog: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close error: %v", err)
			}
		}, nil

	case "pushgateway":
		b, err := newPushBackend(cfg.JobName, cfg.PushgatewayURL)
		if err != nil {
			return noop, fmt.Errorf("pushgateway: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := b.Flush(); err != nil {
				logPrintf("metrics: pushgateway flush error: %v", err)
			}
		}, nil

	default:
		return noop, fmt.Errorf("unknown metrics backend %q (none|datadog|pushgateway)", cfg.Backend)
	}
}
