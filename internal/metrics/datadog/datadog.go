// Package datadog implements a Datadog metrics.Backend.
//
// Observations are buffered in memory and submitted on a ticker (once per
// minute by default) and once more on Close, so a long load shows up as a
// time series rather than a single spike at exit.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/trevormunoz/dumbwaiter/internal/metrics"
)

// Options controls the backend.
type Options struct {
	// JobName becomes tag "job:<name>". Defaults to "menus".
	JobName string

	// Tags are extra tags, e.g. "env:prod".
	Tags []string

	// FlushEvery defaults to 60 seconds.
	FlushEvery time.Duration

	// test seams
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the part of *datadogV2.MetricsApi the backend calls.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags  []string
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu  sync.Mutex
	buf buffer
}

// buffer is one collection window.
type buffer struct {
	steps     map[string]float64 // step\x00status
	rows      map[string]float64 // table
	documents map[string]float64 // status
	batches   float64

	stepDurations  map[string][]float64 // step\x00status
	batchDurations []float64
}

func newBuffer() buffer {
	return buffer{
		steps:         make(map[string]float64),
		rows:          make(map[string]float64),
		documents:     make(map[string]float64),
		stepDurations: make(map[string][]float64),
	}
}

func (s buffer) isEmpty() bool {
	return len(s.steps) == 0 &&
		len(s.rows) == 0 &&
		len(s.documents) == 0 &&
		s.batches == 0 &&
		len(s.stepDurations) == 0 &&
		len(s.batchDurations) == 0
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend starts a backend and its flush loop. Credentials and site come
// from the usual DD_API_KEY / DD_SITE environment; network errors surface
// from Flush, not here.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "menus"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}
	submitter := opts.submitter
	if submitter == nil {
		submitter = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		now:        nowFn,
		newTicker:  newTicker,
		buf:        newBuffer(),
	}
	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the flush loop and flushes once more. Call it once.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.StepTotal:
		b.buf.steps[stepStatusKey(labels["step"], labels["status"])] += delta
	case metrics.RowsTotal:
		if t := labels["table"]; t != "" {
			b.buf.rows[t] += delta
		}
	case metrics.DocumentsTotal:
		status := labels["status"]
		if status == "" {
			status = "unknown"
		}
		b.buf.documents[status] += delta
	case metrics.BatchesTotal:
		b.buf.batches += delta
	}
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.StepDurationSeconds:
		k := stepStatusKey(labels["step"], labels["status"])
		b.buf.stepDurations[k] = append(b.buf.stepDurations[k], value)
	case metrics.BatchDurationSeconds:
		b.buf.batchDurations = append(b.buf.batchDurations, value)
	}
}

func (b *Backend) snapshotAndReset() buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf
	b.buf = newBuffer()
	return s
}

// Flush submits the current window and starts a new one. The window is
// discarded even when submission fails.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}
	payload := datadogV2.MetricPayload{Series: b.buildSeries(snap, b.now().Unix())}
	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries is pure; naming and tagging live here.
func (b *Backend) buildSeries(s buffer, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(s.steps)+len(s.rows)+len(s.documents)+16)

	for k, v := range s.steps {
		step, status := splitStepStatusKey(k)
		series = append(series, point("menus.step.total", datadogV2.METRICINTAKETYPE_COUNT, v,
			withTags(b.baseTags, "step:"+step, "status:"+status), nowUnix))
	}
	for table, v := range s.rows {
		series = append(series, point("menus.rows.total", datadogV2.METRICINTAKETYPE_COUNT, v,
			withTags(b.baseTags, "table:"+table), nowUnix))
	}
	for status, v := range s.documents {
		series = append(series, point("menus.documents.total", datadogV2.METRICINTAKETYPE_COUNT, v,
			withTags(b.baseTags, "status:"+status), nowUnix))
	}
	if s.batches != 0 {
		series = append(series, point("menus.batches.total", datadogV2.METRICINTAKETYPE_COUNT, s.batches, b.baseTags, nowUnix))
	}

	for k, samples := range s.stepDurations {
		step, status := splitStepStatusKey(k)
		addPercentiles(&series, "menus.step.duration_seconds", samples,
			withTags(b.baseTags, "step:"+step, "status:"+status), nowUnix)
	}
	addPercentiles(&series, "menus.batch.duration_seconds", s.batchDurations, b.baseTags, nowUnix)

	return series
}

func point(metric string, typ datadogV2.MetricIntakeType, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

// addPercentiles appends p50/p90/p95/p99/max/samples gauges. Empty sample
// sets add nothing; samples is not mutated.
func addPercentiles(series *[]datadogV2.MetricSeries, prefix string, samples []float64, tags []string, nowUnix int64) {
	if len(samples) == 0 {
		return
	}
	cp := append([]float64(nil), samples...)
	sort.Float64s(cp)

	gauge := datadogV2.METRICINTAKETYPE_GAUGE
	*series = append(*series,
		point(prefix+".p50", gauge, percentileNearestRank(cp, 0.50), tags, nowUnix),
		point(prefix+".p90", gauge, percentileNearestRank(cp, 0.90), tags, nowUnix),
		point(prefix+".p95", gauge, percentileNearestRank(cp, 0.95), tags, nowUnix),
		point(prefix+".p99", gauge, percentileNearestRank(cp, 0.99), tags, nowUnix),
		point(prefix+".max", gauge, cp[len(cp)-1], tags, nowUnix),
		point(prefix+".samples", gauge, float64(len(cp)), tags, nowUnix),
	)
}

func stepStatusKey(step, status string) string {
	return step + "\x00" + status
}

func splitStepStatusKey(k string) (step, status string) {
	parts := strings.SplitN(k, "\x00", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return k, "unknown"
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	return append(out, extras...)
}

// percentileNearestRank expects s sorted ascending.
func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses "env:prod,service:menus" into tags.
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
