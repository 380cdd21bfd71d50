// Package metrics is the process-wide metrics facade. Pipeline code records
// through the package functions; a concrete Backend (Datadog, Pushgateway)
// is installed once at startup. Until then every call is a no-op.
package metrics

import (
	"sync"
	"time"
)

// Metric names.
const (
	StepTotal            = "menus_step_total"
	StepDurationSeconds  = "menus_step_duration_seconds"
	RowsTotal            = "menus_rows_total"
	DocumentsTotal       = "menus_documents_total"
	BatchesTotal         = "menus_batches_total"
	BatchDurationSeconds = "menus_batch_duration_seconds"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b; nil restores the no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a counter.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush pushes buffered observations.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one pipeline stage outcome and its duration.
func RecordStep(step, status string, d time.Duration) {
	l := Labels{"step": step, "status": status}
	IncCounter(StepTotal, 1, l)
	ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}

// RecordRows counts the rows loaded for a source table.
func RecordRows(table string, n int) {
	IncCounter(RowsTotal, float64(n), Labels{"table": table})
}

// RecordDocuments counts documents by bulk outcome ("ok" or "failed").
func RecordDocuments(status string, n int) {
	IncCounter(DocumentsTotal, float64(n), Labels{"status": status})
}

// RecordBatch counts one bulk request and its duration.
func RecordBatch(d time.Duration) {
	IncCounter(BatchesTotal, 1, nil)
	ObserveHistogram(BatchDurationSeconds, d.Seconds(), nil)
}
