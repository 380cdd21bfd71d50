package search

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/trevormunoz/dumbwaiter/internal/document"
	"github.com/trevormunoz/dumbwaiter/internal/metrics"
)

// DefaultBatchSize bounds the number of actions per bulk request.
const DefaultBatchSize = 1000

// DocumentFailure is one action the engine rejected.
type DocumentFailure struct {
	Verb   string
	Path   string
	Status int
	Error  string
}

// Result tallies a bulk load.
type Result struct {
	Succeeded int
	Failed    int
	Batches   int

	// PerPath counts successes by target path ("/menus/item").
	PerPath map[string]int

	Failures []DocumentFailure
}

// BulkLoader streams actions to the engine in bounded batches.
type BulkLoader struct {
	Engine    Engine
	BatchSize int
	Log       *slog.Logger
}

// Load submits every action from seq. Rejected documents are logged and
// counted and never stop the load. A transport failure aborts with
// *EngineError; an error yielded by seq aborts with that error. Nothing
// already written is rolled back.
func (l *BulkLoader) Load(ctx context.Context, seq iter.Seq2[document.IndexAction, error]) (Result, error) {
	log := l.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	size := l.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	res := Result{PerPath: make(map[string]int)}
	batch := make([]document.IndexAction, 0, size)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := l.submit(ctx, log, batch, &res)
		batch = batch[:0]
		return err
	}

	for a, err := range seq {
		if err != nil {
			return res, err
		}
		batch = append(batch, a)
		if len(batch) == size {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	log.Info("bulk load complete", "succeeded", res.Succeeded, "failed", res.Failed, "batches", res.Batches)
	return res, nil
}

func (l *BulkLoader) submit(ctx context.Context, log *slog.Logger, batch []document.IndexAction, res *Result) error {
	start := time.Now()
	items, err := l.Engine.Bulk(ctx, batch)
	metrics.RecordBatch(time.Since(start))
	res.Batches++
	if err != nil {
		return &EngineError{Op: "bulk", Index: batch[0].Index, Err: err}
	}
	if len(items) != len(batch) {
		return &EngineError{
			Op:    "bulk",
			Index: batch[0].Index,
			Err:   fmt.Errorf("got %d results for %d actions", len(items), len(batch)),
		}
	}

	ok, failed := 0, 0
	for i, it := range items {
		a := batch[i]
		verb := it.Verb
		if verb == "" {
			verb = a.Verb
		}
		if !it.OK() {
			failed++
			res.Failed++
			res.Failures = append(res.Failures, DocumentFailure{
				Verb:   verb,
				Path:   a.Path(),
				Status: it.Status,
				Error:  it.Error,
			})
			log.Error(fmt.Sprintf("Failed to %s document %s: %s", verb, a.Path(), it.Error))
			continue
		}
		ok++
		res.Succeeded++
		target := "/" + a.Index + "/" + a.Type
		res.PerPath[target]++
		log.Debug(fmt.Sprintf("%s action succeeded for %d documents", verb, res.PerPath[target]))
	}

	metrics.RecordDocuments("ok", ok)
	metrics.RecordDocuments("failed", failed)
	log.Info("batch submitted",
		"size", len(batch),
		"succeeded", ok,
		"failed", failed,
		"total_succeeded", res.Succeeded,
		"duration", time.Since(start),
	)
	return nil
}
