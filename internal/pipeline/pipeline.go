// Package pipeline runs one extract, transform and load pass over the menus
// data.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trevormunoz/dumbwaiter/internal/config"
	"github.com/trevormunoz/dumbwaiter/internal/datefmt"
	"github.com/trevormunoz/dumbwaiter/internal/document"
	"github.com/trevormunoz/dumbwaiter/internal/export"
	"github.com/trevormunoz/dumbwaiter/internal/merge"
	"github.com/trevormunoz/dumbwaiter/internal/metrics"
	"github.com/trevormunoz/dumbwaiter/internal/search"
	"github.com/trevormunoz/dumbwaiter/internal/source"
	"github.com/trevormunoz/dumbwaiter/internal/storage"
)

// Runner executes the stages in order. It is single-threaded; a failing
// stage ends the run.
type Runner struct {
	Log *slog.Logger

	// NewEngine builds the search engine client. Defaults to Elasticsearch.
	NewEngine func(cfg config.Engine) (search.Engine, error)

	// OpenMirror opens the SQL mirror. Defaults to storage.New.
	OpenMirror func(ctx context.Context, cfg storage.Config) (storage.Mirror, error)
}

// Summary reports what a run did.
type Summary struct {
	Archive    string
	Files      []string
	Stats      merge.Stats
	Exported   int
	ExportPath string
	Mirrored   int64
	Bulk       search.Result
}

// New returns a Runner with the production engine and mirror.
func New(log *slog.Logger) *Runner {
	return &Runner{Log: log}
}

func (r *Runner) log() *slog.Logger {
	if r.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Log
}

func elasticEngine(cfg config.Engine) (search.Engine, error) {
	return search.NewESEngine(search.ESConfig{
		Addresses: []string{cfg.Address()},
		Timeout:   cfg.Timeout,
	})
}

// stage runs fn, then logs and meters its outcome.
func (r *Runner) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordStep(name, status, d)

	if err != nil {
		r.log().Error(fmt.Sprintf("stage=%s failed duration=%s", name, d.Round(time.Microsecond)), "err", err)
		return err
	}
	r.log().Info(fmt.Sprintf("stage=%s ok duration=%s", name, d.Round(time.Microsecond)))
	return nil
}

// Run performs the full pass described by cfg.
func (r *Runner) Run(ctx context.Context, cfg config.Config) (Summary, error) {
	log := r.log()
	var sum Summary

	log.Info("Starting...", "source", cfg.SourcePath, "dry_run", cfg.DryRun)

	if err := r.stage("find_archive", func() (err error) {
		sum.Archive, err = source.FindArchive(cfg.SourcePath, log)
		return err
	}); err != nil {
		return sum, err
	}

	if err := r.stage("extract", func() error {
		_, err := source.Extract(ctx, sum.Archive, cfg.SourcePath, log)
		if err != nil {
			return err
		}
		sum.Files, err = source.ListCSV(cfg.SourcePath, log)
		return err
	}); err != nil {
		return sum, err
	}

	var tables *source.Tables
	if err := r.stage("load", func() (err error) {
		tables, err = source.Load(ctx, cfg.SourcePath, log)
		return err
	}); err != nil {
		return sum, err
	}
	metrics.RecordRows(source.DishFile, tables.Dish.Len())
	metrics.RecordRows(source.MenuItemFile, tables.MenuItem.Len())
	metrics.RecordRows(source.MenuPageFile, tables.MenuPage.Len())
	metrics.RecordRows(source.MenuFile, tables.Menu.Len())

	var docs []document.MenuDocument
	if err := r.stage("merge", func() (err error) {
		m := &merge.Merger{BaseURL: cfg.BaseURL, Log: log}
		docs, sum.Stats, err = m.Merge(tables)
		return err
	}); err != nil {
		return sum, err
	}
	log.Info(fmt.Sprintf("%d documents to load", len(docs)))

	mapper := document.Mapper{Index: cfg.Engine.Index, Type: cfg.Engine.Type}

	if cfg.ExportDir != "" {
		if err := r.stage("export", func() (err error) {
			w := &export.Writer{Dir: cfg.ExportDir, Log: log}
			sum.ExportPath, sum.Exported, err = w.Write(ctx, mapper.Actions(docs))
			return err
		}); err != nil {
			return sum, err
		}
	}

	if cfg.Mirror.Kind != "" {
		if err := r.stage("mirror", func() (err error) {
			sum.Mirrored, err = r.mirror(ctx, cfg.Mirror, docs)
			return err
		}); err != nil {
			return sum, err
		}
	}

	if cfg.DryRun {
		log.Info("dry run; skipping index load")
		return sum, nil
	}

	newEngine := r.NewEngine
	if newEngine == nil {
		newEngine = elasticEngine
	}
	engine, err := newEngine(cfg.Engine)
	if err != nil {
		return sum, &search.EngineError{Op: "client", Index: cfg.Engine.Index, Err: err}
	}
	im := &search.IndexManager{Engine: engine, Log: log, Replicas: cfg.Engine.Replicas}

	if err := r.stage("ensure_index", func() error {
		return im.EnsureIndex(ctx, cfg.Engine.Index)
	}); err != nil {
		return sum, err
	}

	err = r.stage("bulk", func() (err error) {
		im.PrepareBulk(ctx, cfg.Engine.Index)
		defer im.FinishBulk(context.WithoutCancel(ctx), cfg.Engine.Index)
		bl := &search.BulkLoader{Engine: engine, BatchSize: cfg.BatchSize, Log: log}
		sum.Bulk, err = bl.Load(ctx, mapper.Actions(docs))
		return err
	})
	if err != nil {
		return sum, err
	}

	log.Info("Finished", "succeeded", sum.Bulk.Succeeded, "failed", sum.Bulk.Failed)
	return sum, nil
}

func (r *Runner) mirror(ctx context.Context, cfg config.Mirror, docs []document.MenuDocument) (n int64, err error) {
	open := r.OpenMirror
	if open == nil {
		open = storage.New
	}
	m, err := open(ctx, storage.Config{Kind: cfg.Kind, DSN: cfg.DSN, Table: cfg.Table})
	if err != nil {
		return 0, fmt.Errorf("open mirror %s: %w", cfg.Kind, err)
	}
	defer m.Close()

	table := cfg.Table
	if table == "" {
		table = storage.DefaultTable
	}
	cols := storage.DocumentColumns()
	if err := m.Reset(ctx, table, cols); err != nil {
		return 0, err
	}
	n, err = m.InsertRows(ctx, table, storage.ColumnNames(cols), storage.DocumentRows(docs))
	if err != nil {
		return n, err
	}
	r.log().Info("mirrored documents", "kind", cfg.Kind, "table", table, "rows", n)
	return n, nil
}

// Describe renders err for the top-level failure line, naming the error
// kind: "EngineError: create menus: ...".
func Describe(err error) string {
	var (
		snf *source.SourceNotFoundError
		se  *source.SchemaError
		me  *document.MappingError
		ee  *search.EngineError
		pe  *datefmt.ParseError
	)
	kind := "Error"
	switch {
	case errors.As(err, &snf):
		kind = "SourceNotFoundError"
	case errors.As(err, &se):
		kind = "SchemaError"
	case errors.As(err, &me):
		kind = "MappingError"
	case errors.As(err, &ee):
		kind = "EngineError"
	case errors.As(err, &pe):
		kind = "ParseError"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "Canceled"
	}
	return kind + ": " + err.Error()
}
