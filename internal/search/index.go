package search

import (
	"context"
	"log/slog"
)

// IndexManager performs the one-time index setup for a run.
type IndexManager struct {
	Engine Engine
	Log    *slog.Logger

	// Replicas restored by FinishBulk.
	Replicas int
}

func (m *IndexManager) log() *slog.Logger {
	if m.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Log
}

// EnsureIndex leaves name as an empty index carrying ItemMapping. An existing
// index is deleted first, so calling it twice ends in the same state. Any
// failure is returned as *EngineError.
//
// Not safe to run concurrently with writes to the same index.
func (m *IndexManager) EnsureIndex(ctx context.Context, name string) error {
	log := m.log()

	exists, err := m.Engine.IndexExists(ctx, name)
	if err != nil {
		return &EngineError{Op: "exists", Index: name, Err: err}
	}
	if exists {
		log.Info("deleting index", "index", name)
		res, err := m.Engine.DeleteIndex(ctx, name)
		if err != nil {
			return &EngineError{Op: "delete", Index: name, Err: err}
		}
		log.Info("response", "op", "delete", "index", name, "response", res.String())
	}

	log.Info("creating index", "index", name)
	res, err := m.Engine.CreateIndex(ctx, name)
	if err != nil {
		return &EngineError{Op: "create", Index: name, Err: err}
	}
	log.Info("response", "op", "create", "index", name, "response", res.String())

	log.Info("creating mapping", "index", name)
	res, err = m.Engine.PutMapping(ctx, name, ItemMapping())
	if err != nil {
		return &EngineError{Op: "put_mapping", Index: name, Err: err}
	}
	log.Info("response", "op", "put_mapping", "index", name, "response", res.String())
	return nil
}

// PrepareBulk disables refresh and replicas for the load. Failures are
// logged and otherwise ignored.
func (m *IndexManager) PrepareBulk(ctx context.Context, name string) {
	if _, err := m.Engine.PutSettings(ctx, name, bulkSettings()); err != nil {
		m.log().Warn("could not apply bulk settings", "index", name, "err", err)
	}
}

// FinishBulk restores serving settings and refreshes the index. Failures
// are logged and otherwise ignored.
func (m *IndexManager) FinishBulk(ctx context.Context, name string) {
	log := m.log()
	if _, err := m.Engine.PutSettings(ctx, name, servingSettings(m.Replicas)); err != nil {
		log.Warn("could not restore index settings", "index", name, "err", err)
	}
	res, err := m.Engine.Refresh(ctx, name)
	if err != nil {
		log.Warn("refresh failed", "index", name, "err", err)
		return
	}
	log.Info("response", "op", "refresh", "index", name, "response", res.String())
}
