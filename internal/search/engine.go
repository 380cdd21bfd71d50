// Package search owns everything that talks to the search engine: index
// setup, the field mapping, and the batched bulk writer.
package search

import (
	"context"
	"fmt"

	"github.com/trevormunoz/dumbwaiter/internal/document"
)

// Engine is the subset of the search engine API the pipeline consumes.
type Engine interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	DeleteIndex(ctx context.Context, index string) (Response, error)
	CreateIndex(ctx context.Context, index string) (Response, error)
	PutMapping(ctx context.Context, index string, mapping map[string]any) (Response, error)
	PutSettings(ctx context.Context, index string, settings map[string]any) (Response, error)
	Refresh(ctx context.Context, index string) (Response, error)

	// Bulk submits actions and returns one result per action, in order.
	// A non-nil error means the request as a whole failed.
	Bulk(ctx context.Context, actions []document.IndexAction) ([]ItemResult, error)
}

// Response is an acknowledged engine response, kept for logging.
type Response struct {
	Status int
	Body   string
}

func (r Response) String() string {
	return fmt.Sprintf("%d %s", r.Status, r.Body)
}

// ItemResult is the engine's verdict on one bulk action.
type ItemResult struct {
	Verb   string
	ID     string
	Status int
	Result string // "created", "updated", ...
	Error  string // empty on success
}

// OK reports whether the action succeeded.
func (r ItemResult) OK() bool {
	return r.Error == "" && r.Status >= 200 && r.Status < 300
}

// EngineError wraps a failed engine call.
type EngineError struct {
	Op    string
	Index string
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("search: %s %s: %v", e.Op, e.Index, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
