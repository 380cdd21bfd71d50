package search

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/trevormunoz/dumbwaiter/internal/document"
)

// fakeEngine is an in-memory Engine. Bulk rejects ids listed in reject.
type fakeEngine struct {
	mu       sync.Mutex
	ops      []string
	indices  map[string]*fakeIndex
	reject   map[int64]string
	failOp   string
	bulkErr  error
	requests int
}

type fakeIndex struct {
	mapping  map[string]any
	settings []map[string]any
	docs     map[int64]map[string]any
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{indices: map[string]*fakeIndex{}, reject: map[int64]string{}}
}

var errFake = errors.New("boom")

func (f *fakeEngine) record(op string) error {
	f.ops = append(f.ops, op)
	if f.failOp == op {
		return errFake
	}
	return nil
}

func (f *fakeEngine) IndexExists(_ context.Context, index string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("exists"); err != nil {
		return false, err
	}
	_, ok := f.indices[index]
	return ok, nil
}

func (f *fakeEngine) DeleteIndex(_ context.Context, index string) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return Response{}, err
	}
	delete(f.indices, index)
	return Response{Status: 200, Body: `{"acknowledged":true}`}, nil
}

func (f *fakeEngine) CreateIndex(_ context.Context, index string) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create"); err != nil {
		return Response{}, err
	}
	if _, ok := f.indices[index]; ok {
		return Response{Status: 400}, errors.New("resource_already_exists_exception")
	}
	f.indices[index] = &fakeIndex{docs: map[int64]map[string]any{}}
	return Response{Status: 200, Body: `{"acknowledged":true}`}, nil
}

func (f *fakeEngine) PutMapping(_ context.Context, index string, mapping map[string]any) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("put_mapping"); err != nil {
		return Response{}, err
	}
	f.indices[index].mapping = mapping
	return Response{Status: 200}, nil
}

func (f *fakeEngine) PutSettings(_ context.Context, index string, settings map[string]any) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("put_settings"); err != nil {
		return Response{}, err
	}
	if ix, ok := f.indices[index]; ok {
		ix.settings = append(ix.settings, settings)
	}
	return Response{Status: 200}, nil
}

func (f *fakeEngine) Refresh(_ context.Context, index string) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("refresh"); err != nil {
		return Response{}, err
	}
	return Response{Status: 200}, nil
}

func (f *fakeEngine) Bulk(_ context.Context, actions []document.IndexAction) ([]ItemResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	out := make([]ItemResult, len(actions))
	for i, a := range actions {
		id := strconv.FormatInt(a.ID, 10)
		if reason, bad := f.reject[a.ID]; bad {
			out[i] = ItemResult{Verb: a.Verb, ID: id, Status: 400, Error: reason}
			continue
		}
		if ix, ok := f.indices[a.Index]; ok {
			ix.docs[a.ID] = a.Source
		}
		out[i] = ItemResult{Verb: a.Verb, ID: id, Status: 201, Result: "created"}
	}
	return out, nil
}
