package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	json "github.com/goccy/go-json"

	"github.com/trevormunoz/dumbwaiter/internal/document"
)

// ESConfig configures an ESEngine.
type ESConfig struct {
	Addresses []string
	Timeout   time.Duration // per request; 0 disables

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// ESEngine implements Engine over the Elasticsearch REST API. Documents are
// written without a mapping type.
type ESEngine struct {
	client  esapi.Transport
	timeout time.Duration
}

// NewESEngine builds an engine client. No request is made.
func NewESEngine(cfg ESConfig) (*ESEngine, error) {
	c, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ESEngine{client: c, timeout: cfg.Timeout}, nil
}

func (e *ESEngine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

func (e *ESEngine) do(ctx context.Context, req esapi.Request) (Response, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	out := Response{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	if res.IsError() {
		return out, fmt.Errorf("status %s", out)
	}
	return out, nil
}

func encode(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// IndexExists implements Engine.
func (e *ESEngine) IndexExists(ctx context.Context, index string) (bool, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, e.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d", res.StatusCode)
	}
}

// DeleteIndex implements Engine.
func (e *ESEngine) DeleteIndex(ctx context.Context, index string) (Response, error) {
	return e.do(ctx, esapi.IndicesDeleteRequest{Index: []string{index}})
}

// CreateIndex implements Engine.
func (e *ESEngine) CreateIndex(ctx context.Context, index string) (Response, error) {
	return e.do(ctx, esapi.IndicesCreateRequest{Index: index})
}

// PutMapping implements Engine.
func (e *ESEngine) PutMapping(ctx context.Context, index string, mapping map[string]any) (Response, error) {
	body, err := encode(mapping)
	if err != nil {
		return Response{}, err
	}
	return e.do(ctx, esapi.IndicesPutMappingRequest{Index: []string{index}, Body: body})
}

// PutSettings implements Engine.
func (e *ESEngine) PutSettings(ctx context.Context, index string, settings map[string]any) (Response, error) {
	body, err := encode(settings)
	if err != nil {
		return Response{}, err
	}
	return e.do(ctx, esapi.IndicesPutSettingsRequest{Index: []string{index}, Body: body})
}

// Refresh implements Engine.
func (e *ESEngine) Refresh(ctx context.Context, index string) (Response, error) {
	return e.do(ctx, esapi.IndicesRefreshRequest{Index: []string{index}})
}

type bulkResponse struct {
	Errors bool                         `json:"errors"`
	Items  []map[string]bulkItemOutcome `json:"items"`
}

type bulkItemOutcome struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Result string `json:"result"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// Bulk implements Engine.
func (e *ESEngine) Bulk(ctx context.Context, actions []document.IndexAction) ([]ItemResult, error) {
	var buf bytes.Buffer
	if err := WriteBulk(&buf, actions); err != nil {
		return nil, fmt.Errorf("encode bulk body: %w", err)
	}

	res, err := e.do(ctx, esapi.BulkRequest{Body: &buf})
	if err != nil {
		return nil, err
	}

	var br bulkResponse
	if err := json.Unmarshal([]byte(res.Body), &br); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	out := make([]ItemResult, 0, len(br.Items))
	for _, entry := range br.Items {
		for verb, o := range entry {
			r := ItemResult{Verb: verb, ID: o.ID, Status: o.Status, Result: o.Result}
			if o.Error != nil {
				r.Error = o.Error.Type + ": " + o.Error.Reason
			}
			out = append(out, r)
		}
	}
	return out, nil
}
