package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trevormunoz/dumbwaiter/internal/metrics"
)

func TestBackend_RecordsAndPushes(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("menus_test", srv.URL)
	require.NoError(t, err)

	b.IncCounter(metrics.DocumentsTotal, 2, metrics.Labels{"status": "ok"})
	b.IncCounter(metrics.DocumentsTotal, 1, metrics.Labels{"status": "failed"})
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"table": "Menu.csv"})
	b.IncCounter("unknown_total", 1, nil)
	b.ObserveHistogram(metrics.BatchDurationSeconds, 0.3, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(b.documents.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.documents.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.batches))
	assert.Equal(t, 5.0, testutil.ToFloat64(b.rows.WithLabelValues("Menu.csv")))

	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasPrefix(path, "/metrics/job/menus_test"), path)
	assert.NotEmpty(t, body)
}

func TestBackend_PushError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.BatchesTotal, 1, nil)

	err = b.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompush: push")
}

func TestNewBackend_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("menus", "")
	require.Error(t, err)
}
