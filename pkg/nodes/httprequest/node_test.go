package httprequest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dukex/fluxrt/pkg/models"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T, data map[string]any, errs *tracing.MemorySink) *Node {
	t.Helper()

	n, err := New(module.Params{
		ModuleID:      "http",
		Schema:        Schema,
		Configuration: models.ModuleConfiguration{Data: data},
		ErrorSinks:    []tracing.Sink{errs},
	})
	require.NoError(t, err)

	return n
}

func trigger(t *testing.T, n *Node, message models.Message) {
	t.Helper()

	input, err := n.GetInputSlot(module.DefaultInputID)
	require.NoError(t, err)

	input.Trigger(nil, message)
}

func TestRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/42", r.URL.Path)
		assert.JSONEq(t, `{"name": "alice"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	n := newNode(t, map[string]any{
		"url":    server.URL + "/users/{{ .data.id }}",
		"method": "post",
		"body":   `{"name": "{{ .data.name }}"}`,
	}, tracing.NewMemorySink())

	trigger(t, n, models.Message{Data: map[string]any{"id": 42, "name": "alice"}})

	last, ok := n.Output().Slot().Last()
	require.True(t, ok)

	response, ok := last.Data.(*Response)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, map[string]any{"ok": true}, response.JSON)
}

func TestRequestCached(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("pong"))
	}))
	defer server.Close()

	n := newNode(t, map[string]any{"url": server.URL, "cache": true}, tracing.NewMemorySink())

	trigger(t, n, models.Message{Data: 1})
	trigger(t, n, models.Message{Data: 2})

	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	n := newNode(t, map[string]any{"url": server.URL, "retries": 2}, tracing.NewMemorySink())
	trigger(t, n, models.Message{})

	last, ok := n.Output().Slot().Last()
	require.True(t, ok)
	assert.Equal(t, "ok", last.Data.(*Response).Body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	errs := tracing.NewMemorySink()
	n := newNode(t, map[string]any{"url": server.URL, "retries": 3}, errs)
	trigger(t, n, models.Message{})

	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, errs.Entries(), 1)

	var httpErr *HTTPError
	require.ErrorAs(t, errs.Last().Err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}
