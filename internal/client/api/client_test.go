package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/pkg/api"
)

func todoHandler(hits *atomic.Int64, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]api.Todo{{ID: 1001, Title: "Buy milk"}})
	}
}

func TestPrimaryEndpointAnswers(t *testing.T) {
	var primaryHits, mirrorHits atomic.Int64

	primary := httptest.NewServer(todoHandler(&primaryHits, http.StatusOK))
	defer primary.Close()
	mirror := httptest.NewServer(todoHandler(&mirrorHits, http.StatusOK))
	defer mirror.Close()

	client := NewClient(primary.URL, mirror.URL)

	todos, err := client.ListTodos(context.Background(), "token")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, int64(1001), todos[0].ID)

	assert.Equal(t, int64(1), primaryHits.Load())
	assert.Equal(t, int64(0), mirrorHits.Load(), "mirror must not be hit when primary answers")
}

func TestFallbackToMirror(t *testing.T) {
	var mirrorHits atomic.Int64

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	primary.Close() // primary is down

	mirror := httptest.NewServer(todoHandler(&mirrorHits, http.StatusOK))
	defer mirror.Close()

	client := NewClient(primary.URL, mirror.URL)

	todos, err := client.ListTodos(context.Background(), "token")
	require.NoError(t, err)
	assert.Len(t, todos, 1)
	assert.Equal(t, int64(1), mirrorHits.Load())
}

func TestFallbackOnServerError(t *testing.T) {
	var primaryHits, mirrorHits atomic.Int64

	primary := httptest.NewServer(todoHandler(&primaryHits, http.StatusInternalServerError))
	defer primary.Close()
	mirror := httptest.NewServer(todoHandler(&mirrorHits, http.StatusOK))
	defer mirror.Close()

	client := NewClient(primary.URL, mirror.URL)

	_, err := client.ListTodos(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, int64(1), primaryHits.Load())
	assert.Equal(t, int64(1), mirrorHits.Load())
}

func TestAllEndpointsFail(t *testing.T) {
	var hits atomic.Int64

	srv := httptest.NewServer(todoHandler(&hits, http.StatusServiceUnavailable))
	defer srv.Close()

	client := NewClient(srv.URL, srv.URL)

	_, err := client.ListTodos(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, int64(2), hits.Load(), "both endpoints tried in sequence")
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Todo{ID: 5})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	_, err := client.CreateTodo(context.Background(), "secret-token", api.Todo{ID: 5, Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestDeleteTodo(t *testing.T) {
	var method, path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	require.NoError(t, client.DeleteTodo(context.Background(), "token", 1001))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/v1/todos/1001", path)
}
