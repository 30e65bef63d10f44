package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwire/taskwire/internal/server/storage/sqlite"
	"github.com/taskwire/taskwire/pkg/api"
)

// recordingBroadcaster captures fan-outs instead of pushing to websockets.
type recordingBroadcaster struct {
	mu       sync.Mutex
	changes  []api.ChangeEvent
	excluded []string
}

func (b *recordingBroadcaster) BroadcastChange(change api.ChangeEvent, excludeUserID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
	b.excluded = append(b.excluded, excludeUserID)
}

func newTodosHandler(t *testing.T) (*TodosHandler, *recordingBroadcaster) {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	b := &recordingBroadcaster{}
	return NewTodosHandler(testLogger(), store, b), b
}

func authedRequest(method, path string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	ctx = context.WithValue(ctx, UsernameKey, "user-"+userID)
	return req.WithContext(ctx)
}

func createTodo(t *testing.T, h *TodosHandler, todo api.Todo, userID string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(todo)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/v1/todos", body, userID))
	return rec
}

func updateTodo(t *testing.T, h *TodosHandler, todo api.Todo, userID string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(todo)
	require.NoError(t, err)

	req := authedRequest(http.MethodPut, "/api/v1/todos/"+strconv.FormatInt(todo.ID, 10), body, userID)
	req.SetPathValue("id", strconv.FormatInt(todo.ID, 10))
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	return rec
}

func TestCreateTodoBroadcasts(t *testing.T) {
	h, b := newTodosHandler(t)

	rec := createTodo(t, h, api.Todo{ID: 1001, Title: "Buy milk", LastModified: 1000}, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created api.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "u1", created.OwnerID, "owner defaults to the authenticated user")

	require.Len(t, b.changes, 1)
	assert.Equal(t, "created", b.changes[0].Type)
	assert.Equal(t, "u1", b.excluded[0], "origin is excluded from its own broadcast")
}

func TestCreateReplayIsIdempotent(t *testing.T) {
	h, b := newTodosHandler(t)

	todo := api.Todo{ID: 1001, Title: "Buy milk", LastModified: 1000}
	require.Equal(t, http.StatusCreated, createTodo(t, h, todo, "u1").Code)

	// same operation replayed after a dropped response: no second broadcast
	rec := createTodo(t, h, todo, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, b.changes, 1)
}

func TestUpdateLastWriteWins(t *testing.T) {
	h, b := newTodosHandler(t)

	require.Equal(t, http.StatusCreated,
		createTodo(t, h, api.Todo{ID: 1001, Title: "v2", LastModified: 2000}, "u1").Code)

	// a stale concurrent write answers with the stored winner
	rec := updateTodo(t, h, api.Todo{ID: 1001, Title: "v1", LastModified: 1000}, "u2")
	require.Equal(t, http.StatusOK, rec.Code)

	var winner api.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &winner))
	assert.Equal(t, "v2", winner.Title)
	assert.Len(t, b.changes, 1, "a losing write is not broadcast")

	// a newer write goes through
	rec = updateTodo(t, h, api.Todo{ID: 1001, Title: "v3", LastModified: 3000}, "u2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, b.changes, 2)
}

func TestUpdatePathIDMismatch(t *testing.T) {
	h, _ := newTodosHandler(t)

	body, err := json.Marshal(api.Todo{ID: 1002, Title: "x", LastModified: 1})
	require.NoError(t, err)

	req := authedRequest(http.MethodPut, "/api/v1/todos/1001", body, "u1")
	req.SetPathValue("id", "1001")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTodo(t *testing.T) {
	h, b := newTodosHandler(t)

	require.Equal(t, http.StatusCreated,
		createTodo(t, h, api.Todo{ID: 1001, Title: "doomed", LastModified: 1000}, "u1").Code)

	req := authedRequest(http.MethodDelete, "/api/v1/todos/1001", nil, "u2")
	req.SetPathValue("id", "1001")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	require.Len(t, b.changes, 2)
	assert.Equal(t, "deleted", b.changes[1].Type)

	// racing delete: still 204, but no duplicate broadcast
	req = authedRequest(http.MethodDelete, "/api/v1/todos/1001", nil, "u1")
	req.SetPathValue("id", "1001")
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, b.changes, 2)
}

func TestListTodos(t *testing.T) {
	h, _ := newTodosHandler(t)

	for _, id := range []int64{3, 1, 2} {
		require.Equal(t, http.StatusCreated,
			createTodo(t, h, api.Todo{ID: id, Title: "t", LastModified: 1}, "u1").Code)
	}

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/v1/todos", nil, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var todos []api.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	require.Len(t, todos, 3)
	assert.Equal(t, int64(1), todos[0].ID)
}
