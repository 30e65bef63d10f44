package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taskwire/taskwire/internal/server/storage"
	"github.com/taskwire/taskwire/pkg/api"
)

// Broadcaster fans a confirmed mutation out to connected clients.
// excludeUserID отсекает эхо: автор уже применил изменение локально.
type Broadcaster interface {
	BroadcastChange(change api.ChangeEvent, excludeUserID string)
}

// TodosHandler обрабатывает CRUD запросы к общей коллекции задач
type TodosHandler struct {
	logger      *slog.Logger
	storage     storage.TodoStorage
	broadcaster Broadcaster
}

// NewTodosHandler создает новый handler для задач
func NewTodosHandler(logger *slog.Logger, todoStorage storage.TodoStorage, broadcaster Broadcaster) *TodosHandler {
	return &TodosHandler{
		logger:      logger,
		storage:     todoStorage,
		broadcaster: broadcaster,
	}
}

// List обрабатывает GET /api/v1/todos
// Возвращает всю коллекцию; используется деградировавшими клиентами как
// polling-путь
func (h *TodosHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	todos, err := h.storage.ListTodos(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list todos", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, h.logger, todos, http.StatusOK)
}

// Create обрабатывает POST /api/v1/todos
// Id назначается клиентом; повторный POST той же задачи идемпотентен
// благодаря LWW upsert.
func (h *TodosHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, "created")
}

// Update обрабатывает PUT /api/v1/todos/{id}
func (h *TodosHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, "updated")
}

func (h *TodosHandler) upsert(w http.ResponseWriter, r *http.Request, changeType string) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	var todo api.Todo
	if err := json.NewDecoder(r.Body).Decode(&todo); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode todo", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	if id := r.PathValue("id"); id != "" {
		pathID, err := strconv.ParseInt(id, 10, 64)
		if err != nil || pathID != todo.ID {
			sendError(w, h.logger, "id mismatch", http.StatusBadRequest)
			return
		}
	}

	if todo.ID == 0 {
		sendError(w, h.logger, "id is required", http.StatusBadRequest)
		return
	}
	if changeType == "created" && todo.Title == "" {
		sendError(w, h.logger, "title is required", http.StatusBadRequest)
		return
	}
	if todo.OwnerID == "" {
		todo.OwnerID = userID
	}

	applied, err := h.storage.UpsertTodo(ctx, &todo)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upsert todo", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	if !applied {
		// a newer write already holds the row: confirm with the winner so the
		// caller converges
		current, err := h.storage.GetTodo(ctx, todo.ID)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to load winning todo", slog.Any("error", err))
			sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
			return
		}
		sendJSON(w, h.logger, current, http.StatusOK)
		return
	}

	h.broadcaster.BroadcastChange(api.ChangeEvent{
		Type:      changeType,
		Todo:      todo,
		UserID:    userID,
		Timestamp: todo.LastModified,
	}, userID)

	status := http.StatusOK
	if changeType == "created" {
		status = http.StatusCreated
	}
	sendJSON(w, h.logger, todo, status)
}

// Delete обрабатывает DELETE /api/v1/todos/{id}
// Delete всегда побеждает: timestamp не сравнивается.
func (h *TodosHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		sendError(w, h.logger, "invalid id", http.StatusBadRequest)
		return
	}

	existed := true
	if _, err := h.storage.GetTodo(ctx, id); err != nil {
		if !errors.Is(err, storage.ErrTodoNotFound) {
			h.logger.ErrorContext(ctx, "failed to load todo", slog.Any("error", err))
			sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
			return
		}
		existed = false
	}

	if err := h.storage.DeleteTodo(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete todo", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	// racing deletes are fine, but only the first one broadcasts
	if existed {
		h.broadcaster.BroadcastChange(api.ChangeEvent{
			Type:   "deleted",
			Todo:   api.Todo{ID: id},
			UserID: userID,
		}, userID)
	}

	w.WriteHeader(http.StatusNoContent)
}
