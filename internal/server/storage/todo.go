package storage

import (
	"context"

	"github.com/taskwire/taskwire/pkg/api"
)

// TodoStorage defines the shared todo collection. Ids are client-assigned;
// concurrent writers are ordered by last_modified (last write wins).
type TodoStorage interface {
	// UpsertTodo stores the todo if it is new or strictly newer than the
	// stored row. Returns false when the stored row won.
	UpsertTodo(ctx context.Context, todo *api.Todo) (bool, error)

	// GetTodo retrieves one todo by id
	// Returns ErrTodoNotFound if it doesn't exist
	GetTodo(ctx context.Context, id int64) (*api.Todo, error)

	// ListTodos returns the whole collection ordered by id
	ListTodos(ctx context.Context) ([]api.Todo, error)

	// DeleteTodo removes a todo. Deleting an absent todo is a no-op: deletes
	// from concurrent clients may race.
	DeleteTodo(ctx context.Context, id int64) error
}
