package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskwire/taskwire/internal/server/storage"
	"github.com/taskwire/taskwire/pkg/api"
)

// UpsertTodo stores the todo if it is new or strictly newer than the stored
// row. Возвращает false, если сохраненная запись новее: при конкурирующих
// писателях побеждает больший last_modified, порядок прихода не важен.
func (s *Storage) UpsertTodo(ctx context.Context, todo *api.Todo) (bool, error) {
	query := `
		INSERT INTO todos (id, title, completed, owner_id, last_modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			completed = excluded.completed,
			owner_id = excluded.owner_id,
			last_modified = excluded.last_modified
		WHERE excluded.last_modified > todos.last_modified
	`

	result, err := s.db.ExecContext(ctx, query,
		todo.ID,
		todo.Title,
		todo.Completed,
		todo.OwnerID,
		todo.LastModified,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert todo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// GetTodo retrieves one todo by id
func (s *Storage) GetTodo(ctx context.Context, id int64) (*api.Todo, error) {
	query := `
		SELECT id, title, completed, owner_id, last_modified
		FROM todos
		WHERE id = ?
	`

	todo := &api.Todo{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&todo.ID,
		&todo.Title,
		&todo.Completed,
		&todo.OwnerID,
		&todo.LastModified,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return todo, nil
}

// ListTodos returns the whole collection ordered by id
func (s *Storage) ListTodos(ctx context.Context) ([]api.Todo, error) {
	query := `
		SELECT id, title, completed, owner_id, last_modified
		FROM todos
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]api.Todo, 0)
	for rows.Next() {
		var todo api.Todo
		if err := rows.Scan(
			&todo.ID,
			&todo.Title,
			&todo.Completed,
			&todo.OwnerID,
			&todo.LastModified,
		); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}

// DeleteTodo removes a todo. Deleting an absent todo is a no-op.
func (s *Storage) DeleteTodo(ctx context.Context, id int64) error {
	query := `DELETE FROM todos WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	return nil
}
