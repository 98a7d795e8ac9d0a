package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const queryTimeout = 5 * time.Second

// CreateTodo inserts todo. ID must be set; zero timestamps are filled with now.
func (s *SQLiteStore) CreateTodo(ctx context.Context, todo Todo) (Todo, error) {
	if todo.ID == "" {
		return Todo{}, errors.New("todo id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = now
	}
	if todo.UpdatedAt.IsZero() {
		todo.UpdatedAt = todo.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, todo.ID, nullString(todo.Content), formatTime(todo.CreatedAt), formatTime(todo.UpdatedAt))
	if err != nil {
		return Todo{}, fmt.Errorf("failed to insert todo: %w", err)
	}

	return todo, nil
}

// GetTodo retrieves a todo by id. Returns ErrNotFound if it does not exist.
func (s *SQLiteStore) GetTodo(ctx context.Context, id string) (Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, created_at, updated_at
		FROM todos
		WHERE id = ?
	`, id)

	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, fmt.Errorf("todo %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Todo{}, fmt.Errorf("failed to query todo: %w", err)
	}
	return todo, nil
}

// ListTodos returns all todos in insertion order.
// Returns empty slice (not nil) if there are none.
func (s *SQLiteStore) ListTodos(ctx context.Context) ([]Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, created_at, updated_at
		FROM todos
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// DeleteTodo removes a todo and returns the removed record.
// Returns ErrNotFound if no todo has the given id.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, id string) (Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return Todo{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, content, created_at, updated_at
		FROM todos
		WHERE id = ?
	`, id)
	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, fmt.Errorf("todo %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Todo{}, fmt.Errorf("failed to query todo: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return Todo{}, fmt.Errorf("failed to delete todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Todo{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return todo, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(r rowScanner) (Todo, error) {
	var (
		todo               Todo
		content            sql.NullString
		createdAt, updated string
	)
	if err := r.Scan(&todo.ID, &content, &createdAt, &updated); err != nil {
		return Todo{}, err
	}
	if content.Valid {
		c := content.String
		todo.Content = &c
	}

	var err error
	if todo.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Todo{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if todo.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return Todo{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return todo, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
