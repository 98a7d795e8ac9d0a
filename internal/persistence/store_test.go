package persistence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// testStore creates an in-memory store for testing and registers cleanup.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func strPtr(s string) *string { return &s }

func TestCreateAndGetTodo(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.CreateTodo(ctx, Todo{ID: "todo-1", Content: strPtr("buy milk")})
	if err != nil {
		t.Fatalf("failed to create todo: %v", err)
	}
	if created.CreatedAt.IsZero() || !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Errorf("expected timestamps to be filled, got %v / %v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := store.GetTodo(ctx, "todo-1")
	if err != nil {
		t.Fatalf("failed to get todo: %v", err)
	}
	if got.ID != "todo-1" {
		t.Errorf("ID mismatch: got %s, want todo-1", got.ID)
	}
	if got.Content == nil || *got.Content != "buy milk" {
		t.Errorf("Content mismatch: got %v, want 'buy milk'", got.Content)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreateTodoWithoutContent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.CreateTodo(ctx, Todo{ID: "no-content"}); err != nil {
		t.Fatalf("failed to create todo: %v", err)
	}

	got, err := store.GetTodo(ctx, "no-content")
	if err != nil {
		t.Fatalf("failed to get todo: %v", err)
	}
	if got.Content != nil {
		t.Errorf("expected nil content, got %q", *got.Content)
	}
}

func TestCreateTodoRequiresID(t *testing.T) {
	store := testStore(t)
	if _, err := store.CreateTodo(context.Background(), Todo{Content: strPtr("x")}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestCreateTodoDuplicateID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.CreateTodo(ctx, Todo{ID: "dup"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := store.CreateTodo(ctx, Todo{ID: "dup"}); err == nil {
		t.Fatal("expected unique constraint error on duplicate id")
	}
}

func TestListTodosInsertionOrder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Same timestamp for every row: order must come from insertion, not time.
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"c", "a", "b", "e", "d"}
	for _, id := range ids {
		if _, err := store.CreateTodo(ctx, Todo{ID: id, Content: strPtr("item " + id), CreatedAt: ts}); err != nil {
			t.Fatalf("failed to create %s: %v", id, err)
		}
	}

	todos, err := store.ListTodos(ctx)
	if err != nil {
		t.Fatalf("failed to list todos: %v", err)
	}
	if len(todos) != len(ids) {
		t.Fatalf("expected %d todos, got %d", len(ids), len(todos))
	}
	for i, id := range ids {
		if todos[i].ID != id {
			t.Errorf("todos[%d] = %s, want %s", i, todos[i].ID, id)
		}
	}
}

func TestListTodosEmpty(t *testing.T) {
	store := testStore(t)

	todos, err := store.ListTodos(context.Background())
	if err != nil {
		t.Fatalf("failed to list todos: %v", err)
	}
	if todos == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(todos) != 0 {
		t.Errorf("expected 0 todos, got %d", len(todos))
	}
}

func TestDeleteTodo(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.CreateTodo(ctx, Todo{ID: fmt.Sprintf("todo-%d", i), Content: strPtr("x")}); err != nil {
			t.Fatalf("failed to create todo: %v", err)
		}
	}

	deleted, err := store.DeleteTodo(ctx, "todo-1")
	if err != nil {
		t.Fatalf("failed to delete todo: %v", err)
	}
	if deleted.ID != "todo-1" {
		t.Errorf("deleted ID = %s, want todo-1", deleted.ID)
	}

	if _, err := store.GetTodo(ctx, "todo-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	todos, err := store.ListTodos(ctx)
	if err != nil {
		t.Fatalf("failed to list todos: %v", err)
	}
	if len(todos) != 2 || todos[0].ID != "todo-0" || todos[1].ID != "todo-2" {
		t.Errorf("unexpected remaining todos: %+v", todos)
	}
}

func TestDeleteTodoNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.DeleteTodo(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoresAreIsolated(t *testing.T) {
	a := testStore(t)
	b := testStore(t)
	ctx := context.Background()

	if _, err := a.CreateTodo(ctx, Todo{ID: "only-in-a"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	todos, err := b.ListTodos(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 0 {
		t.Errorf("expected second store to be empty, got %d todos", len(todos))
	}
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "sandbox.db")

	store, err := NewSQLiteStore(ctx, dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if _, err := store.CreateTodo(ctx, Todo{ID: "persisted", Content: strPtr("still here")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLiteStore(ctx, dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetTodo(ctx, "persisted")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Content == nil || *got.Content != "still here" {
		t.Errorf("unexpected content after reopen: %v", got.Content)
	}
}

func TestFileStorePragmas(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "pragmas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	var journalMode string
	if err := store.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected journal_mode wal, got %q", journalMode)
	}

	var busyTimeout int
	if err := store.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if busyTimeout != 5000 {
		t.Errorf("expected busy_timeout 5000, got %d", busyTimeout)
	}

	var synchronous int
	if err := store.db.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&synchronous); err != nil {
		t.Fatalf("synchronous: %v", err)
	}
	if synchronous != 1 { // NORMAL
		t.Errorf("expected synchronous NORMAL (1), got %d", synchronous)
	}
}
