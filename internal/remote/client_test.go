package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/todobridge/internal/config"
)

// newTestClient starts handler on an httptest server and returns a client for it.
func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.DataConfig)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DataConfig{
		URL:                      srv.URL,
		APIKey:                   "test-key",
		DefaultAuthorizationType: config.AuthModeAPIKey,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func strPtr(s string) *string { return &s }

func TestListSendsAPIKeyAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/todos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", got)
		}
		writeJSON(w, http.StatusOK, Envelope[[]Todo]{Data: []Todo{
			{ID: "1", Content: strPtr("first")},
			{ID: "2"},
		}})
	})

	todos, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("expected 2 todos, got %d", len(todos))
	}
	if todos[0].ContentOrEmpty() != "first" {
		t.Errorf("todos[0] content = %q", todos[0].ContentOrEmpty())
	}
	if todos[1].Content != nil {
		t.Errorf("todos[1] content should be absent, got %q", *todos[1].Content)
	}
}

func TestListNullDataWithErrorsFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":null,"errors":[{"message":"bad filter"}]}`))
	})

	_, err := c.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
}

func TestListNullDataIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	})

	todos, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", todos)
	}
}

func TestCreate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/todos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var in CreateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		writeJSON(w, http.StatusCreated, Envelope[*Todo]{Data: &Todo{ID: "x", Content: strPtr(in.Content)}})
	})

	todo, err := c.Create(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if todo == nil || todo.ID != "x" || todo.ContentOrEmpty() != "hello" {
		t.Fatalf("unexpected todo %+v", todo)
	}
}

func TestCreateRejectedReturnsNoRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, Envelope[*Todo]{Errors: []ErrorDetail{{Message: "content too long", ErrorType: "ValidationError"}}})
	})

	todo, err := c.Create(context.Background(), "hello")
	if err != nil {
		t.Fatalf("expected rejection to be silent, got %v", err)
	}
	if todo != nil {
		t.Fatalf("expected no record, got %+v", todo)
	}
}

func TestDeleteEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.EscapedPath() != "/todos/a%2Fb" {
			t.Errorf("escaped path = %s", r.URL.EscapedPath())
		}
		writeJSON(w, http.StatusOK, Envelope[*Todo]{Data: &Todo{ID: "a/b"}})
	})

	todo, err := c.Delete(context.Background(), "a/b")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if todo == nil || todo.ID != "a/b" {
		t.Fatalf("unexpected todo %+v", todo)
	}
}

func TestDeleteRejectsPathIDs(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(w, http.StatusOK, Envelope[*Todo]{Data: &Todo{ID: "x"}})
	})

	for _, id := range []string{"", ".", ".."} {
		todo, err := c.Delete(context.Background(), id)
		if err == nil || todo != nil {
			t.Errorf("Delete(%q) = %+v, %v; want error", id, todo, err)
		}
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestDeleteNotFoundReturnsNoRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Envelope[*Todo]{Errors: []ErrorDetail{{Message: "not found"}}})
	})

	todo, err := c.Delete(context.Background(), "missing")
	if err != nil || todo != nil {
		t.Fatalf("Delete = %+v, %v; want nil, nil", todo, err)
	}
}

func TestFailureStatuses(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, Envelope[*Todo]{Errors: []ErrorDetail{{Message: "nope"}}})
		})

		_, err := c.Create(context.Background(), "x")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("status %d: expected *APIError, got %v", status, err)
			continue
		}
		if apiErr.StatusCode != status {
			t.Errorf("status %d: APIError.StatusCode = %d", status, apiErr.StatusCode)
		}
		if len(apiErr.Errors) != 1 || apiErr.Errors[0].Message != "nope" {
			t.Errorf("status %d: errors = %+v", status, apiErr.Errors)
		}
	}
}

func TestUndecodableBodyFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	})

	if _, err := c.Delete(context.Background(), "id"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestAuthModeNoneOmitsKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Api-Key"]; ok {
			t.Error("x-api-key must not be sent in NONE mode")
		}
		writeJSON(w, http.StatusOK, Envelope[[]Todo]{Data: []Todo{}})
	}, func(d *config.DataConfig) {
		d.DefaultAuthorizationType = config.AuthModeNone
	})

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
}

func TestBaseURLWithPathPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/todos" {
			t.Errorf("path = %s, want /api/v1/todos", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, Envelope[[]Todo]{Data: []Todo{}})
	}))
	defer srv.Close()

	c, err := NewClient(config.DataConfig{URL: srv.URL + "/api/v1/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
}

func TestTransportTimeout(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	}, func(d *config.DataConfig) {
		d.Timeout = "50ms"
	})
	defer close(block)

	start := time.Now()
	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient(config.DataConfig{URL: "ftp://example.test"}); err == nil {
		t.Fatal("expected error for ftp scheme")
	}
	if _, err := NewClient(config.DataConfig{URL: "http://example.test", Timeout: "later"}); err == nil {
		t.Fatal("expected error for bad timeout")
	}
}
