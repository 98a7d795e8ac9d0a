// Package sandbox serves the data API locally, backed by SQLite, so the
// bridge can be developed and tested without the hosted backend.
package sandbox

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aristath/todobridge/internal/config"
	"github.com/aristath/todobridge/internal/persistence"
	"github.com/aristath/todobridge/internal/remote"
)

const (
	maxRequestBody  = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Server is the sandbox data service.
type Server struct {
	store  persistence.Store
	cfg    config.SandboxConfig
	router *mux.Router
	newID  func() string
}

// NewServer creates a server storing todos in store.
func NewServer(store persistence.Store, cfg config.SandboxConfig) *Server {
	s := &Server{
		store: store,
		cfg:   cfg,
		newID: uuid.NewString,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK\n"))
	}).Methods(http.MethodGet)

	r.Handle("/todos", s.requireAPIKey(http.HandlerFunc(s.handleList))).Methods(http.MethodGet)
	r.Handle("/todos", s.requireAPIKey(http.HandlerFunc(s.handleCreate))).Methods(http.MethodPost)
	r.Handle("/todos/{id}", s.requireAPIKey(http.HandlerFunc(s.handleGet))).Methods(http.MethodGet)
	r.Handle("/todos/{id}", s.requireAPIKey(http.HandlerFunc(s.handleDelete))).Methods(http.MethodDelete)

	return r
}

// Handler returns the HTTP handler serving the data API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Printf("sandbox: serving data API on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	todos, err := s.store.ListTodos(r.Context())
	if err != nil {
		log.Printf("sandbox: list: %v", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to list todos")
		return
	}

	out := make([]remote.Todo, len(todos))
	for i, t := range todos {
		out[i] = toWire(t)
	}
	writeJSON(w, http.StatusOK, remote.Envelope[[]remote.Todo]{Data: out})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content *string `json:"content"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid request body: "+err.Error())
		return
	}

	if in.Content != nil && s.cfg.MaxContentLength > 0 && utf8.RuneCountInString(*in.Content) > s.cfg.MaxContentLength {
		writeError(w, http.StatusBadRequest, "ValidationError",
			fmt.Sprintf("content exceeds %d characters", s.cfg.MaxContentLength))
		return
	}

	todo, err := s.store.CreateTodo(r.Context(), persistence.Todo{
		ID:      s.newID(),
		Content: in.Content,
	})
	if err != nil {
		log.Printf("sandbox: create: %v", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to create todo")
		return
	}

	wire := toWire(todo)
	writeJSON(w, http.StatusCreated, remote.Envelope[*remote.Todo]{Data: &wire})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	todo, err := s.store.GetTodo(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("todo %q not found", id))
		return
	}
	if err != nil {
		log.Printf("sandbox: get %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to get todo")
		return
	}

	wire := toWire(todo)
	writeJSON(w, http.StatusOK, remote.Envelope[*remote.Todo]{Data: &wire})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	todo, err := s.store.DeleteTodo(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", fmt.Sprintf("todo %q not found", id))
		return
	}
	if err != nil {
		log.Printf("sandbox: delete %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to delete todo")
		return
	}

	wire := toWire(todo)
	writeJSON(w, http.StatusOK, remote.Envelope[*remote.Todo]{Data: &wire})
}

// requireAPIKey rejects requests without the configured key. No key configured: open.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" {
			got := r.Header.Get("x-api-key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.APIKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "UnauthorizedException", "valid API key required")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("sandbox: %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

func toWire(t persistence.Todo) remote.Todo {
	return remote.Todo{
		ID:        t.ID,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("sandbox: encoding response: %v", err)
	}
}

// writeError writes an envelope with null data and a single error.
func writeError(w http.ResponseWriter, status int, errorType, message string) {
	writeJSON(w, status, remote.Envelope[*remote.Todo]{
		Errors: []remote.ErrorDetail{{Message: message, ErrorType: errorType}},
	})
}
