package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/aristath/todobridge/internal/config"
)

const (
	apiKeyHeader   = "x-api-key"
	maxResponseLen = 8 << 20
)

// Client talks to the data service over HTTP. It is built once at start-up
// and shared by every request; it keeps no per-call state.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient builds a client from the data section of the configuration.
func NewClient(cfg config.DataConfig, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing data url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("data url %q: unsupported scheme", cfg.URL)
	}

	timeout, err := cfg.ClientTimeout()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}
	if cfg.DefaultAuthorizationType != config.AuthModeNone {
		c.apiKey = cfg.APIKey
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches every todo.
func (c *Client) List(ctx context.Context) ([]Todo, error) {
	var env Envelope[[]Todo]
	status, err := c.do(ctx, http.MethodGet, "todos", nil, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil && len(env.Errors) > 0 {
		return nil, &APIError{StatusCode: status, Errors: env.Errors}
	}
	if env.Data == nil {
		return []Todo{}, nil
	}
	return env.Data, nil
}

// Create asks the service to create a todo with content.
func (c *Client) Create(ctx context.Context, content string) (*Todo, error) {
	var env Envelope[*Todo]
	if _, err := c.do(ctx, http.MethodPost, "todos", CreateInput{Content: content}, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		logRejected("create", env.Errors)
	}
	return env.Data, nil
}

// Delete asks the service to delete the todo with id.
// Ids that would not address a single todo are refused without a request.
func (c *Client) Delete(ctx context.Context, id string) (*Todo, error) {
	switch id {
	case "", ".", "..":
		return nil, fmt.Errorf("delete: invalid todo id %q", id)
	}

	var env Envelope[*Todo]
	if _, err := c.do(ctx, http.MethodDelete, "todos/"+url.PathEscape(id), nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		logRejected("delete", env.Errors)
	}
	return env.Data, nil
}

func logRejected(op string, errs []ErrorDetail) {
	if len(errs) == 0 {
		log.Printf("remote: %s returned no record", op)
		return
	}
	log.Printf("remote: %s returned no record: %s", op, joinMessages(errs))
}

// do performs one request and decodes the envelope into out.
// Auth failures, server errors and undecodable bodies are errors; other
// statuses carry an envelope that the caller inspects.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, endpoint.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLen))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading %s %s response: %w", method, endpoint.Path, err)
	}

	if isFailureStatus(resp.StatusCode) {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env Envelope[json.RawMessage]
		if json.Unmarshal(data, &env) == nil {
			apiErr.Errors = env.Errors
		}
		return resp.StatusCode, apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding %s %s response (status %d): %w", method, endpoint.Path, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

func isFailureStatus(code int) bool {
	switch {
	case code >= 500:
		return true
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusTooManyRequests:
		return true
	case code < 200:
		return true
	}
	return false
}
