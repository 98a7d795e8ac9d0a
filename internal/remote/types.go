package remote

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Todo is a record as the data service returns it. Content may be absent.
type Todo struct {
	ID        string    `json:"id"`
	Content   *string   `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContentOrEmpty returns the content, or "" when the record has none.
func (t Todo) ContentOrEmpty() string {
	if t.Content == nil {
		return ""
	}
	return *t.Content
}

// CreateInput is the body of a create call.
type CreateInput struct {
	Content string `json:"content"`
}

// ErrorDetail is one entry of a response's errors list.
type ErrorDetail struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
}

// Envelope wraps every data service response. Data is null when the
// service produced no record; Errors then says why.
type Envelope[T any] struct {
	Data   T             `json:"data"`
	Errors []ErrorDetail `json:"errors,omitempty"`
}

// Service is the data service contract the bridge consumes.
// Create and Delete return nil, nil when the service produced no record.
type Service interface {
	List(ctx context.Context) ([]Todo, error)
	Create(ctx context.Context, content string) (*Todo, error)
	Delete(ctx context.Context, id string) (*Todo, error)
}

// APIError is returned for responses that are failures rather than rejections.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("data service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("data service returned status %d: %s", e.StatusCode, joinMessages(e.Errors))
}

func joinMessages(errs []ErrorDetail) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.ErrorType != "" {
			msgs = append(msgs, e.ErrorType+": "+e.Message)
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
