package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	RequestID() string
}

// Topic constants
const (
	TopicRequest = "request" // UI -> bridge
	TopicTodo    = "todo"    // bridge -> UI
)

// Event type constants. The suffix after the dot is the UI port name.
const (
	EventTypeListRequested   = "request.getTodos"
	EventTypeCreateRequested = "request.createTodo"
	EventTypeDeleteRequested = "request.removeTodo"
	EventTypeTodosReceived   = "todo.receiveTodos"
	EventTypeTodoCreated     = "todo.newTodoCreated"
	EventTypeTodoDeleted     = "todo.todoDeleted"
	EventTypeOperationFailed = "todo.operationFailed"
)

// Operation names carried by OperationFailedEvent.
const (
	OpList   = "list"
	OpCreate = "create"
	OpDelete = "delete"
)

// TodoItem is a todo as the UI sees it. Content is never absent.
type TodoItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// ListRequestedEvent asks the bridge for the full list of todos.
type ListRequestedEvent struct {
	ID        string
	Timestamp time.Time
}

func (e ListRequestedEvent) EventType() string { return EventTypeListRequested }
func (e ListRequestedEvent) RequestID() string { return e.ID }

// CreateRequestedEvent asks the bridge to create a todo with the given content.
type CreateRequestedEvent struct {
	ID        string
	Content   string
	Timestamp time.Time
}

func (e CreateRequestedEvent) EventType() string { return EventTypeCreateRequested }
func (e CreateRequestedEvent) RequestID() string { return e.ID }

// DeleteRequestedEvent asks the bridge to delete the todo identified by TodoID.
type DeleteRequestedEvent struct {
	ID        string
	TodoID    string
	Timestamp time.Time
}

func (e DeleteRequestedEvent) EventType() string { return EventTypeDeleteRequested }
func (e DeleteRequestedEvent) RequestID() string { return e.ID }

// TodosReceivedEvent carries the normalized result of a list call.
type TodosReceivedEvent struct {
	ID        string
	Todos     []TodoItem
	Timestamp time.Time
}

func (e TodosReceivedEvent) EventType() string { return EventTypeTodosReceived }
func (e TodosReceivedEvent) RequestID() string { return e.ID }

// TodoCreatedEvent carries the content of a todo the service created.
type TodoCreatedEvent struct {
	ID        string
	Content   string
	Timestamp time.Time
}

func (e TodoCreatedEvent) EventType() string { return EventTypeTodoCreated }
func (e TodoCreatedEvent) RequestID() string { return e.ID }

// TodoDeletedEvent carries the id of a todo the service confirmed deleted.
type TodoDeletedEvent struct {
	ID        string
	TodoID    string
	Timestamp time.Time
}

func (e TodoDeletedEvent) EventType() string { return EventTypeTodoDeleted }
func (e TodoDeletedEvent) RequestID() string { return e.ID }

// OperationFailedEvent is published when a remote call returns an error.
// A call that succeeds without a record is not a failure and produces no event.
type OperationFailedEvent struct {
	ID        string
	Op        string
	Reason    string
	Timestamp time.Time
}

func (e OperationFailedEvent) EventType() string { return EventTypeOperationFailed }
func (e OperationFailedEvent) RequestID() string { return e.ID }
