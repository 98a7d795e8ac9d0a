// Package bridge translates UI requests into data service calls and
// publishes the results back to the UI.
//
// Each request becomes exactly one remote call, issued immediately on its
// own goroutine. Handlers share no state, so concurrent requests never
// observe each other. Nothing is retried and nothing is cached.
package bridge

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/todobridge/internal/events"
	"github.com/aristath/todobridge/internal/remote"
)

// Bridge connects the event bus to a data service.
type Bridge struct {
	svc remote.Service
	bus *events.EventBus
	now func() time.Time
}

// New creates a bridge that serves requests from bus using svc.
func New(svc remote.Service, bus *events.EventBus) *Bridge {
	return &Bridge{
		svc: svc,
		bus: bus,
		now: time.Now,
	}
}

// Start subscribes immediately and serves requests in the background until
// ctx is cancelled or the bus is closed, then waits for in-flight handlers.
// The returned channel yields the loop's result once it has exited. Handler
// failures never stop the loop.
//
// Requests are read from a reliable subscription, so a burst of requests is
// never dropped: each one reaches exactly one remote call.
func (b *Bridge) Start(ctx context.Context) <-chan error {
	sub, cancel := b.bus.SubscribeReliable(events.TopicRequest, 0)
	done := make(chan error, 1)
	go func() {
		done <- b.serve(ctx, sub, cancel)
	}()
	return done
}

func (b *Bridge) serve(ctx context.Context, sub <-chan events.Event, unsubscribe func()) error {
	var g errgroup.Group
	defer g.Wait()
	// Stop accepting requests before waiting on the ones in flight.
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			b.dispatch(ctx, &g, ev)
		}
	}
}

// dispatch starts the handler for ev. Unknown events are ignored.
func (b *Bridge) dispatch(ctx context.Context, g *errgroup.Group, ev events.Event) {
	// In-flight calls are not aborted when the loop stops.
	callCtx := context.WithoutCancel(ctx)

	switch req := ev.(type) {
	case events.ListRequestedEvent:
		g.Go(func() error {
			b.HandleListRequested(callCtx, req.ID)
			return nil
		})
	case events.CreateRequestedEvent:
		g.Go(func() error {
			b.HandleCreateRequested(callCtx, req.ID, req.Content)
			return nil
		})
	case events.DeleteRequestedEvent:
		g.Go(func() error {
			b.HandleDeleteRequested(callCtx, req.ID, req.TodoID)
			return nil
		})
	default:
		log.Printf("bridge: ignoring unexpected event %s", ev.EventType())
	}
}

// HandleListRequested fetches every todo and publishes them in service order,
// with absent content replaced by "".
func (b *Bridge) HandleListRequested(ctx context.Context, requestID string) {
	records, err := b.svc.List(ctx)
	if err != nil {
		b.fail(requestID, events.OpList, err)
		return
	}

	b.bus.Emit(events.TodosReceivedEvent{
		ID:        requestID,
		Todos:     Normalize(records),
		Timestamp: b.now(),
	})
}

// HandleCreateRequested creates a todo and, if the service returned the
// created record, publishes its content. No record means no event.
func (b *Bridge) HandleCreateRequested(ctx context.Context, requestID, content string) {
	record, err := b.svc.Create(ctx, content)
	if err != nil {
		b.fail(requestID, events.OpCreate, err)
		return
	}
	if record == nil {
		return
	}

	b.bus.Emit(events.TodoCreatedEvent{
		ID:        requestID,
		Content:   record.ContentOrEmpty(),
		Timestamp: b.now(),
	})
}

// HandleDeleteRequested deletes a todo and, if the service confirmed it,
// publishes the requested id. No confirmation means no event.
func (b *Bridge) HandleDeleteRequested(ctx context.Context, requestID, id string) {
	record, err := b.svc.Delete(ctx, id)
	if err != nil {
		b.fail(requestID, events.OpDelete, err)
		return
	}
	if record == nil {
		return
	}

	b.bus.Emit(events.TodoDeletedEvent{
		ID:        requestID,
		TodoID:    id,
		Timestamp: b.now(),
	})
}

func (b *Bridge) fail(requestID, op string, err error) {
	log.Printf("bridge: %s failed: %v", op, err)
	b.bus.Emit(events.OperationFailedEvent{
		ID:        requestID,
		Op:        op,
		Reason:    err.Error(),
		Timestamp: b.now(),
	})
}

// Normalize converts service records to UI items, keeping order and count.
func Normalize(records []remote.Todo) []events.TodoItem {
	items := make([]events.TodoItem, len(records))
	for i, r := range records {
		items[i] = events.TodoItem{ID: r.ID, Content: r.ContentOrEmpty()}
	}
	return items
}
