package events

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultBufSize = 256

// EventBus carries typed events between the UI runtime and the bridge.
// Requests travel on TopicRequest, results on TopicTodo.
type EventBus struct {
	mu       sync.RWMutex
	subs     map[string][]chan Event // topic -> subscriber channels
	allSubs  []chan Event
	reliable map[string][]*reliableSub
	closed   bool

	done     chan struct{} // closed by Close before it takes mu
	doneOnce sync.Once
}

// reliableSub is a subscription Publish waits on instead of dropping.
type reliableSub struct {
	ch       chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs:     make(map[string][]chan Event),
		reliable: make(map[string][]*reliableSub),
		done:     make(chan struct{}),
	}
}

// NewRequestID returns an id used to correlate a request with its result.
func NewRequestID() string {
	return uuid.NewString()
}

// TopicOf returns the topic an event belongs on, derived from its type.
func TopicOf(ev Event) string {
	t := ev.EventType()
	if i := strings.IndexByte(t, '.'); i > 0 {
		return t[:i]
	}
	return t
}

// Subscribe returns a channel receiving every event published to topic.
// bufSize defaults to 256 when <= 0.
func (b *EventBus) Subscribe(topic string, bufSize int) <-chan Event {
	ch := newSubChan(bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// SubscribeAll returns a channel receiving events from every topic.
func (b *EventBus) SubscribeAll(bufSize int) <-chan Event {
	ch := newSubChan(bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	b.allSubs = append(b.allSubs, ch)
	return ch
}

// SubscribeReliable returns a channel that receives every event published to
// topic. Unlike Subscribe, nothing is dropped: Publish waits for buffer space
// until the subscription is cancelled or the bus is closed. The subscriber
// must keep reading, and must call cancel when it stops.
func (b *EventBus) SubscribeReliable(topic string, bufSize int) (<-chan Event, func()) {
	sub := &reliableSub{
		ch:   newSubChan(bufSize),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.reliable[topic] = append(b.reliable[topic], sub)
	return sub.ch, func() { b.cancelReliable(topic, sub) }
}

func (b *EventBus) cancelReliable(topic string, sub *reliableSub) {
	// Release any Publish blocked on this subscriber before taking the lock.
	sub.doneOnce.Do(func() { close(sub.done) })

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.reliable[topic]
	for i, s := range subs {
		if s == sub {
			b.reliable[topic] = append(subs[:i:i], subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

func newSubChan(bufSize int) chan Event {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	return make(chan Event, bufSize)
}

// Publish sends event to all subscribers of topic and to all SubscribeAll channels.
// A Subscribe or SubscribeAll channel whose buffer is full misses the event.
// A SubscribeReliable channel is waited on.
func (b *EventBus) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.reliable[topic] {
		select {
		case sub.ch <- event:
		case <-sub.done:
		case <-b.done:
		}
	}

	for _, ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
		}
	}
	for _, ch := range b.allSubs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Emit publishes event on the topic given by TopicOf.
func (b *EventBus) Emit(event Event) {
	b.Publish(TopicOf(event), event)
}

// Close closes the bus and every subscriber channel. Safe to call more than once.
func (b *EventBus) Close() {
	b.doneOnce.Do(func() { close(b.done) })

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.allSubs {
		close(ch)
	}
	for _, subs := range b.reliable {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	b.reliable = nil
}
