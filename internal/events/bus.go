// Package events provides in-process pub/sub used to fan out session and
// realtime changes to interested stores.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Topics published by the client.
const (
	TopicSessionChanged = "session.changed"
	TopicMessageInsert  = "realtime.messages.insert"
	TopicFriendChange   = "realtime.friends.change"
)

// Event is a single published event.
type Event struct {
	Topic     string
	Data      any
	Timestamp time.Time
	Source    string
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, ev Event)

// subscription ties a handler to a topic.
type subscription struct {
	id      int
	topic   string
	handler Handler
}

// Bus is a minimal pub/sub bus. Delivery is synchronous per subscriber so
// that a session-change event is fully applied before Publish returns;
// handlers must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for a topic and returns a cancel function.
// Cancelling is safe after the bus is closed.
func (b *Bus) Subscribe(topic string, h Handler) (cancel func(), err error) {
	if h == nil {
		return nil, fmt.Errorf("handler is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("event bus is closed")
	}

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, topic: topic, handler: h})

	return func() { b.unsubscribe(topic, id) }, nil
}

func (b *Bus) unsubscribe(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to all current subscribers of the topic.
func (b *Bus) Publish(ctx context.Context, topic, source string, data any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	subs := make([]subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	ev := Event{
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now(),
		Source:    source,
	}
	for _, s := range subs {
		s.handler(ctx, ev)
	}
	return nil
}

// Close drops all subscriptions; further Publish/Subscribe calls fail.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string][]subscription)
}
