package bus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// simpleEvent is a basic implementation of Event for callers without their
// own event types.
type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent creates a simple Event implementation.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

// subscription implements Subscription.
type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	active    bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active }
func (s *subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
	s.active = false
}

// inMemoryBus is a thread-safe EventBus delivering synchronously to
// matching handlers.
type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> subscription
	handlers map[string]map[string]*subscription
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers: make(map[string]map[string]*subscription),
	}
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	sub := &subscription{
		id:        id,
		eventType: eventType,
		handler:   handler,
		active:    true,
	}
	sub.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.handlers[eventType]; ok {
			delete(subs, id)
		}
	}

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]*subscription)
	}
	b.handlers[eventType][id] = sub
	return sub
}

func (b *inMemoryBus) Publish(event Event) {
	b.mu.RLock()
	matched := make([]*subscription, 0, 4)
	for _, sub := range b.handlers[event.Type()] {
		matched = append(matched, sub)
	}
	for _, sub := range b.handlers[""] {
		matched = append(matched, sub)
	}
	b.mu.RUnlock()

	for _, sub := range matched {
		if sub.active {
			sub.handler(event)
		}
	}
}
