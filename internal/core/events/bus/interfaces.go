package bus

import "time"

// Event is a notification published by the simulation core: a replan, a
// blocked path, goal arrival. Observers (the host, tests) subscribe
// instead of polling state between ticks.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// EventHandler consumes delivered events. Delivery is synchronous on the
// publisher's goroutine; handlers must not block.
type EventHandler func(Event)

// Subscription is a cancellable registration of a handler.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel()
}

// EventBus routes published events to subscribed handlers.
type EventBus interface {
	Publish(event Event)
	// Subscribe registers a handler for the given event type. The empty
	// type subscribes to every event.
	Subscribe(eventType string, handler EventHandler) Subscription
}
