// Package events carries notifications between modules without coupling
// publisher and subscriber packages to each other.
package events

import (
	"context"
	"time"
)

// Event is implemented by every notification that crosses a module
// boundary.
type Event interface {
	// EventName identifies the event type; subscriptions match on it.
	EventName() string
	// OccurredAt reports when the event happened.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp shared by all events. Embed it and
// implement EventName.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of a single name.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to the handlers subscribed to their name.
type Bus interface {
	// Publish fans the event out to its handlers. Dispatch is
	// asynchronous; publishers never block on a slow handler.
	Publish(ctx context.Context, event Event)

	// Subscribe registers a handler for the name an Event reports from
	// EventName.
	Subscribe(eventName string, handler Handler)
}
