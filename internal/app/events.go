package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/cinelist/internal/domain"
)

// EventHandlerFunc is a subscriber to a domain event.
type EventHandlerFunc func(ctx context.Context, event domain.Event) error

// EventDispatcher fans domain events out to subscribers registered by event
// name. Subscribers run sequentially in registration order; the first error
// stops the dispatch.
type EventDispatcher struct {
	subscribers map[string][]EventHandlerFunc
}

// NewEventDispatcher creates a dispatcher with no subscribers.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{subscribers: make(map[string][]EventHandlerFunc)}
}

// On subscribes fn to events with the given name.
func (d *EventDispatcher) On(name string, fn EventHandlerFunc) {
	d.subscribers[name] = append(d.subscribers[name], fn)
}

// Subscribe registers a typed subscriber for events of type E.
func Subscribe[E domain.Event](d *EventDispatcher, fn func(ctx context.Context, event E) error) {
	var zero E
	name := zero.EventName()
	d.On(name, func(ctx context.Context, event domain.Event) error {
		typed, ok := event.(E)
		if !ok {
			return fmt.Errorf("event %q has type %T, want %T", name, event, zero)
		}
		return fn(ctx, typed)
	})
}

// Dispatch delivers event to each of its subscribers in order.
// Having no subscribers is not an error.
func (d *EventDispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	for _, fn := range d.subscribers[event.EventName()] {
		if err := fn(ctx, event); err != nil {
			return fmt.Errorf("dispatching %s %s: %w", event.EventName(), event.EventID(), err)
		}
	}
	return nil
}

// DispatchAll dispatches events in order, stopping at the first failure.
func (d *EventDispatcher) DispatchAll(ctx context.Context, events ...domain.Event) error {
	for _, event := range events {
		if err := d.Dispatch(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

type eventBufferKey struct{}

type eventBuffer struct {
	events []domain.Event
}

func withEventBuffer(ctx context.Context) (context.Context, *eventBuffer) {
	buf := &eventBuffer{}
	return context.WithValue(ctx, eventBufferKey{}, buf), buf
}

// Raise records events for dispatch once the surrounding unit of work commits.
// Outside a unit of work the events are dropped.
func Raise(ctx context.Context, events ...domain.Event) {
	if buf, ok := ctx.Value(eventBufferKey{}).(*eventBuffer); ok {
		buf.events = append(buf.events, events...)
	}
}
