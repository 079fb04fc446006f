package events

import (
	"github.com/kelindar/event"
)

// Sink accepts published events. The supervisor and downloader depend on this
// interface so tests can capture events without a live dispatcher.
type Sink interface {
	Publish(ev Event)
}

// Bus wraps a kelindar/event dispatcher for fire-and-forget broadcasting.
// Delivery is at-most-effort: subscribers joining late see nothing.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(StatusChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event's generic Publish needs the concrete type.
	switch e := ev.(type) {
	case StatusChangedEvent:
		event.Publish(b.dispatcher, e)
	case OutputLineEvent:
		event.Publish(b.dispatcher, e)
	case AuthNeededEvent:
		event.Publish(b.dispatcher, e)
	case AuthNeedsPersistenceEvent:
		event.Publish(b.dispatcher, e)
	case AuthRequiredEvent:
		event.Publish(b.dispatcher, e)
	case AuthSuccessEvent:
		event.Publish(b.dispatcher, e)
	case ProcessExitedEvent:
		event.Publish(b.dispatcher, e)
	case DownloadProgressEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler's
// parameter type selects which events it receives. Returns an unsubscribe
// function.
// Usage: unsub := bus.Subscribe(func(e StatusChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StatusChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OutputLineEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AuthNeededEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AuthNeedsPersistenceEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AuthRequiredEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AuthSuccessEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessExitedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DownloadProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
