package websocket

import (
	"github.com/hypanel/hypanel/internal/events"
)

// BindBus subscribes the hub to the event bus so connected panels receive
// every supervisor and downloader event. Lifecycle, auth and download events
// go to the panel-wide events room; console output additionally goes to the
// instance's own room so a console view can subscribe to just one server.
// Returns a function that removes all subscriptions.
func BindBus(bus *events.Bus, hub *Hub) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.StatusChangedEvent) {
			hub.BroadcastToRoom(RoomEvents, "status_changed", e)
		}),
		bus.Subscribe(func(e events.OutputLineEvent) {
			hub.BroadcastToRoom(RoomEvents, "console_output", e)
			hub.BroadcastToRoom(InstanceRoom(e.InstanceID), "console_output", e)
		}),
		bus.Subscribe(func(e events.AuthNeededEvent) {
			hub.BroadcastToRoom(RoomEvents, "auth_needed", e)
		}),
		bus.Subscribe(func(e events.AuthNeedsPersistenceEvent) {
			hub.BroadcastToRoom(RoomEvents, "auth_needs_persistence", e)
		}),
		bus.Subscribe(func(e events.AuthRequiredEvent) {
			hub.BroadcastToRoom(RoomEvents, "auth_required", e)
		}),
		bus.Subscribe(func(e events.AuthSuccessEvent) {
			hub.BroadcastToRoom(RoomEvents, "auth_success", e)
		}),
		bus.Subscribe(func(e events.ProcessExitedEvent) {
			hub.BroadcastToRoom(RoomEvents, "process_exited", e)
		}),
		bus.Subscribe(func(e events.DownloadProgressEvent) {
			hub.BroadcastToRoom(RoomEvents, "download_progress", e)
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
