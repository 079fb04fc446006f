package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/hypanel/hypanel/internal/events"
)

func newTestClient(id, room string) *Client {
	return &Client{
		ID:   id,
		Room: room,
		Send: make(chan *Message, 16),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func waitForRoomSize(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetRoomSize(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s size = %d, want %d", room, hub.GetRoomSize(room), want)
}

func recvMessage(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s received no message", c.ID)
		return nil
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	hub := startHub(t)

	a := newTestClient("a", RoomEvents)
	b := newTestClient("b", RoomEvents)
	hub.Register <- a
	hub.Register <- b
	waitForRoomSize(t, hub, RoomEvents, 2)

	hub.Unregister <- a
	waitForRoomSize(t, hub, RoomEvents, 1)

	// Unregister closes the client's send channel.
	select {
	case _, ok := <-a.Send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(2 * time.Second):
		t.Error("send channel not closed")
	}

	hub.Unregister <- b
	waitForRoomSize(t, hub, RoomEvents, 0)
}

func TestBroadcastToRoom(t *testing.T) {
	hub := startHub(t)

	eventsClient := newTestClient("events", RoomEvents)
	consoleClient := newTestClient("console", InstanceRoom("srv-1"))
	hub.Register <- eventsClient
	hub.Register <- consoleClient
	waitForRoomSize(t, hub, RoomEvents, 1)
	waitForRoomSize(t, hub, InstanceRoom("srv-1"), 1)

	hub.BroadcastToRoom(InstanceRoom("srv-1"), "console_output", map[string]string{"line": "hello"})

	msg := recvMessage(t, consoleClient)
	if msg.Type != "console_output" {
		t.Errorf("type = %q, want console_output", msg.Type)
	}

	select {
	case msg := <-eventsClient.Send:
		t.Errorf("events room received %v, want nothing", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastDropsWhenClientFull(t *testing.T) {
	hub := startHub(t)

	full := &Client{ID: "full", Room: RoomEvents, Send: make(chan *Message, 1)}
	hub.Register <- full
	waitForRoomSize(t, hub, RoomEvents, 1)

	for i := 0; i < 5; i++ {
		hub.BroadcastToRoom(RoomEvents, "status_changed", i)
	}

	// The first message fills the channel; the rest are dropped rather than
	// blocking the hub loop.
	recvMessage(t, full)
	waitForRoomSize(t, hub, RoomEvents, 1)
}

func TestSendMessageFullAndClosed(t *testing.T) {
	c := &Client{ID: "c", Send: make(chan *Message, 1)}

	if err := c.SendMessage("status_changed", nil); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := c.SendMessage("status_changed", nil); err == nil {
		t.Error("expected error on full channel")
	}

	<-c.Send
	close(c.Send)
	if err := c.SendMessage("status_changed", nil); err == nil {
		t.Error("expected error on closed channel")
	}
}

func TestBindBusRoutesEvents(t *testing.T) {
	hub := startHub(t)
	bus := events.New()
	unbind := BindBus(bus, hub)
	defer unbind()

	eventsClient := newTestClient("events", RoomEvents)
	consoleClient := newTestClient("console", InstanceRoom("srv-1"))
	hub.Register <- eventsClient
	hub.Register <- consoleClient
	waitForRoomSize(t, hub, RoomEvents, 1)
	waitForRoomSize(t, hub, InstanceRoom("srv-1"), 1)

	bus.Publish(events.OutputLineEvent{
		InstanceID: "srv-1",
		Stream:     "stdout",
		Line:       "Server started",
		Timestamp:  time.Now(),
	})

	// Console output reaches both the panel-wide room and the instance room.
	if msg := recvMessage(t, eventsClient); msg.Type != "console_output" {
		t.Errorf("events room type = %q, want console_output", msg.Type)
	}
	if msg := recvMessage(t, consoleClient); msg.Type != "console_output" {
		t.Errorf("instance room type = %q, want console_output", msg.Type)
	}

	bus.Publish(events.StatusChangedEvent{InstanceID: "srv-1", Status: events.StatusRunning})
	if msg := recvMessage(t, eventsClient); msg.Type != "status_changed" {
		t.Errorf("events room type = %q, want status_changed", msg.Type)
	}
}
