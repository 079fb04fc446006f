package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// RoomEvents is the panel-wide room every client joins for lifecycle,
// auth and download events. Per-instance console output goes to
// InstanceRoom(id).
const RoomEvents = "events"

// InstanceRoom names the room carrying one instance's console stream.
func InstanceRoom(instanceID string) string {
	return "instance:" + instanceID
}

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Room string
	Send chan *Message
	Hub  *Hub
	mu   sync.Mutex
}

// Hub manages all WebSocket connections and rooms
type Hub struct {
	// Registered clients grouped by room
	rooms map[string]map[*Client]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Broadcast messages to room
	broadcast chan *BroadcastMessage

	// Active clients by ID for quick lookup
	clients map[string]*Client

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast to a room
type BroadcastMessage struct {
	Room    string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToRoom(message)

		case <-ctx.Done():
			log.Println("[WebSocket] Hub shutting down")
			h.shutdown()
			return
		}
	}
}

// registerClient adds a client to a room
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if h.rooms[client.Room] == nil {
		h.rooms[client.Room] = make(map[*Client]bool)
	}
	h.rooms[client.Room][client] = true

	log.Printf("[WebSocket] Client %s joined room %s. Room size: %d",
		client.ID, client.Room, len(h.rooms[client.Room]))
}

// unregisterClient removes a client from a room
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, client.ID)

	if clients, ok := h.rooms[client.Room]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.Send)

			if len(clients) == 0 {
				delete(h.rooms, client.Room)
				log.Printf("[WebSocket] Room %s is now empty and removed", client.Room)
			} else {
				log.Printf("[WebSocket] Client %s left room %s. Room size: %d",
					client.ID, client.Room, len(clients))
			}
		}
	}
}

// broadcastToRoom sends a message to all clients in a room
func (h *Hub) broadcastToRoom(bm *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.rooms[bm.Room]; ok {
		for client := range clients {
			select {
			case client.Send <- bm.Message:
			default:
				// Client's send channel is full, drop message to avoid disconnecting
				log.Printf("[WebSocket] Client %s send channel full, dropping message", client.ID)
			}
		}
	}
}

// GetRoomSize returns the number of clients in a room
func (h *Hub) GetRoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.rooms[room]; ok {
		return len(clients)
	}
	return 0
}

// BroadcastToRoom sends a message to all clients in a room
func (h *Hub) BroadcastToRoom(room string, msgType string, payload interface{}) {
	h.broadcast <- &BroadcastMessage{
		Room: room,
		Message: &Message{
			Type:      msgType,
			Payload:   payload,
			Timestamp: time.Now().UTC(),
		},
	}
}

// shutdown closes all connections gracefully
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}

	h.rooms = make(map[string]map[*Client]bool)
	h.clients = make(map[string]*Client)
}

// ReadPump pumps messages from WebSocket connection to hub. The panel's
// clients are read-mostly; inbound traffic is only pong and close frames.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket] Read error: %v", err)
			}
			break
		}
	}
}

// WritePump pumps messages from hub to WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("[WebSocket] Failed to marshal message: %v", err)
				continue
			}

			w.Write(data)

			// Add queued messages to current websocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				msg := <-c.Send
				data, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				w.Write([]byte("\n"))
				w.Write(data)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage sends a message to this specific client
func (c *Client) SendMessage(msgType string, payload interface{}) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("client send channel is closed")
		}
	}()

	msg := &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	select {
	case c.Send <- msg:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}
