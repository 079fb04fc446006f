package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/hypanel/hypanel/internal/config"
	"github.com/hypanel/hypanel/internal/instance"
	"github.com/hypanel/hypanel/internal/websocket"
)

// WSHandler upgrades HTTP requests into hub clients
type WSHandler struct {
	store    *instance.Store
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(store *instance.Store, hub *websocket.Hub, cors config.CORSConfig) *WSHandler {
	return &WSHandler{
		store: store,
		hub:   hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), cors.AllowedOrigins)
			},
		},
	}
}

func originAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Events streams panel-wide events to the client
func (h *WSHandler) Events(c *gin.Context) {
	h.serve(c, websocket.RoomEvents)
}

// Console streams one instance's console output to the client
func (h *WSHandler) Console(c *gin.Context) {
	inst := requireInstance(c, h.store)
	if inst == nil {
		return
	}

	h.serve(c, websocket.InstanceRoom(inst.ID))
}

func (h *WSHandler) serve(c *gin.Context, room string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] upgrade failed: %v", err)
		return
	}

	client := &websocket.Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Room: room,
		Send: make(chan *websocket.Message, 256),
		Hub:  h.hub,
	}

	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
