package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// InventoryEvent is the payload broadcast to a lab's subscribers when its
// inventory changes.
type InventoryEvent struct {
	Event     string `json:"event"`
	LabID     string `json:"lab_id"`
	LabItemID string `json:"lab_item_id"`
}

// Client represents a single connected WebSocket client, subscribed to one
// lab's event stream.
type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	LabID uuid.UUID
	Send  chan []byte
}

type labMessage struct {
	labID   uuid.UUID
	payload []byte
}

// Hub maintains the set of active clients grouped by lab and fans events
// out to the lab's subscribers.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan labMessage
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan labMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// BroadcastLab queues an event for every client subscribed to the lab.
// Non-blocking: if the hub backlog is full the event is dropped, clients
// reconcile through the REST endpoints anyway.
func (h *Hub) BroadcastLab(labID uuid.UUID, event InventoryEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal inventory event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- labMessage{labID: labID, payload: payload}:
	default:
		h.logger.Warn("websocket backlog full, event dropped",
			zap.String("lab_id", labID.String()))
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client connected",
				zap.String("lab_id", client.LabID.String()))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.LabID != msg.labID {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		// Just reading to keep connection alive
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}
	}
}

// ServeWs upgrades a lab event-stream subscription. The token travels as a
// query param because browsers cannot set headers on websocket dials.
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	labID, err := uuid.Parse(c.Param("labId"))
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	tokenString := c.Query("token")
	if tokenString == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		hub.logger.Debug("websocket connection rejected: invalid token", zap.Error(err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{Hub: hub, Conn: conn, LabID: labID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
