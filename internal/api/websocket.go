package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"techhourse/internal/logging"
)

// Event types pushed to websocket clients.
const (
	EventChatTurn        = "chat_turn"
	EventCatalogReloaded = "catalog_reloaded"
)

const writeWait = 5 * time.Second

// Event is the envelope of every websocket message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHub manages WebSocket connections
type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logging.Logger
}

// NewWebSocketHub creates a hub
func NewWebSocketHub(logger *logging.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logging.OrDiscard(logger),
	}
}

// Run starts the hub's event loop and closes every client when ctx ends
func (h *WebSocketHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to all connected clients. Events are dropped
// when the queue is full.
func (h *WebSocketHub) Broadcast(eventType string, data interface{}) {
	jsonData, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("failed to encode %s event: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- jsonData:
	default:
		h.logger.Warn("websocket queue full, dropping %s event", eventType)
	}
}

var upgrader = websocket.Upgrader{
	// Local single-user service; the API itself binds to loopback by default.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades HTTP to WebSocket
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed: %v", err)
		return
	}

	select {
	case s.wsHub.register <- conn:
	case <-s.wsHub.done:
		conn.Close()
		return
	}

	// Read loop (handle client messages if needed)
	go func() {
		defer func() {
			select {
			case s.wsHub.unregister <- conn:
			case <-s.wsHub.done:
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
