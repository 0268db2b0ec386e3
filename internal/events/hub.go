// Package events broadcasts dashboard mutation events to connected
// WebSocket clients so open dashboards refresh without polling.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types pushed to dashboard clients.
const (
	EventBookmarkCreated = "bookmark.created"
	EventBookmarkUpdated = "bookmark.updated"
	EventBookmarkDeleted = "bookmark.deleted"
	EventGroupCreated    = "group.created"
	EventGroupUpdated    = "group.updated"
	EventGroupDeleted    = "group.deleted"
	EventShareCreated    = "share.created"
	EventShareUpdated    = "share.updated"
	EventShareDeleted    = "share.deleted"
)

// Event is a single mutation notification.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Client is one WebSocket subscriber. Send is buffered; a client that cannot
// keep up is dropped rather than blocking the hub.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub maintains the set of connected clients and fans events out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// NewClient creates a client bound to this hub with a buffered send queue.
func (h *Hub) NewClient(conn *websocket.Conn) *Client {
	return &Client{Hub: h, Conn: conn, Send: make(chan []byte, 64)}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) { h.register <- c }

// Unregister removes a client and closes its send queue.
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Publish queues an event for broadcast. The payload is marshaled up front so
// an unmarshalable payload surfaces here, not in the hub loop.
func (h *Hub) Publish(eventType string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			h.logger.Warn("dropping event with unmarshalable payload",
				slog.String("type", eventType), slog.String("error", err.Error()))
			return
		}
		raw = b
	}

	event := &Event{Type: eventType, Payload: raw, Timestamp: time.Now()}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("event buffer full, dropping event", slog.String("type", eventType))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run processes register, unregister, and broadcast requests. It is meant to
// run in its own goroutine for the life of the server.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("failed to marshal event", slog.String("error", err.Error()))
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- data:
				default:
					delete(h.clients, client)
					close(client.Send)
				}
			}
			h.mu.Unlock()
		}
	}
}
