// Package socket pushes lifecycle events to connected users over websockets.
package socket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"giving-hand-api-server/internal/logging"
)

// Event names pushed to clients.
const (
	EventTicketAccepted          = "ticket_accepted"
	EventTicketDeclined          = "ticket_declined"
	EventDeliveryRequested       = "delivery_requested"
	EventDeliveryRequestResolved = "delivery_request_resolved"
	EventTicketConverted         = "ticket_converted"
	EventTicketExpired           = "ticket_expired"
	EventFactoryTicketClaimed    = "factory_ticket_claimed"
)

// Event is the JSON frame sent to a client.
type Event struct {
	Type     string    `json:"type"`
	TicketID string    `json:"ticketID"`
	Message  string    `json:"message"`
	Status   string    `json:"status,omitempty"`
	At       time.Time `json:"at"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	conn Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

// Hub tracks one connection per user id. A newer connection replaces the older one.
type Hub struct {
	clients map[string]*client
	mu      sync.RWMutex
	log     *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     logging.New("socket"),
	}
}

func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[userID]; ok && old.conn != conn {
		old.conn.Close()
	}
	h.clients[userID] = &client{conn: conn}
	h.log.Debug("client registered", "user", userID)
}

// Unregister drops userID only while conn is still its current connection.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[userID]; ok && c.conn == conn {
		delete(h.clients, userID)
		h.log.Debug("client unregistered", "user", userID)
	}
}

// Online reports whether userID has a live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Send writes message to userID. An offline user is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Publish sends ev to userID as JSON.
func (h *Hub) Publish(userID string, ev Event) error {
	if userID == "" {
		return nil
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.Send(userID, msg)
}
