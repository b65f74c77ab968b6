// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// User list messages
	MessageSearchStarted MessageType = "search_started"
	MessageDisplayUsers  MessageType = "display_users"
	MessageUserSelected  MessageType = "user_selected"

	// Note messages
	MessageNoteMembersAdded   MessageType = "note_members_added"
	MessageNoteMembersRemoved MessageType = "note_members_removed"

	// SMS messages
	MessageSMSSelection MessageType = "sms_selection"

	// Widget messages
	MessageWidgetVisibility MessageType = "widget_visibility_changed"

	// Session messages
	MessageSessionEnded MessageType = "session_ended"

	// System messages
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
	MessageAck  MessageType = "ack"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Client represents one connected dashboard tab
type Client struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Hub       *Hub
	Send      chan []byte
	lastPing  time.Time
}

// Hub maintains the set of active clients and fans events out to the
// tabs of each session
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients indexed by session ID; one session may have several tabs
	sessionClients map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast to all clients
	broadcast chan []byte

	// Message to every tab of one session
	sessionMessage chan *SessionMessage

	mu sync.RWMutex
}

// SessionMessage represents a message for all tabs of a session
type SessionMessage struct {
	SessionID string
	Message   []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		sessionClients: make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan []byte, 256),
		sessionMessage: make(chan *SessionMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	log.Println("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAll(message)

		case sm := <-h.sessionMessage:
			h.sendToSession(sm)

		case <-pingTicker.C:
			h.pingClients()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.sessionClients[client.SessionID] == nil {
		h.sessionClients[client.SessionID] = make(map[*Client]bool)
	}
	h.sessionClients[client.SessionID][client] = true

	log.Printf("[Hub] ✅ Client registered: session=%s, id=%s, total_clients=%d",
		client.SessionID, client.ID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		if clients, ok := h.sessionClients[client.SessionID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.sessionClients, client.SessionID)
			}
		}

		close(client.Send)
		log.Printf("[Hub] ❌ Client disconnected: session=%s, id=%s, total_clients=%d",
			client.SessionID, client.ID, len(h.clients))
	}
}

func (h *Hub) broadcastToAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

func (h *Hub) sendToSession(sm *SessionMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.sessionClients[sm.SessionID]
	if !ok {
		return
	}

	sentCount := 0
	for client := range clients {
		select {
		case client.Send <- sm.Message:
			sentCount++
		default:
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
	log.Printf("[Hub] Fan-out to session %s: sent to %d tabs", sm.SessionID, sentCount)
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      MessagePing,
		Timestamp: time.Now(),
	}
	data, _ := json.Marshal(msg)

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// ============================================
// Public Methods for Sending Messages
// ============================================

// SendToSession sends a message to every tab of a session
func (h *Hub) SendToSession(sessionID string, msgType MessageType, payload map[string]interface{}) {
	msg := Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Hub] Error marshaling message: %v", err)
		return
	}

	h.sessionMessage <- &SessionMessage{
		SessionID: sessionID,
		Message:   data,
	}
}

// Broadcast sends a message to every connected client
func (h *Hub) Broadcast(msgType MessageType, payload map[string]interface{}) {
	msg := Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Hub] Error marshaling message: %v", err)
		return
	}
	h.broadcast <- data
}

// ============================================
// Query Methods
// ============================================

// IsSessionConnected checks if any tab of the session is connected
func (h *Hub) IsSessionConnected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.sessionClients[sessionID]
	return ok
}

// GetSessionClients returns the number of tabs a session has open
func (h *Hub) GetSessionClients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.sessionClients[sessionID]; ok {
		return len(clients)
	}
	return 0
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
