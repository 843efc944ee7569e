package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains active WebSocket connections and broadcasts messages
type Hub struct {
	// Registered clients (userID -> Client)
	clients map[string]*Client

	// Outbound messages addressed to a single user
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// Message represents a message to broadcast to a specific user
type Message struct {
	UserID string
	Data   interface{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.UserID]; ok && old != client {
				close(old.send)
			}
			h.clients[client.UserID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("✅ [WEBSOCKET] Client CONNECTED: %s (%s), total %d", client.UserID, client.UserRole, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("🔴 [WEBSOCKET] Client DISCONNECTED: %s (%s), remaining %d", client.UserID, client.UserRole, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message.Data)
			if err != nil {
				log.Printf("❌ Failed to marshal message: %v", err)
				continue
			}

			h.mu.Lock()
			if client, ok := h.clients[message.UserID]; ok {
				select {
				case client.send <- data:
				default:
					// Client buffer full, disconnect
					close(client.send)
					delete(h.clients, client.UserID)
					log.Printf("⚠️ Client buffer full, disconnecting: %s", message.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID string, data interface{}) {
	h.broadcast <- &Message{
		UserID: userID,
		Data:   data,
	}
}

// BroadcastToRole sends a message to all users with a specific role
func (h *Hub) BroadcastToRole(role string, data interface{}) {
	h.sendMatching(data, func(c *Client) bool { return c.UserRole == role })
}

// BroadcastToTruck sends a message to every client subscribed to the truck
func (h *Hub) BroadcastToTruck(truckID string, data interface{}) {
	h.sendMatching(data, func(c *Client) bool { return c.TruckID == truckID })
}

func (h *Hub) sendMatching(data interface{}, match func(c *Client) bool) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if match(client) {
			select {
			case client.send <- dataBytes:
			default:
				log.Printf("⚠️ Client buffer full, skipping: %s", client.UserID)
			}
		}
	}
}

func (h *Hub) setTruck(c *Client, truckID string) {
	h.mu.Lock()
	c.TruckID = truckID
	h.mu.Unlock()
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
