// Package websocket pushes score updates to connected dashboard clients.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"

	"carehome-insights/metrics"
	"carehome-insights/models"
)

// Hub manages WebSocket connections and broadcasting
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages fanned out to every client
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mutex sync.RWMutex

	// Statistics
	broadcastsSent   int
	connectedClients int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.WebsocketClients.Inc()
			log.Infof("Client connected. Total clients: %d", h.ConnectedClients())

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
				metrics.WebsocketClients.Dec()
			}
			h.mutex.Unlock()
			log.Infof("Client disconnected. Total clients: %d", h.ConnectedClients())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.WebsocketClients.Dec()
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
		}
	}
}

// BroadcastScoreUpdate fans a rescoring event out to every connected client.
func (h *Hub) BroadcastScoreUpdate(update models.ScoreUpdate) {
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}

	data, err := json.Marshal(update)
	if err != nil {
		log.Errorf("Failed to marshal score update: %v", err)
		return
	}

	h.mutex.Lock()
	h.broadcastsSent++
	h.mutex.Unlock()

	h.broadcast <- data
	log.Debugf("Broadcast score update for home %s: %.1f (%s)",
		update.HomeID, update.OverallScore, update.Category)
}

// ConnectedClients returns the number of currently registered clients.
func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() (int, int) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.broadcastsSent
}
