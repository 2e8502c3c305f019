package ws

import (
	"encoding/json"
	"sync"

	"github.com/zahrat-boutique/api/internal/model"
)

// Event is a WebSocket message pushed to staff dashboards.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of connected staff clients and broadcasts order
// events to all of them. One boutique, one room.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
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
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and drop it.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// PublishOrder satisfies the order service's EventPublisher: the order is
// serialized once and fanned out to every connected dashboard.
func (h *Hub) PublishOrder(eventType string, order model.Order) {
	payload, err := json.Marshal(order)
	if err != nil {
		return
	}
	h.Broadcast(Event{Type: eventType, Payload: payload})
}
