package websocket

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients and broadcasts messages to clients.
type Hub struct {
	// Registered clients by room_id -> client map
	rooms map[string]map[*Client]bool

	// Inbound messages from the clients
	broadcast chan *BroadcastMessage

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Event handler for processing events
	eventHandler *EventHandler

	// Mutex for thread-safe access
	mu sync.RWMutex
}

// BroadcastMessage represents a message to be delivered within a room. When
// TargetPlayerID is set the envelope goes only to that player's connections
// (role-private messages); otherwise it goes to the whole room.
type BroadcastMessage struct {
	RoomID         string
	Envelope       *ServerEnvelope
	TargetPlayerID string
	ExcludeClient  *Client // Optional: exclude this client from the broadcast
}

// NewHub creates a new Hub.
func NewHub(eventHandler *EventHandler) *Hub {
	return &Hub{
		rooms:        make(map[string]map[*Client]bool),
		broadcast:    make(chan *BroadcastMessage, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		eventHandler: eventHandler,
	}
}

// SetEventHandler sets the event handler for the hub.
func (h *Hub) SetEventHandler(handler *EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.eventHandler = handler
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.RoomID] == nil {
				h.rooms[client.RoomID] = make(map[*Client]bool)
			}
			h.rooms[client.RoomID][client] = true
			total := len(h.rooms[client.RoomID])
			h.mu.Unlock()
			log.Printf("ws client registered room_id=%s player_id=%s total=%d", client.RoomID, client.PlayerID, total)

		case client := <-h.unregister:
			h.mu.Lock()
			removed := false
			if room, ok := h.rooms[client.RoomID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					removed = true
					if len(room) == 0 {
						delete(h.rooms, client.RoomID)
					}
				}
			}
			handler := h.eventHandler
			h.mu.Unlock()
			if removed {
				log.Printf("ws client unregistered room_id=%s player_id=%s", client.RoomID, client.PlayerID)
				if handler != nil {
					handler.HandleDisconnect(client)
				}
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			room, exists := h.rooms[message.RoomID]
			if exists && message.Envelope != nil {
				for client := range room {
					if message.ExcludeClient != nil && client == message.ExcludeClient {
						continue
					}
					if message.TargetPlayerID != "" && client.PlayerID != message.TargetPlayerID {
						continue
					}
					select {
					case client.send <- message.Envelope:
					default:
						close(client.send)
						delete(room, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastEnvelope sends a server envelope to all clients in a room.
func (h *Hub) BroadcastEnvelope(roomID string, envelope *ServerEnvelope) {
	h.broadcast <- &BroadcastMessage{RoomID: roomID, Envelope: envelope}
}

// BroadcastEnvelopeExcept sends a server envelope to all clients in a room except the specified client.
func (h *Hub) BroadcastEnvelopeExcept(roomID string, envelope *ServerEnvelope, excludeClient *Client) {
	h.broadcast <- &BroadcastMessage{
		RoomID:        roomID,
		Envelope:      envelope,
		ExcludeClient: excludeClient,
	}
}

// SendToPlayer sends a server envelope to one player's connections in a room.
func (h *Hub) SendToPlayer(roomID, playerID string, envelope *ServerEnvelope) {
	h.broadcast <- &BroadcastMessage{
		RoomID:         roomID,
		Envelope:       envelope,
		TargetPlayerID: playerID,
	}
}

// GetRoomClientCount returns the number of clients in a room.
func (h *Hub) GetRoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[roomID]; ok {
		return len(room)
	}
	return 0
}
