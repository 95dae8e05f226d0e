package websocket

import "github.com/mkalvans/mafia-backend/internal/game"

// RoomEmitter adapts the hub to the game engine's emitter: engine events
// become "event" envelopes delivered to a fixed room.
type RoomEmitter struct {
	hub    *Hub
	roomID string
}

var _ game.Emitter = (*RoomEmitter)(nil)

// NewRoomEmitter creates an emitter bound to one room.
func NewRoomEmitter(hub *Hub, roomID string) *RoomEmitter {
	return &RoomEmitter{hub: hub, roomID: roomID}
}

// Broadcast sends an event to every connection in the room.
func (e *RoomEmitter) Broadcast(event string, payload map[string]interface{}) {
	e.hub.BroadcastEnvelope(e.roomID, &ServerEnvelope{
		Type:    ServerTypeEvent,
		Event:   event,
		Payload: payload,
	})
}

// SendTo sends an event to one player's connections only.
func (e *RoomEmitter) SendTo(playerID, event string, payload map[string]interface{}) {
	e.hub.SendToPlayer(e.roomID, playerID, &ServerEnvelope{
		Type:    ServerTypeEvent,
		Event:   event,
		Payload: payload,
	})
}
