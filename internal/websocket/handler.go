package websocket

import (
	"context"
	"log"
	"time"

	"github.com/mkalvans/mafia-backend/internal/game"
	"github.com/mkalvans/mafia-backend/internal/ratelimit"
	"github.com/mkalvans/mafia-backend/internal/store"
)

// EventHandler routes client messages into the game engine and broadcasts the
// results. One handler serves every room; per-room state lives in the
// registry's sessions.
type EventHandler struct {
	hub         *Hub
	registry    *game.Registry
	events      *store.GameEventStore
	chat        *store.ChatStore
	rateLimiter ratelimit.Limiter
}

// NewEventHandler creates a new EventHandler. hub may be nil when building the
// hub. events and chat are optional; when nil, intents and chat are not
// persisted. rateLimiter is optional; when set, chat messages are rate-limited
// by client key (e.g. IP).
func NewEventHandler(hub *Hub, registry *game.Registry, events *store.GameEventStore, chat *store.ChatStore, rateLimiter ratelimit.Limiter) *EventHandler {
	return &EventHandler{
		hub:         hub,
		registry:    registry,
		events:      events,
		chat:        chat,
		rateLimiter: rateLimiter,
	}
}

// HandleMessage processes one incoming client message. Unknown or invalid
// message types get an error envelope; intents the engine rejects as stale are
// dropped silently, matching the engine's own semantics.
func (h *EventHandler) HandleMessage(ctx context.Context, client *Client, msg *ClientInMessage) {
	if msg == nil {
		sendErrorToClient(client, "invalid message")
		return
	}
	// Validate type: allowlist and length to prevent abuse
	if len(msg.Type) > MaxClientMessageTypeLength {
		sendErrorToClient(client, "invalid message type")
		return
	}
	if !ValidClientMessageTypes[msg.Type] {
		sendErrorToClient(client, "unsupported message type")
		return
	}

	if msg.Type == ClientMessageTypeChat {
		h.handleChat(ctx, client, msg)
		return
	}

	session := h.registry.Get(client.RoomID)
	if session == nil {
		sendErrorToClient(client, "room session not found")
		return
	}

	h.logIntent(client, msg)

	switch msg.Type {
	case ClientMessageTypeSyncState:
		sendEnvelopeToClient(client, &ServerEnvelope{
			Type:    ServerTypeState,
			Event:   ServerEventState,
			Payload: session.Snapshot(),
		})

	case ClientMessageTypeAssignRoles:
		if err := session.AssignRoles(client.PlayerID); err != nil {
			sendErrorToClient(client, err.Error())
		}

	case ClientMessageTypeStartGame:
		if err := session.StartGame(client.PlayerID); err != nil {
			sendErrorToClient(client, err.Error())
			return
		}
		h.startNightRun(session)

	case ClientMessageTypeStartNight:
		if err := session.CanStartNight(client.PlayerID); err != nil {
			sendErrorToClient(client, err.Error())
			return
		}
		h.startNightRun(session)

	case ClientMessageTypeReturnToLobby:
		if err := session.ReturnToLobby(client.PlayerID); err != nil {
			sendErrorToClient(client, err.Error())
		}

	case ClientMessageTypeVote:
		session.RecordVote(client.PlayerID, payloadString(msg.Payload, "targetId"))

	case ClientMessageTypeMafiaPropose:
		session.MafiaPropose(client.PlayerID, payloadString(msg.Payload, "targetId"))

	case ClientMessageTypeMafiaFinalize:
		session.MafiaFinalize(client.PlayerID, payloadString(msg.Payload, "targetId"))

	case ClientMessageTypeDetectivePropose:
		session.DetectivePropose(client.PlayerID, payloadString(msg.Payload, "targetId"))

	case ClientMessageTypeDetectiveFinalize:
		session.DetectiveFinalize(client.PlayerID, payloadString(msg.Payload, "targetId"))

	case ClientMessageTypeDoctorSave:
		session.DoctorSave(client.PlayerID, payloadString(msg.Payload, "targetId"))

	case ClientMessageTypeDoctorConfirm:
		session.DoctorConfirm(client.PlayerID)
	}
}

// HandleDisconnect removes a disconnected player from their session and
// destroys the session when the room is empty.
func (h *EventHandler) HandleDisconnect(client *Client) {
	if h.registry == nil {
		return
	}
	session := h.registry.Get(client.RoomID)
	if session == nil {
		return
	}
	if empty := session.RemovePlayer(client.PlayerID); empty {
		h.registry.Delete(client.RoomID)
		log.Printf("session destroyed room_id=%s (empty)", client.RoomID)
	}
}

// startNightRun runs one night sequence on its own goroutine. The orchestrator
// guards against overlapping runs itself.
func (h *EventHandler) startNightRun(session *game.Session) {
	go game.NewOrchestrator(session).RunNight(context.Background())
}

// logIntent records an accepted intent in the append-only event log, off the
// hot path. Logging failures never affect game flow.
func (h *EventHandler) logIntent(client *Client, msg *ClientInMessage) {
	if h.events == nil || msg.Type == ClientMessageTypeSyncState {
		return
	}
	roomID, playerID, eventType, payload := client.RoomID, client.PlayerID, msg.Type, msg.Payload
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := h.events.AppendEvent(ctx, roomID, playerID, eventType, payload); err != nil {
			log.Printf("append game event room_id=%s type=%s: %v", roomID, eventType, err)
		}
	}()
}

// handleChat persists (best effort) and broadcasts a chat message to the room.
func (h *EventHandler) handleChat(ctx context.Context, client *Client, msg *ClientInMessage) {
	if h.rateLimiter != nil && client.RateLimitKey != "" {
		allowed, _ := h.rateLimiter.Allow(client.RateLimitKey)
		if !allowed {
			sendErrorToClient(client, "rate limit exceeded; try again later")
			return
		}
	}
	var message string
	if msg.Payload != nil {
		if m, ok := msg.Payload["message"].(string); ok {
			message = m
		}
	}
	message = trimToMax(message, MaxChatMessageLength)
	if message == "" {
		return
	}
	if h.chat != nil {
		_, _ = h.chat.CreateChatMessage(ctx, client.RoomID, client.PlayerID, message)
	}
	envelope := &ServerEnvelope{
		Type:  ServerTypeEvent,
		Event: ServerEventChat,
		Payload: map[string]interface{}{
			"display_name": client.DisplayName,
			"message":      message,
		},
	}
	h.hub.BroadcastEnvelopeExcept(client.RoomID, envelope, client)
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	s, _ := payload[key].(string)
	return s
}

func trimToMax(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func sendErrorToClient(client *Client, message string) {
	sendEnvelopeToClient(client, &ServerEnvelope{Type: ServerTypeError, Payload: map[string]interface{}{"message": message}})
}

func sendEnvelopeToClient(client *Client, envelope *ServerEnvelope) {
	select {
	case client.send <- envelope:
	default:
		log.Printf("could not send envelope to client (channel full)")
	}
}
