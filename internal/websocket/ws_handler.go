package websocket

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkalvans/mafia-backend/internal/auth"
	"github.com/mkalvans/mafia-backend/internal/game"
	"github.com/mkalvans/mafia-backend/internal/store"
)

// rateLimitKeyFromRequest returns a key for rate limiting (e.g. client IP).
func rateLimitKeyFromRequest(r *http.Request) string {
	if x := r.Header.Get("X-Real-IP"); x != "" {
		return x
	}
	if x := r.Header.Get("X-Forwarded-For"); x != "" {
		return x
	}
	return r.RemoteAddr
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub         *Hub
	registry    *game.Registry
	rooms       *store.RoomStore
	matches     *store.MatchStore
	tokenSecret []byte
}

// NewWSHandler creates a new WSHandler. tokenSecret is used for connection
// auth; if nil/empty, connections are rejected. matches may be nil; when set,
// finished games in sessions created here are persisted through it.
func NewWSHandler(hub *Hub, registry *game.Registry, rooms *store.RoomStore, matches *store.MatchStore, tokenSecret []byte) *WSHandler {
	return &WSHandler{
		hub:         hub,
		registry:    registry,
		rooms:       rooms,
		matches:     matches,
		tokenSecret: tokenSecret,
	}
}

// HandleRoomWebSocket handles GET /ws/rooms/{code} with token auth. Client
// sends the token via query param or Authorization header. The player must
// have joined the room over HTTP first; the connection attaches them to the
// room's live game session, creating the session on first connect.
func (h *WSHandler) HandleRoomWebSocket(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		const prefix = "Bearer "
		if v := r.Header.Get("Authorization"); strings.HasPrefix(v, prefix) {
			token = strings.TrimSpace(v[len(prefix):])
		}
	}
	if token == "" || len(h.tokenSecret) == 0 {
		h.rejectWS(w, "missing or invalid token")
		return
	}
	claims, err := auth.VerifyToken(token, h.tokenSecret)
	if err != nil {
		log.Printf("websocket auth: code=%s token verification failed: %v", code, err)
		h.rejectWS(w, "unauthorized")
		return
	}
	roomPlayer, err := h.rooms.GetRoomPlayerInRoom(r.Context(), code, claims.RoomPlayerID)
	if err != nil {
		log.Printf("websocket: code=%s player_id=%s player not in room: %v", code, claims.RoomPlayerID, err)
		h.rejectWS(w, "player not in room")
		return
	}
	if roomPlayer.RoomID != claims.RoomID {
		h.rejectWS(w, "room does not match token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	// Use Background so message handling is not tied to the HTTP request
	// lifecycle. The request context is canceled when this handler returns
	// after the upgrade.
	client := &Client{
		hub:          h.hub,
		conn:         conn,
		send:         make(chan *ServerEnvelope, 256),
		RoomID:       roomPlayer.RoomID,
		PlayerID:     roomPlayer.ID,
		DisplayName:  roomPlayer.DisplayName,
		RateLimitKey: rateLimitKeyFromRequest(r),
		ctx:          context.Background(),
	}

	session := h.registry.GetOrCreate(roomPlayer.RoomID, func() *game.Session {
		s := game.NewSession(roomPlayer.RoomID, NewRoomEmitter(h.hub, roomPlayer.RoomID))
		if h.matches != nil {
			s.SetResultSink(h.matches)
		}
		return s
	})

	client.hub.register <- client

	// Start goroutines for reading and writing before the join broadcast so
	// this connection receives its own joinedRoom event.
	go client.writePump()
	go client.readPump()

	session.AddPlayer(roomPlayer.ID, roomPlayer.DisplayName)
}

// rejectWS responds with 401 before upgrade (auth is always checked before upgrading).
func (h *WSHandler) rejectWS(w http.ResponseWriter, reason string) {
	http.Error(w, reason, http.StatusUnauthorized)
}
