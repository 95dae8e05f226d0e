package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/swaggo/http-swagger"

	"github.com/mkalvans/mafia-backend/internal/game"
	"github.com/mkalvans/mafia-backend/internal/httpapi/handler"
	"github.com/mkalvans/mafia-backend/internal/ratelimit"
	"github.com/mkalvans/mafia-backend/internal/store"
	"github.com/mkalvans/mafia-backend/internal/websocket"

	_ "github.com/mkalvans/mafia-backend/docs" // swag-generated docs
)

// NewRouter builds the root HTTP router with basic middleware, room routes, and the per-room WebSocket.
// tokenSecret is used to sign WebSocket auth tokens; if nil or empty, create/join responses omit the token.
// rateLimiter is optional: if nil, no rate limiting is applied; otherwise create room, join room, and WS chat are limited.
// allowedOrigins configures CORS; empty means same-origin only (no CORS headers).
//
// @title            Mafia API
// @version          1.0
// @description      API for Mafia game rooms and sessions.
// @BasePath         /
// @SecurityDefinitions.apikey  BearerAuth
// @in               header
// @name             Authorization
func NewRouter(pool *pgxpool.Pool, tokenSecret []byte, rateLimiter ratelimit.Limiter, allowedOrigins []string) http.Handler {
	if rateLimiter == nil {
		rateLimiter = &ratelimit.Noop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", handler.Healthz)

	// Swagger UI and generated spec (from swag comments)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// Stores shared by REST routes and the WebSocket layer
	roomStore := store.NewRoomStore(pool)
	matchStore := store.NewMatchStore(pool)
	eventStore := store.NewGameEventStore(pool)
	chatStore := store.NewChatStore(pool)

	// In-memory session registry; sessions are created on first WS attach and
	// destroyed when the last player disconnects.
	registry := game.NewRegistry()

	// Initialize WebSocket hub and handler (hub uses rateLimiter for chat)
	eventHandler := websocket.NewEventHandler(nil, registry, eventStore, chatStore, rateLimiter)
	hub := websocket.NewHub(eventHandler)
	eventHandler = websocket.NewEventHandler(hub, registry, eventStore, chatStore, rateLimiter)
	hub.SetEventHandler(eventHandler)
	go hub.Run()

	wsHandler := websocket.NewWSHandler(hub, registry, roomStore, matchStore, tokenSecret)

	// Per-room WebSocket (token auth, chat, intents, sync_state)
	r.Get("/ws/rooms/{code}", wsHandler.HandleRoomWebSocket)

	// Rate limit middleware for create/join (by IP)
	rateLimitByIP := RateLimitMiddleware(rateLimiter, RateLimitKeyByIP)

	// Room routes (body size limited to 1MB for JSON)
	roomHandler := handler.NewRoomHandler(roomStore, matchStore, tokenSecret)
	r.Route("/api/rooms", func(r chi.Router) {
		r.Use(LimitRequestBody(DefaultMaxBodyBytes))
		r.With(rateLimitByIP).Post("/", roomHandler.CreateRoom)
		r.Get("/{code}", roomHandler.GetRoom)
		r.With(rateLimitByIP).Post("/{code}/join", roomHandler.JoinRoom)
		r.Get("/{code}/matches", roomHandler.ListMatches)
	})

	return r
}

// DefaultRateLimiter returns an in-memory rate limiter for create/join/chat: 20 requests per minute per IP.
// Use in production or pass nil to disable. For multi-instance, replace with Redis-backed limiter.
func DefaultRateLimiter() ratelimit.Limiter {
	return ratelimit.NewInMemory(20, time.Minute)
}

// SetupRoomWSRouter returns a chi router with only GET /ws/rooms/{code} for testing.
func SetupRoomWSRouter(wsHandler *websocket.WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/ws/rooms/{code}", wsHandler.HandleRoomWebSocket)
	return r
}
