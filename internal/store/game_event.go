package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameEvent is one row of the append-only per-room intent log: every accepted
// player intent (votes, night actions, lifecycle commands) is recorded for
// auditing and replay debugging.
type GameEvent struct {
	ID           string                 `json:"id"`
	RoomID       string                 `json:"room_id"`
	RoomPlayerID *string                `json:"room_player_id,omitempty"`
	Type         string                 `json:"type"`
	Payload      map[string]interface{} `json:"payload"`
	CreatedAt    time.Time              `json:"created_at"`
}

// GameEventStore handles database operations for game events.
type GameEventStore struct {
	pool *pgxpool.Pool
}

// NewGameEventStore creates a new GameEventStore.
func NewGameEventStore(pool *pgxpool.Pool) *GameEventStore {
	return &GameEventStore{pool: pool}
}

// AppendEvent records one intent. roomPlayerID may be empty for
// system-originated events.
func (s *GameEventStore) AppendEvent(ctx context.Context, roomID, roomPlayerID, eventType string, payload map[string]interface{}) (*GameEvent, error) {
	roomUUID, err := stringToUUID(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room_id: %w", err)
	}

	var playerUUID pgtype.UUID
	if roomPlayerID != "" {
		playerUUID, err = stringToUUID(roomPlayerID)
		if err != nil {
			return nil, fmt.Errorf("invalid room_player_id: %w", err)
		}
	}

	payloadJSON := []byte("{}")
	if len(payload) > 0 {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
	}

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO game_events (room_id, room_player_id, type, payload_json)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		roomUUID, playerUUID, eventType, payloadJSON).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert game event: %w", err)
	}

	event := &GameEvent{
		ID:        uuidToString(id),
		RoomID:    roomID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: timestamptzToTime(createdAt),
	}
	if roomPlayerID != "" {
		event.RoomPlayerID = &roomPlayerID
	}
	return event, nil
}

// GetRoomEvents retrieves a room's events in insertion order.
func (s *GameEventStore) GetRoomEvents(ctx context.Context, roomID string) ([]GameEvent, error) {
	roomUUID, err := stringToUUID(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room_id: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, room_player_id, type, payload_json, created_at
		 FROM game_events
		 WHERE room_id = $1
		 ORDER BY created_at ASC`, roomUUID)
	if err != nil {
		return nil, fmt.Errorf("get game events: %w", err)
	}
	defer rows.Close()

	events := []GameEvent{}
	for rows.Next() {
		var (
			id, rid     pgtype.UUID
			playerUUID  pgtype.UUID
			eventType   string
			payloadJSON []byte
			createdAt   pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &rid, &playerUUID, &eventType, &payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan game event: %w", err)
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			payload = make(map[string]interface{})
		}

		event := GameEvent{
			ID:        uuidToString(id),
			RoomID:    uuidToString(rid),
			Type:      eventType,
			Payload:   payload,
			CreatedAt: timestamptzToTime(createdAt),
		}
		if playerUUID.Valid {
			pid := uuidToString(playerUUID)
			event.RoomPlayerID = &pid
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
