package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatMessage is one persisted room chat line.
type ChatMessage struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"room_id"`
	RoomPlayerID string    `json:"room_player_id"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatStore handles database operations for chat messages.
type ChatStore struct {
	pool *pgxpool.Pool
}

// NewChatStore creates a new ChatStore.
func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

// CreateChatMessage persists a chat line.
func (s *ChatStore) CreateChatMessage(ctx context.Context, roomID, roomPlayerID, message string) (*ChatMessage, error) {
	roomUUID, err := stringToUUID(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room_id: %w", err)
	}
	playerUUID, err := stringToUUID(roomPlayerID)
	if err != nil {
		return nil, fmt.Errorf("invalid room_player_id: %w", err)
	}

	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (room_id, room_player_id, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		roomUUID, playerUUID, message).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	return &ChatMessage{
		ID:           uuidToString(id),
		RoomID:       roomID,
		RoomPlayerID: roomPlayerID,
		Message:      message,
		CreatedAt:    timestamptzToTime(createdAt),
	}, nil
}

// GetRecentMessages returns a room's most recent chat lines, oldest first.
func (s *ChatStore) GetRecentMessages(ctx context.Context, roomID string, limit int) ([]ChatMessage, error) {
	roomUUID, err := stringToUUID(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room_id: %w", err)
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, room_player_id, message, created_at FROM (
		   SELECT id, room_id, room_player_id, message, created_at
		   FROM chat_messages
		   WHERE room_id = $1
		   ORDER BY created_at DESC
		   LIMIT $2
		 ) recent ORDER BY created_at ASC`, roomUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent chat messages: %w", err)
	}
	defer rows.Close()

	messages := []ChatMessage{}
	for rows.Next() {
		var (
			id, rid, pid pgtype.UUID
			message      string
			createdAt    pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &rid, &pid, &message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, ChatMessage{
			ID:           uuidToString(id),
			RoomID:       uuidToString(rid),
			RoomPlayerID: uuidToString(pid),
			Message:      message,
			CreatedAt:    timestamptzToTime(createdAt),
		})
	}
	return messages, rows.Err()
}
