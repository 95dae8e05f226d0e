package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Room represents a game room.
type Room struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	PasswordHash *string   `json:"-"` // Never expose password hash
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoomPlayer represents a player in a room.
type RoomPlayer struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	DisplayName string    `json:"display_name"`
	IsHost      bool      `json:"is_host"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRoomRequest contains the data needed to create a room.
type CreateRoomRequest struct {
	Password    string `json:"password,omitempty"`
	DisplayName string `json:"display_name"`
}

// CreateRoomResponse contains the response after creating a room.
// Token and ExpiresAt are set by the HTTP handler after calling CreateRoom.
type CreateRoomResponse struct {
	Room       *Room       `json:"room"`
	RoomPlayer *RoomPlayer `json:"room_player"`
	Token      string      `json:"token,omitempty"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
}

// JoinRoomRequest contains the data needed to join a room.
type JoinRoomRequest struct {
	Code        string `json:"code"`
	Password    string `json:"password,omitempty"`
	DisplayName string `json:"display_name"`
}

// JoinRoomResponse contains the response after joining a room.
// Token and ExpiresAt are set by the HTTP handler after calling JoinRoom.
type JoinRoomResponse struct {
	Room       *Room       `json:"room"`
	RoomPlayer *RoomPlayer `json:"room_player"`
	Token      string      `json:"token,omitempty"`
	ExpiresAt  *time.Time  `json:"expires_at,omitempty"`
}

// GetRoomResponse contains room info and its roster for GET /api/rooms/{code}.
type GetRoomResponse struct {
	Room    *Room         `json:"room"`
	Players []*RoomPlayer `json:"players"`
}

// Sentinel errors mapped to HTTP status codes by the handlers.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordRequired = errors.New("password is required")
	ErrNameTaken        = errors.New("display name already taken in this room")
	ErrPlayerNotInRoom  = errors.New("player not in room")
)

// RoomStore handles database operations for rooms.
type RoomStore struct {
	pool *pgxpool.Pool
}

// NewRoomStore creates a new RoomStore.
func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

// generateRoomCode generates a unique, human-readable room code.
func generateRoomCode() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // Exclude confusing chars like 0, O, I, 1
	const codeLength = 6
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = charset[r.Intn(len(charset))]
	}
	return string(code)
}

// hashPassword hashes a password using bcrypt.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// uuidToString converts pgtype.UUID to string.
func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	id, err := uuid.FromBytes(u.Bytes[:])
	if err != nil {
		return ""
	}
	return id.String()
}

// stringToUUID converts string to pgtype.UUID.
func stringToUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, err
	}
	var u pgtype.UUID
	copy(u.Bytes[:], id[:])
	u.Valid = true
	return u, nil
}

// textToString converts pgtype.Text to *string (nullable).
func textToString(text pgtype.Text) *string {
	if !text.Valid {
		return nil
	}
	return &text.String
}

// timestamptzToTime converts pgtype.Timestamptz to time.Time.
func timestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

// CreateRoom creates a new room and its host player in one transaction.
func (s *RoomStore) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResponse, error) {
	if req.DisplayName == "" {
		return nil, fmt.Errorf("display_name is required")
	}

	// Generate unique room code
	var code string
	for {
		code = generateRoomCode()
		var exists bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM rooms WHERE code = $1)`, code).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check room code exists: %w", err)
		}
		if !exists {
			break
		}
	}

	// Hash password if provided
	var passwordHash *string
	if req.Password != "" {
		hash, err := hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = &hash
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		roomID               pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx,
		`INSERT INTO rooms (code, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		code, passwordHash).Scan(&roomID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	var (
		playerID        pgtype.UUID
		playerCreatedAt pgtype.Timestamptz
	)
	err = tx.QueryRow(ctx,
		`INSERT INTO room_players (room_id, display_name, is_host)
		 VALUES ($1, $2, TRUE)
		 RETURNING id, created_at`,
		roomID, req.DisplayName).Scan(&playerID, &playerCreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert room player: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	room := &Room{
		ID:        uuidToString(roomID),
		Code:      code,
		CreatedAt: timestamptzToTime(createdAt),
		UpdatedAt: timestamptzToTime(updatedAt),
	}
	roomPlayer := &RoomPlayer{
		ID:          uuidToString(playerID),
		RoomID:      room.ID,
		DisplayName: req.DisplayName,
		IsHost:      true,
		CreatedAt:   timestamptzToTime(playerCreatedAt),
	}
	return &CreateRoomResponse{Room: room, RoomPlayer: roomPlayer}, nil
}

// JoinRoom allows a player to join an existing room by code.
func (s *RoomStore) JoinRoom(ctx context.Context, req JoinRoomRequest) (*JoinRoomResponse, error) {
	if req.DisplayName == "" {
		return nil, fmt.Errorf("display_name is required")
	}

	room, err := s.getRoomByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	// Validate password if room has one
	if room.PasswordHash != nil {
		if req.Password == "" {
			return nil, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*room.PasswordHash), []byte(req.Password)); err != nil {
			return nil, ErrInvalidPassword
		}
	}

	roomUUID, err := stringToUUID(room.ID)
	if err != nil {
		return nil, fmt.Errorf("convert room id to uuid: %w", err)
	}

	var nameExists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM room_players WHERE room_id = $1 AND display_name = $2)`,
		roomUUID, req.DisplayName).Scan(&nameExists)
	if err != nil {
		return nil, fmt.Errorf("check display name exists: %w", err)
	}
	if nameExists {
		return nil, ErrNameTaken
	}

	var (
		playerID  pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO room_players (room_id, display_name, is_host)
		 VALUES ($1, $2, FALSE)
		 RETURNING id, created_at`,
		roomUUID, req.DisplayName).Scan(&playerID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert room player: %w", err)
	}

	roomPlayer := &RoomPlayer{
		ID:          uuidToString(playerID),
		RoomID:      room.ID,
		DisplayName: req.DisplayName,
		IsHost:      false,
		CreatedAt:   timestamptzToTime(createdAt),
	}
	return &JoinRoomResponse{Room: room, RoomPlayer: roomPlayer}, nil
}

// GetRoom returns room info and the current roster for the given room code.
func (s *RoomStore) GetRoom(ctx context.Context, code string) (*GetRoomResponse, error) {
	room, err := s.getRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	players, err := s.GetRoomPlayers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	return &GetRoomResponse{Room: room, Players: players}, nil
}

// GetRoomPlayers returns all players in a room, oldest first.
func (s *RoomStore) GetRoomPlayers(ctx context.Context, roomID string) ([]*RoomPlayer, error) {
	roomUUID, err := stringToUUID(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room id: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, display_name, is_host, created_at
		 FROM room_players
		 WHERE room_id = $1
		 ORDER BY created_at ASC`, roomUUID)
	if err != nil {
		return nil, fmt.Errorf("get room players: %w", err)
	}
	defer rows.Close()

	players := []*RoomPlayer{}
	for rows.Next() {
		var (
			id, rid   pgtype.UUID
			name      string
			isHost    bool
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &rid, &name, &isHost, &createdAt); err != nil {
			return nil, fmt.Errorf("scan room player: %w", err)
		}
		players = append(players, &RoomPlayer{
			ID:          uuidToString(id),
			RoomID:      uuidToString(rid),
			DisplayName: name,
			IsHost:      isHost,
			CreatedAt:   timestamptzToTime(createdAt),
		})
	}
	return players, rows.Err()
}

// GetRoomPlayerInRoom returns the room player with the given ID if they belong
// to the room identified by code.
func (s *RoomStore) GetRoomPlayerInRoom(ctx context.Context, code string, roomPlayerID string) (*RoomPlayer, error) {
	room, err := s.getRoomByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	playerUUID, err := stringToUUID(roomPlayerID)
	if err != nil {
		return nil, fmt.Errorf("invalid room_player_id: %w", err)
	}
	roomUUID, err := stringToUUID(room.ID)
	if err != nil {
		return nil, fmt.Errorf("convert room id to uuid: %w", err)
	}

	var (
		name      string
		isHost    bool
		createdAt pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx,
		`SELECT display_name, is_host, created_at
		 FROM room_players
		 WHERE id = $1 AND room_id = $2`,
		playerUUID, roomUUID).Scan(&name, &isHost, &createdAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlayerNotInRoom
		}
		return nil, fmt.Errorf("get room player: %w", err)
	}
	return &RoomPlayer{
		ID:          roomPlayerID,
		RoomID:      room.ID,
		DisplayName: name,
		IsHost:      isHost,
		CreatedAt:   timestamptzToTime(createdAt),
	}, nil
}

func (s *RoomStore) getRoomByCode(ctx context.Context, code string) (*Room, error) {
	var (
		id                   pgtype.UUID
		passwordHash         pgtype.Text
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, password_hash, created_at, updated_at FROM rooms WHERE code = $1`,
		code).Scan(&id, &passwordHash, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room by code: %w", err)
	}
	return &Room{
		ID:           uuidToString(id),
		Code:         code,
		PasswordHash: textToString(passwordHash),
		CreatedAt:    timestamptzToTime(createdAt),
		UpdatedAt:    timestamptzToTime(updatedAt),
	}, nil
}
