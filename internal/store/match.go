package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Match is one finished game's persisted outcome.
type Match struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	Result     string    `json:"result"`
	FinishedAt time.Time `json:"finished_at"`
}

// MatchScore is one player's cumulative score at the end of a match.
type MatchScore struct {
	MatchID      string `json:"match_id"`
	RoomPlayerID string `json:"room_player_id"`
	Score        int    `json:"score"`
}

// MatchStore persists finished-game outcomes. Its RecordResult method
// satisfies the engine's result sink: it writes asynchronously so the game
// loop never blocks on the database.
type MatchStore struct {
	pool *pgxpool.Pool
}

// NewMatchStore creates a new MatchStore.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// RecordResult persists a finished game's result and scores in the
// background. Failures are logged, not surfaced; the in-memory game state is
// authoritative and a lost match row is acceptable.
func (s *MatchStore) RecordResult(roomID, result string, scores map[string]int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.insertMatch(ctx, roomID, result, scores); err != nil {
			log.Printf("record match result room_id=%s: %v", roomID, err)
		}
	}()
}

func (s *MatchStore) insertMatch(ctx context.Context, roomID, result string, scores map[string]int) error {
	roomUUID, err := stringToUUID(roomID)
	if err != nil {
		return fmt.Errorf("invalid room id: %w", err)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var matchID pgtype.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO matches (room_id, result) VALUES ($1, $2) RETURNING id`,
		roomUUID, result).Scan(&matchID)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for playerID, score := range scores {
		playerUUID, err := stringToUUID(playerID)
		if err != nil {
			return fmt.Errorf("invalid player id %q: %w", playerID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO match_scores (match_id, room_player_id, score) VALUES ($1, $2, $3)`,
			matchID, playerUUID, score)
		if err != nil {
			return fmt.Errorf("insert match score: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListMatches returns a room's finished matches, newest first.
func (s *MatchStore) ListMatches(ctx context.Context, roomID string, limit int) ([]*Match, error) {
	roomUUID, err := stringToUUID(roomID)
	if err != nil {
		return nil, fmt.Errorf("invalid room id: %w", err)
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, result, finished_at
		 FROM matches
		 WHERE room_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`, roomUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := []*Match{}
	for rows.Next() {
		var (
			id, rid    pgtype.UUID
			result     string
			finishedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &rid, &result, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, &Match{
			ID:         uuidToString(id),
			RoomID:     uuidToString(rid),
			Result:     result,
			FinishedAt: timestamptzToTime(finishedAt),
		})
	}
	return matches, rows.Err()
}

// GetMatchScores returns the per-player scores recorded for a match.
func (s *MatchStore) GetMatchScores(ctx context.Context, matchID string) ([]*MatchScore, error) {
	matchUUID, err := stringToUUID(matchID)
	if err != nil {
		return nil, fmt.Errorf("invalid match id: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT match_id, room_player_id, score
		 FROM match_scores
		 WHERE match_id = $1`, matchUUID)
	if err != nil {
		return nil, fmt.Errorf("get match scores: %w", err)
	}
	defer rows.Close()

	scores := []*MatchScore{}
	for rows.Next() {
		var (
			mid, pid pgtype.UUID
			score    int
		)
		if err := rows.Scan(&mid, &pid, &score); err != nil {
			return nil, fmt.Errorf("scan match score: %w", err)
		}
		scores = append(scores, &MatchScore{
			MatchID:      uuidToString(mid),
			RoomPlayerID: uuidToString(pid),
			Score:        score,
		})
	}
	return scores, rows.Err()
}
