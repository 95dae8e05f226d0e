package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkalvans/mafia-backend/internal/httpapi/handler"
	"github.com/mkalvans/mafia-backend/internal/store"
)

func setupTestHandler(t *testing.T) (h *handler.RoomHandler, matchStore *store.MatchStore, pool *pgxpool.Pool) {
	t.Helper()
	pool = store.SetupTestDB(t)
	roomStore := store.NewRoomStore(pool)
	matchStore = store.NewMatchStore(pool)
	h = handler.NewRoomHandler(roomStore, matchStore, []byte("test-secret"))
	return h, matchStore, pool
}

func chiCtxWithCode(code string) func(*http.Request) *http.Request {
	return func(r *http.Request) *http.Request {
		ctx := context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
			URLParams: chi.RouteParams{Keys: []string{"code"}, Values: []string{code}},
		})
		return r.WithContext(ctx)
	}
}

func createRoomViaHandler(t *testing.T, h *handler.RoomHandler, displayName, password string) *store.CreateRoomResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"display_name": displayName, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.CreateRoom(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create room: expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var resp store.CreateRoomResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return &resp
}

func TestCreateRoomHandler(t *testing.T) {
	t.Run("success without password", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()

		body, _ := json.Marshal(map[string]interface{}{"display_name": "HostPlayer"})
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.CreateRoom(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
		}
		var resp store.CreateRoomResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Room == nil || resp.Room.Code == "" {
			t.Error("expected non-nil room with code")
		}
		if resp.RoomPlayer == nil || resp.RoomPlayer.DisplayName != "HostPlayer" || !resp.RoomPlayer.IsHost {
			t.Error("expected host room player")
		}
		if resp.Token == "" || resp.ExpiresAt == nil {
			t.Error("expected auth token in create response")
		}
		if w.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", w.Header().Get("Content-Type"))
		}
	})

	t.Run("success with password", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		resp := createRoomViaHandler(t, h, "HostPlayer", "secret123")
		if resp.Room == nil || resp.RoomPlayer == nil {
			t.Fatal("expected room and player")
		}
	})

	t.Run("missing display_name", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		body, _ := json.Marshal(map[string]interface{}{"password": "secret123"})
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.CreateRoom(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("display_name is trimmed", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		body, _ := json.Marshal(map[string]interface{}{"display_name": "  Spacey  "})
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.CreateRoom(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var resp store.CreateRoomResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.RoomPlayer.DisplayName != "Spacey" {
			t.Errorf("expected trimmed name, got %q", resp.RoomPlayer.DisplayName)
		}
	})

	t.Run("display_name too long", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		long := make([]byte, handler.DisplayNameMaxLen+1)
		for i := range long {
			long[i] = 'a'
		}
		body, _ := json.Marshal(map[string]interface{}{"display_name": string(long)})
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.CreateRoom(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader([]byte("invalid json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.CreateRoom(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if w.Body.String() != "invalid request body\n" {
			t.Errorf("unexpected body: %q", w.Body.String())
		}
	})

	t.Run("wrong HTTP method", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
		w := httptest.NewRecorder()
		h.CreateRoom(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})
}

func TestJoinRoomHandler(t *testing.T) {
	t.Run("success join room without password", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		createResp := createRoomViaHandler(t, h, "HostPlayer", "")

		joinBody, _ := json.Marshal(map[string]interface{}{"display_name": "GuestPlayer"})
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/"+createResp.Room.Code+"/join", bytes.NewReader(joinBody))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode(createResp.Room.Code)(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)

		if joinW.Code != http.StatusOK {
			t.Errorf("expected 200, got %d body=%s", joinW.Code, joinW.Body.String())
		}
		var joinResp store.JoinRoomResponse
		if err := json.NewDecoder(joinW.Body).Decode(&joinResp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if joinResp.Room == nil || joinResp.Room.Code != createResp.Room.Code {
			t.Error("expected room in response")
		}
		if joinResp.RoomPlayer == nil || joinResp.RoomPlayer.DisplayName != "GuestPlayer" || joinResp.RoomPlayer.IsHost {
			t.Error("expected guest player")
		}
		if joinResp.Token == "" {
			t.Error("expected auth token in join response")
		}
	})

	t.Run("success join room with password", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		createResp := createRoomViaHandler(t, h, "HostPlayer", "secret123")

		joinBody, _ := json.Marshal(map[string]interface{}{"display_name": "SecureGuest", "password": "secret123"})
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/"+createResp.Room.Code+"/join", bytes.NewReader(joinBody))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode(createResp.Room.Code)(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusOK {
			t.Errorf("expected 200, got %d body=%s", joinW.Code, joinW.Body.String())
		}
		var joinResp store.JoinRoomResponse
		json.NewDecoder(joinW.Body).Decode(&joinResp)
		if joinResp.RoomPlayer.DisplayName != "SecureGuest" {
			t.Errorf("expected SecureGuest, got %q", joinResp.RoomPlayer.DisplayName)
		}
	})

	t.Run("room not found", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		joinBody, _ := json.Marshal(map[string]interface{}{"display_name": "GuestPlayer"})
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/ZZZZ99/join", bytes.NewReader(joinBody))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode("ZZZZ99")(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", joinW.Code)
		}
		if joinW.Body.String() != "room not found\n" {
			t.Errorf("unexpected body: %q", joinW.Body.String())
		}
	})

	t.Run("password required for protected room", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		createResp := createRoomViaHandler(t, h, "HostPlayer", "password123")

		joinBody, _ := json.Marshal(map[string]interface{}{"display_name": "GuestPlayer"})
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/"+createResp.Room.Code+"/join", bytes.NewReader(joinBody))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode(createResp.Room.Code)(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", joinW.Code)
		}
		if joinW.Body.String() != "password is required\n" {
			t.Errorf("unexpected body: %q", joinW.Body.String())
		}
	})

	t.Run("invalid password", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		createResp := createRoomViaHandler(t, h, "HostPlayer", "correctpassword")

		joinBody, _ := json.Marshal(map[string]interface{}{"display_name": "GuestPlayer", "password": "wrongpassword"})
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/"+createResp.Room.Code+"/join", bytes.NewReader(joinBody))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode(createResp.Room.Code)(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", joinW.Code)
		}
		if joinW.Body.String() != "invalid password\n" {
			t.Errorf("unexpected body: %q", joinW.Body.String())
		}
	})

	t.Run("display name already taken", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		createResp := createRoomViaHandler(t, h, "Player1", "")

		joinBody, _ := json.Marshal(map[string]interface{}{"display_name": "Player1"})
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/"+createResp.Room.Code+"/join", bytes.NewReader(joinBody))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode(createResp.Room.Code)(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", joinW.Code)
		}
		if joinW.Body.String() != "display name already taken in this room\n" {
			t.Errorf("unexpected body: %q", joinW.Body.String())
		}
	})

	t.Run("missing display_name", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		joinBody, _ := json.Marshal(map[string]interface{}{})
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/ABC234/join", bytes.NewReader(joinBody))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode("ABC234")(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", joinW.Code)
		}
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		joinReq := httptest.NewRequest(http.MethodPost, "/api/rooms/ABC234/join", bytes.NewReader([]byte("invalid json")))
		joinReq.Header.Set("Content-Type", "application/json")
		joinReq = chiCtxWithCode("ABC234")(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", joinW.Code)
		}
		if joinW.Body.String() != "invalid request body\n" {
			t.Errorf("unexpected body: %q", joinW.Body.String())
		}
	})

	t.Run("wrong HTTP method", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		joinReq := httptest.NewRequest(http.MethodGet, "/api/rooms/ABC234/join", nil)
		joinReq = chiCtxWithCode("ABC234")(joinReq)
		joinW := httptest.NewRecorder()
		h.JoinRoom(joinW, joinReq)
		if joinW.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", joinW.Code)
		}
	})
}

func TestGetRoomHandler(t *testing.T) {
	t.Run("success returns room and roster", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		createResp := createRoomViaHandler(t, h, "HostPlayer", "")
		code := createResp.Room.Code

		getReq := httptest.NewRequest(http.MethodGet, "/api/rooms/"+code, nil)
		getReq = chiCtxWithCode(code)(getReq)
		getW := httptest.NewRecorder()
		h.GetRoom(getW, getReq)

		if getW.Code != http.StatusOK {
			t.Errorf("expected 200, got %d body=%s", getW.Code, getW.Body.String())
		}
		var getResp store.GetRoomResponse
		if err := json.NewDecoder(getW.Body).Decode(&getResp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if getResp.Room == nil || getResp.Room.Code != code {
			t.Error("expected room in response")
		}
		if len(getResp.Players) != 1 || getResp.Players[0].DisplayName != "HostPlayer" {
			t.Errorf("expected roster with host, got %+v", getResp.Players)
		}
	})

	t.Run("not found for unknown code", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		getReq := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZ99", nil)
		getReq = chiCtxWithCode("ZZZZ99")(getReq)
		getW := httptest.NewRecorder()
		h.GetRoom(getW, getReq)
		if getW.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", getW.Code)
		}
	})

	t.Run("invalid room code format", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		for _, code := range []string{"x", "12345", "1234567", "!!!!!!"} {
			getReq := httptest.NewRequest(http.MethodGet, "/api/rooms/"+code, nil)
			getReq = chiCtxWithCode(code)(getReq)
			getW := httptest.NewRecorder()
			h.GetRoom(getW, getReq)
			if getW.Code != http.StatusBadRequest {
				t.Errorf("code %q: expected 400, got %d", code, getW.Code)
			}
		}
	})
}

func TestListMatchesHandler(t *testing.T) {
	t.Run("empty history for fresh room", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		createResp := createRoomViaHandler(t, h, "HostPlayer", "")
		code := createResp.Room.Code

		req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+code+"/matches", nil)
		req = chiCtxWithCode(code)(req)
		w := httptest.NewRecorder()
		h.ListMatches(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
		}
		var matches []*store.Match
		if err := json.NewDecoder(w.Body).Decode(&matches); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("expected empty history, got %d matches", len(matches))
		}
	})

	t.Run("not found for unknown code", func(t *testing.T) {
		h, _, pool := setupTestHandler(t)
		defer pool.Close()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms/ZZZZ99/matches", nil)
		req = chiCtxWithCode("ZZZZ99")(req)
		w := httptest.NewRecorder()
		h.ListMatches(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}
