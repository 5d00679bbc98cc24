package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/http/handlers"
	"github.com/MmmDelicious/lovememory-sub007/internal/service"
	"github.com/MmmDelicious/lovememory-sub007/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResults struct {
	byRoom   map[string][]*domain.MatchResult
	byPlayer map[int64][]*domain.MatchResult
	limit    int
}

func (s *stubResults) ListByRoom(_ context.Context, roomID string) ([]*domain.MatchResult, error) {
	return s.byRoom[roomID], nil
}

func (s *stubResults) ListByPlayer(_ context.Context, playerID int64, limit int) ([]*domain.MatchResult, error) {
	s.limit = limit
	return s.byPlayer[playerID], nil
}

type brokenDB struct{}

func (brokenDB) Ping(context.Context) error { return errors.New("connection refused") }

type testAPI struct {
	router *gin.Engine
	hub    *ws.Hub
	token  string
}

func newTestAPI(t *testing.T, results handlers.ResultLister, checks map[string]handlers.Pinger) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := service.NewTokenService("secret", time.Hour, time.Minute)
	require.NoError(t, err)
	token, err := tokens.IssuePlayer(7, "dave")
	require.NoError(t, err)

	hub := ws.NewHub(ws.Options{Tokens: tokens})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})

	r := gin.New()
	RegisterRoutes(r, handlers.NewHandler(hub, tokens, results, nil), handlers.NewHealthHandler(hub, "test", checks), RouteOptions{
		APIRateLimit:  1000,
		APIRateWindow: time.Minute,
	})
	return &testAPI{router: r, hub: hub, token: token}
}

func (a *testAPI) do(method, path, body string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestRoomsAPI(t *testing.T) {
	api := newTestAPI(t, nil, nil)

	w := api.do(http.MethodPost, "/api/v1/rooms", `{"game_type":"chess"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rooms", `{"game_type":"checkers"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rooms", `{"game_type":"memory","config":{"pairs":99}}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/rooms", `{"game_type":"wordle","config":{"max_players":3}}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Room ws.RoomInfo `json:"room"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(7), created.Room.HostID)
	assert.Equal(t, 3, created.Room.Capacity)
	assert.Equal(t, domain.RoomStatusWaiting, created.Room.Status)

	w = api.do(http.MethodGet, "/api/v1/rooms/"+created.Room.ID, "", false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/rooms/missing", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var list struct {
		Rooms []ws.RoomInfo `json:"rooms"`
	}
	w = api.do(http.MethodGet, "/api/v1/rooms?game=wordle&status=waiting", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, created.Room.ID, list.Rooms[0].ID)

	w = api.do(http.MethodGet, "/api/v1/rooms?game=poker", "", false)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Rooms)

	w = api.do(http.MethodGet, "/api/v1/rooms?game=checkers", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/v1/rooms/"+created.Room.ID+"/results", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestResultsAPI(t *testing.T) {
	winner := int64(7)
	results := &stubResults{
		byRoom:   map[string][]*domain.MatchResult{"r1": {{RoomID: "r1", GameType: "chess", WinnerID: &winner}}},
		byPlayer: map[int64][]*domain.MatchResult{7: {{RoomID: "r1"}, {RoomID: "r2"}}},
	}
	api := newTestAPI(t, results, nil)

	w := api.do(http.MethodGet, "/api/v1/rooms/r1/results", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"room_id":"r1"`)

	w = api.do(http.MethodGet, "/api/v1/me/results?limit=1000", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Results []domain.MatchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Results, 2)
	assert.Equal(t, 200, results.limit)

	w = api.do(http.MethodGet, "/api/v1/me/results?limit=-1", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/v1/me", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"dave"}`, w.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t, nil, nil)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", false).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", false).Code)

	w := api.do(http.MethodGet, "/readyz", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rooms":"0"`)

	w = api.do(http.MethodGet, "/metrics", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "game_rooms_active")

	sick := newTestAPI(t, nil, map[string]handlers.Pinger{"database": brokenDB{}})
	assert.Equal(t, http.StatusServiceUnavailable, sick.do(http.MethodGet, "/health", "", false).Code)
	w = sick.do(http.MethodGet, "/readyz", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
