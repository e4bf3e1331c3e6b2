package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/gamification/internal/application/command"
	"github.com/taskforge/gamification/internal/application/query"
	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/internal/infrastructure/persistence/memory"
)

// stubPinger reports a fixed health state.
type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(_ context.Context) error { return p.err }

// newTestServer wires a server against the in-memory stores with "u1" seeded
// at 90 XP and one completed low-priority task.
func newTestServer(t *testing.T) (*Server, *memory.UserStateRepository) {
	t.Helper()

	repo := memory.NewUserStateRepository()
	tasks := memory.NewTaskSource()
	ctx := context.Background()

	s, err := xp.NewUserState("u1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, s))

	entry, err := xp.NewLogEntry("u1", 90, "seed")
	require.NoError(t, err)
	_, err = repo.Award(ctx, "u1", 90, entry)
	require.NoError(t, err)

	tasks.Seed("u1", []xp.TaskXPInput{{Priority: xp.PriorityLow}})

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	server := NewServer(cfg, Dependencies{
		GetProgressHandler:        query.NewGetProgressHandler(repo, nil, nil),
		GetLeaderboardHandler:     query.NewGetLeaderboardHandler(nil),
		GetXPLogHandler:           query.NewGetXPLogHandler(repo),
		CalculateHistoricalXP:     query.NewCalculateHistoricalXPHandler(tasks),
		ApplyRetroactiveXPHandler: command.NewApplyRetroactiveXPHandler(repo, tasks, nil, nil, nil),
	})
	return server, repo
}

func doRequest(t *testing.T, server *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected a success envelope, got error %+v", envelope.Error)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *APIError {
	t.Helper()
	var envelope struct {
		Success bool      `json:"success"`
		Error   *APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	return envelope.Error
}

func TestLiveProbe(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)

	var data map[string]string
	decodeData(t, rec, &data)
	assert.Equal(t, "alive", data["status"])
}

func TestReadyProbe(t *testing.T) {
	server, _ := newTestServer(t)
	server.deps.Postgres = &stubPinger{}

	rec := doRequest(t, server, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	server.deps.Postgres = &stubPinger{err: errors.New("connection refused")}
	rec = doRequest(t, server, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetProgress(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/users/u1/progress")
	require.Equal(t, http.StatusOK, rec.Code)

	var dto query.ProgressDTO
	decodeData(t, rec, &dto)
	assert.Equal(t, 90, dto.CurrentXP)
	assert.Equal(t, 1, dto.CurrentLevel)
	assert.Equal(t, 60, dto.XPRemaining)
}

func TestGetProgress_UnknownUser(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/users/ghost/progress")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user_not_found", decodeError(t, rec).Code)
}

func TestGetXPLog(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/users/u1/xp/log?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Entries []xp.LogEntry `json:"entries"`
	}
	decodeData(t, rec, &data)
	require.Len(t, data.Entries, 1)
	assert.Equal(t, 90, data.Entries[0].XPGained)
}

func TestGetHistoricalXP(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/users/u1/xp/historical")
	require.Equal(t, http.StatusOK, rec.Code)

	var dto query.HistoricalXPDTO
	decodeData(t, rec, &dto)
	assert.Equal(t, 1, dto.TasksConsidered)
	assert.Equal(t, 20, dto.TotalXP)
}

func TestApplyRetroactiveXP(t *testing.T) {
	server, repo := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/users/u1/xp/retroactive")
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Applied      bool              `json:"applied"`
		HistoricalXP int               `json:"historicalXP"`
		Progress     query.ProgressDTO `json:"progress"`
	}
	decodeData(t, rec, &res)
	assert.True(t, res.Applied)
	assert.Equal(t, 20, res.HistoricalXP)
	assert.Equal(t, 20, res.Progress.CurrentXP)

	state, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, state.CurrentXP)
}

func TestGetLeaderboard_NotConfigured(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/leaderboard")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "leaderboard_unavailable", decodeError(t, rec).Code)
}

func TestRoot_UnknownPath(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
