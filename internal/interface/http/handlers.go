package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/taskforge/gamification/internal/application/command"
	"github.com/taskforge/gamification/internal/application/query"
	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "gamification",
		"status":  "running",
		"uptime":  s.Uptime().String(),
	})
}

// handleLive is the liveness probe: the process is up.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReady is the readiness probe: backing services respond.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if s.deps.Postgres != nil {
		if err := s.deps.Postgres.Ping(ctx); err != nil {
			checks["postgres"] = "down"
			ready = false
		} else {
			checks["postgres"] = "up"
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Ping(ctx); err != nil {
			checks["redis"] = "down"
			ready = false
		} else {
			checks["redis"] = "up"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	})
}

// handleHealth combines liveness and readiness into one report.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.handleReady(w, r)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress returns the user's level progress.
//
//	GET /api/v1/users/{id}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	dto, err := s.deps.GetProgressHandler.Handle(r.Context(), query.GetProgressQuery{UserID: userID})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// XP LOG & HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// handleGetXPLog returns the user's recent XP awards, newest first.
//
//	GET /api/v1/users/{id}/xp/log?limit=n
func (s *Server) handleGetXPLog(w http.ResponseWriter, r *http.Request) {
	q := query.GetXPLogQuery{
		UserID: r.PathValue("id"),
		Limit:  getQueryParamInt(r, "limit", 0),
	}

	entries, err := s.deps.GetXPLogHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

// handleGetHistoricalXP returns the recomputed XP total over all completed
// tasks without touching stored state. A dry run of the retroactive apply.
//
//	GET /api/v1/users/{id}/xp/historical
func (s *Server) handleGetHistoricalXP(w http.ResponseWriter, r *http.Request) {
	q := query.CalculateHistoricalXPQuery{UserID: r.PathValue("id")}

	dto, err := s.deps.CalculateHistoricalXP.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// RETROACTIVE RECALCULATION
// ══════════════════════════════════════════════════════════════════════════════

// retroactiveResponse combines the command outcome with refreshed progress.
type retroactiveResponse struct {
	Applied      bool              `json:"applied"`
	HistoricalXP int               `json:"historicalXP"`
	LeveledUp    bool              `json:"leveledUp"`
	Progress     query.ProgressDTO `json:"progress"`
}

// handleApplyRetroactiveXP recomputes XP from the user's completed task
// history and overwrites the stored total when the result is positive.
//
//	POST /api/v1/users/{id}/xp/retroactive
func (s *Server) handleApplyRetroactiveXP(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	res, err := s.deps.ApplyRetroactiveXPHandler.Handle(r.Context(), command.ApplyRetroactiveXPCommand{UserID: userID})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, retroactiveResponse{
		Applied:      res.Applied,
		HistoricalXP: res.HistoricalXP,
		LeveledUp:    res.LeveledUp,
		Progress:     query.BuildProgress(res.NewXP, res.NewLevel),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard returns the top of the XP ranking.
//
//	GET /api/v1/leaderboard?limit=n&userId=...
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{
		Limit:  getQueryParamInt(r, "limit", 0),
		UserID: r.URL.Query().Get("userId"),
	}

	dto, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, xp.ErrUserStateNotFound):
		writeJSONError(w, http.StatusNotFound, "user_not_found", "No XP state exists for this user")
	case errors.Is(err, xp.ErrInvalidUserID), errors.Is(err, xp.ErrInvalidXP):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, query.ErrLeaderboardUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, "leaderboard_unavailable", "The leaderboard is not available")
	default:
		s.log.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
			logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
