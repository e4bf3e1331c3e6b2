package query

import (
	"context"
	"errors"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Reads the XP ranking maintained alongside awards. The board is a derived
// view: a periodic rebuild reconciles it against the user store, so a stale
// read here is acceptable.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// GetLeaderboardQuery contains the query parameters.
type GetLeaderboardQuery struct {
	// Limit is the number of entries to return (default 10, max 100).
	Limit int

	// UserID optionally requests the rank of one user alongside the top.
	UserID string
}

// Validate normalizes the parameters.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit <= 0 {
		q.Limit = defaultLeaderboardLimit
	}
	if q.Limit > maxLeaderboardLimit {
		q.Limit = maxLeaderboardLimit
	}
	return nil
}

// LeaderboardDTO is the leaderboard response.
type LeaderboardDTO struct {
	Entries []xp.LeaderboardEntry `json:"entries"`

	// UserRank is the requesting user's 1-based rank, 0 when unranked or
	// when no user was requested.
	UserRank int `json:"userRank,omitempty"`
}

// GetLeaderboardHandler handles GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	board xp.Leaderboard
}

// NewGetLeaderboardHandler creates the handler.
func NewGetLeaderboardHandler(board xp.Leaderboard) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{board: board}
}

// ErrLeaderboardUnavailable is returned when no leaderboard is configured.
var ErrLeaderboardUnavailable = errors.New("get_leaderboard: leaderboard not configured")

// Handle returns the top entries and, optionally, one user's rank.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if h.board == nil {
		return nil, ErrLeaderboardUnavailable
	}

	entries, err := h.board.Top(ctx, q.Limit)
	if err != nil {
		return nil, err
	}

	dto := &LeaderboardDTO{Entries: entries}

	if q.UserID != "" {
		rank, err := h.board.Rank(ctx, q.UserID)
		if err != nil {
			return nil, err
		}
		dto.UserRank = rank
	}

	return dto, nil
}
