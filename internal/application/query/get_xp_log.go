package query

import (
	"context"
	"errors"
	"time"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET XP LOG QUERY
// Returns the user's audit trail, newest first. The log is never used to
// derive current XP - it exists for support and for the history view.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultLogLimit = 20
	maxLogLimit     = 200
)

// GetXPLogQuery contains the query parameters.
type GetXPLogQuery struct {
	UserID string
	Limit  int
}

// Validate normalizes the parameters.
func (q *GetXPLogQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_xp_log: user_id is required")
	}
	if q.Limit <= 0 {
		q.Limit = defaultLogLimit
	}
	if q.Limit > maxLogLimit {
		q.Limit = maxLogLimit
	}
	return nil
}

// XPLogEntryDTO is one log entry in the response.
type XPLogEntryDTO struct {
	ID        string    `json:"id"`
	XPGained  int       `json:"xpGained"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// GetXPLogHandler handles GetXPLogQuery.
type GetXPLogHandler struct {
	logs xp.LogRepository
}

// NewGetXPLogHandler creates the handler.
func NewGetXPLogHandler(logs xp.LogRepository) *GetXPLogHandler {
	return &GetXPLogHandler{logs: logs}
}

// Handle returns the user's most recent log entries.
func (h *GetXPLogHandler) Handle(ctx context.Context, q GetXPLogQuery) ([]XPLogEntryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.logs.ListByUser(ctx, q.UserID, q.Limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]XPLogEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, XPLogEntryDTO{
			ID:        e.ID,
			XPGained:  e.XPGained,
			Source:    e.Source,
			Timestamp: e.CreatedAt,
		})
	}
	return dtos, nil
}
