package query

import (
	"context"
	"errors"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALCULATE HISTORICAL XP QUERY
// Recomputes XP over every completed task using its final state. Read-only:
// the apply-retroactive command is the only path that persists the result.
// ══════════════════════════════════════════════════════════════════════════════

// CalculateHistoricalXPQuery identifies the user.
type CalculateHistoricalXPQuery struct {
	UserID string
}

// Validate validates the query.
func (q CalculateHistoricalXPQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("calculate_historical_xp: user_id is required")
	}
	return nil
}

// HistoricalXPDTO is the recomputation result.
type HistoricalXPDTO struct {
	UserID          string `json:"userId"`
	TasksConsidered int    `json:"tasksConsidered"`
	TotalXP         int    `json:"totalXP"`
}

// CalculateHistoricalXPHandler handles CalculateHistoricalXPQuery.
type CalculateHistoricalXPHandler struct {
	tasks xp.TaskSource
}

// NewCalculateHistoricalXPHandler creates the handler.
func NewCalculateHistoricalXPHandler(tasks xp.TaskSource) *CalculateHistoricalXPHandler {
	return &CalculateHistoricalXPHandler{tasks: tasks}
}

// Handle sums recomputed XP over the user's completed tasks.
func (h *CalculateHistoricalXPHandler) Handle(ctx context.Context, q CalculateHistoricalXPQuery) (*HistoricalXPDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tasks, err := h.tasks.CompletedTasks(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, task := range tasks {
		total += xp.ComputeTaskXP(task).TotalXP
	}

	return &HistoricalXPDTO{
		UserID:          q.UserID,
		TasksConsidered: len(tasks),
		TotalXP:         total,
	}, nil
}
