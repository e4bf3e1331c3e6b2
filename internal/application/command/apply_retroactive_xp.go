package command

import (
	"context"
	"errors"
	"time"

	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY RETROACTIVE XP COMMAND
// One-shot reconciliation: recomputes the user's XP from the full completed-
// task history and OVERWRITES the stored total with the result. Running it
// twice with no new completions yields the same state (idempotent by
// recomputation); running it after unrelated incremental awards discards
// them. That overwrite semantic is intentional and documented - do not
// "fix" it here.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyRetroactiveXPCommand identifies the user to reconcile.
type ApplyRetroactiveXPCommand struct {
	UserID string
}

// Validate validates the command.
func (c ApplyRetroactiveXPCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("apply_retroactive_xp: user_id is required")
	}
	return nil
}

// ApplyRetroactiveXPResult contains the outcome of the reconciliation.
type ApplyRetroactiveXPResult struct {
	// UserID is the reconciled user.
	UserID string

	// HistoricalXP is the recomputed total over all completed tasks.
	HistoricalXP int

	// Applied is false when the historical total was not positive and the
	// stored state was left untouched.
	Applied bool

	// NewXP / NewLevel reflect the state after the overwrite (or the
	// untouched state when Applied is false).
	NewXP    int
	NewLevel int

	// LeveledUp is true when the overwrite raised the level.
	LeveledUp bool

	// AppliedAt is when the overwrite was persisted.
	AppliedAt time.Time
}

// ApplyRetroactiveXPHandler handles ApplyRetroactiveXPCommand.
type ApplyRetroactiveXPHandler struct {
	states      xp.UserStateRepository
	tasks       xp.TaskSource
	leaderboard xp.Leaderboard
	cache       xp.ProgressCache
	log         *logger.Logger
}

// NewApplyRetroactiveXPHandler creates the handler.
func NewApplyRetroactiveXPHandler(
	states xp.UserStateRepository,
	tasks xp.TaskSource,
	leaderboard xp.Leaderboard,
	cache xp.ProgressCache,
	log *logger.Logger,
) *ApplyRetroactiveXPHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ApplyRetroactiveXPHandler{
		states:      states,
		tasks:       tasks,
		leaderboard: leaderboard,
		cache:       cache,
		log:         log.With(logger.Component("apply_retroactive_xp")),
	}
}

// Handle recomputes and applies the user's historical XP.
func (h *ApplyRetroactiveXPHandler) Handle(ctx context.Context, cmd ApplyRetroactiveXPCommand) (*ApplyRetroactiveXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// Existence check up front: a user without state fails before any task
	// scan work happens.
	state, err := h.states.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	tasks, err := h.tasks.CompletedTasks(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, task := range tasks {
		total += xp.ComputeTaskXP(task).TotalXP
	}

	if total <= 0 {
		h.log.Info("retroactive calculation produced no XP, state untouched",
			logger.UserID(cmd.UserID))
		return &ApplyRetroactiveXPResult{
			UserID:       cmd.UserID,
			HistoricalXP: total,
			Applied:      false,
			NewXP:        state.CurrentXP,
			NewLevel:     state.CurrentLevel,
		}, nil
	}

	entry, err := xp.NewLogEntry(cmd.UserID, total, xp.SourceRetroactive)
	if err != nil {
		return nil, err
	}

	res, err := h.states.Overwrite(ctx, cmd.UserID, total, entry)
	if err != nil {
		return nil, err
	}

	h.log.Info("retroactive XP applied",
		logger.UserID(cmd.UserID),
		logger.XPAmount(total),
		logger.Int("tasks", len(tasks)),
		logger.LevelField(res.NewLevel))

	if h.leaderboard != nil {
		if err := h.leaderboard.SetScore(ctx, cmd.UserID, res.NewXP); err != nil {
			h.log.Warn("leaderboard score update failed",
				logger.UserID(cmd.UserID), logger.Err(err))
		}
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, cmd.UserID); err != nil {
			h.log.Warn("progress cache invalidation failed",
				logger.UserID(cmd.UserID), logger.Err(err))
		}
	}

	return &ApplyRetroactiveXPResult{
		UserID:       cmd.UserID,
		HistoricalXP: total,
		Applied:      true,
		NewXP:        res.NewXP,
		NewLevel:     res.NewLevel,
		LeveledUp:    res.LeveledUp,
		AppliedAt:    entry.CreatedAt,
	}, nil
}
