// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"time"

	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP COMMAND
// Applies a single XP award to a user: atomic state update + log append,
// then best-effort side effects (events, leaderboard, cache invalidation).
// The handler does not compute award amounts itself - callers supply the
// amount, typically from xp.ComputeTaskXP.
// ══════════════════════════════════════════════════════════════════════════════

// AwardXPCommand contains the data for one XP award.
type AwardXPCommand struct {
	// UserID is the user receiving the XP.
	UserID string

	// XP is the amount to add. Any integer the caller computed.
	XP int

	// Source is a free-text label for the audit log ("task", "bonus", ...).
	Source string
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("award_xp: user_id is required")
	}
	if c.Source == "" {
		return errors.New("award_xp: source is required")
	}
	return nil
}

// AwardXPResult contains the outcome of the award.
type AwardXPResult struct {
	// UserID is the user the XP was applied to.
	UserID string

	// AwardedXP is the amount that was applied.
	AwardedXP int

	// NewXP is the user's XP total after the award.
	NewXP int

	// NewLevel is the level derived from NewXP.
	NewLevel int

	// LeveledUp is true when the award crossed a level threshold.
	LeveledUp bool

	// AwardedAt is when the award was persisted.
	AwardedAt time.Time
}

// AwardXPHandler handles AwardXPCommand.
type AwardXPHandler struct {
	states      xp.UserStateRepository
	notifier    xp.Notifier
	leaderboard xp.Leaderboard
	cache       xp.ProgressCache
	log         *logger.Logger
}

// NewAwardXPHandler creates the handler. Leaderboard and cache are optional;
// nil disables the corresponding side effect.
func NewAwardXPHandler(
	states xp.UserStateRepository,
	notifier xp.Notifier,
	leaderboard xp.Leaderboard,
	cache xp.ProgressCache,
	log *logger.Logger,
) *AwardXPHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AwardXPHandler{
		states:      states,
		notifier:    notifier,
		leaderboard: leaderboard,
		cache:       cache,
		log:         log.With(logger.Component("award_xp")),
	}
}

// Handle applies the award. The state update and log append are one unit of
// work inside the repository; everything after the repository call is
// best-effort and never rolls the award back.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	entry, err := xp.NewLogEntry(cmd.UserID, cmd.XP, cmd.Source)
	if err != nil {
		return nil, err
	}

	res, err := h.states.Award(ctx, cmd.UserID, cmd.XP, entry)
	if err != nil {
		return nil, err
	}

	h.publishEvents(ctx, cmd, res)
	h.updateLeaderboard(ctx, cmd.UserID, res.NewXP)
	h.invalidateCache(ctx, cmd.UserID)

	return &AwardXPResult{
		UserID:    cmd.UserID,
		AwardedXP: cmd.XP,
		NewXP:     res.NewXP,
		NewLevel:  res.NewLevel,
		LeveledUp: res.LeveledUp,
		AwardedAt: entry.CreatedAt,
	}, nil
}

// publishEvents emits xpGained and, on a level-up, levelUp. Failures are
// logged and discarded - notification is best-effort by contract.
func (h *AwardXPHandler) publishEvents(ctx context.Context, cmd AwardXPCommand, res xp.AwardResult) {
	if h.notifier == nil {
		return
	}

	gained := xp.XPGainedEvent{
		XP:        cmd.XP,
		NewTotal:  res.NewXP,
		NewLevel:  res.NewLevel,
		LeveledUp: res.LeveledUp,
		Source:    cmd.Source,
	}
	if err := h.notifier.Emit(ctx, cmd.UserID, xp.EventXPGained, gained); err != nil {
		h.log.Warn("dropped xpGained event",
			logger.UserID(cmd.UserID), logger.Err(err))
	}

	if !res.LeveledUp {
		return
	}

	up := xp.LevelUpEvent{
		NewLevel: res.NewLevel,
		Rewards:  xp.LookupReward(res.NewLevel),
	}
	if err := h.notifier.Emit(ctx, cmd.UserID, xp.EventLevelUp, up); err != nil {
		h.log.Warn("dropped levelUp event",
			logger.UserID(cmd.UserID), logger.LevelField(res.NewLevel), logger.Err(err))
	}
}

func (h *AwardXPHandler) updateLeaderboard(ctx context.Context, userID string, totalXP int) {
	if h.leaderboard == nil {
		return
	}
	if err := h.leaderboard.SetScore(ctx, userID, totalXP); err != nil {
		h.log.Warn("leaderboard score update failed",
			logger.UserID(userID), logger.Err(err))
	}
}

func (h *AwardXPHandler) invalidateCache(ctx context.Context, userID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, userID); err != nil {
		h.log.Warn("progress cache invalidation failed",
			logger.UserID(userID), logger.Err(err))
	}
}
