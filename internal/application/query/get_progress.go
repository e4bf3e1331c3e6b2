// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Pure derivation from stored XP state plus the level schedule. No mutation.
// Served through an optional read-through cache; award paths invalidate it.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifies the user.
type GetProgressQuery struct {
	UserID string
}

// Validate validates the query.
func (q GetProgressQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_progress: user_id is required")
	}
	return nil
}

// ProgressDTO is the progress response. Field names are part of the API
// contract with the web client.
type ProgressDTO struct {
	// CurrentXP is the user's cumulative XP.
	CurrentXP int `json:"currentXP"`

	// CurrentLevel is the level derived from CurrentXP.
	CurrentLevel int `json:"currentLevel"`

	// XPForCurrentLevel is the cumulative threshold of the current level.
	XPForCurrentLevel int `json:"xpForCurrentLevel"`

	// XPForNextLevel is the cumulative threshold of the next level. At the
	// level cap it equals XPForCurrentLevel - there is nothing above.
	XPForNextLevel int `json:"xpForNextLevel"`

	// XPProgress is XP earned within the current level.
	XPProgress int `json:"xpProgress"`

	// XPRemaining is XP still needed for the next level. Zero at the cap.
	XPRemaining int `json:"xpRemaining"`

	// ProgressPercentage is floor(progress / levelRequirement * 100).
	// Pinned to 100 at the cap.
	ProgressPercentage int `json:"progressPercentage"`
}

// BuildProgress derives a ProgressDTO from raw XP state. Exported so the
// retroactive endpoint can return refreshed progress without a second read.
func BuildProgress(currentXP, currentLevel int) ProgressDTO {
	if currentLevel >= xp.MaxLevel {
		floor := xp.CumulativeXPForLevel(xp.MaxLevel)
		return ProgressDTO{
			CurrentXP:          currentXP,
			CurrentLevel:       xp.MaxLevel,
			XPForCurrentLevel:  floor,
			XPForNextLevel:     floor,
			XPProgress:         currentXP - floor,
			XPRemaining:        0,
			ProgressPercentage: 100,
		}
	}

	levelFloor := xp.CumulativeXPForLevel(currentLevel)
	nextFloor := xp.CumulativeXPForLevel(currentLevel + 1)
	progress := currentXP - levelFloor
	required := xp.XPRequiredForLevel(currentLevel)

	return ProgressDTO{
		CurrentXP:          currentXP,
		CurrentLevel:       currentLevel,
		XPForCurrentLevel:  levelFloor,
		XPForNextLevel:     nextFloor,
		XPProgress:         progress,
		XPRemaining:        nextFloor - currentXP,
		ProgressPercentage: int(math.Floor(float64(progress) / float64(required) * 100)),
	}
}

// GetProgressHandler handles GetProgressQuery.
type GetProgressHandler struct {
	states xp.UserStateRepository
	cache  xp.ProgressCache
	log    *logger.Logger
}

// NewGetProgressHandler creates the handler. A nil cache disables caching.
func NewGetProgressHandler(states xp.UserStateRepository, cache xp.ProgressCache, log *logger.Logger) *GetProgressHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetProgressHandler{
		states: states,
		cache:  cache,
		log:    log.With(logger.Component("get_progress")),
	}
}

// Handle returns the user's progress, preferring the cache.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*ProgressDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		if payload, ok, err := h.cache.Get(ctx, q.UserID); err == nil && ok {
			var dto ProgressDTO
			if err := json.Unmarshal(payload, &dto); err == nil {
				return &dto, nil
			}
			// Corrupt cache entry: fall through to the store.
		}
	}

	state, err := h.states.Get(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	dto := BuildProgress(state.CurrentXP, state.CurrentLevel)

	if h.cache != nil {
		if payload, err := json.Marshal(dto); err == nil {
			if err := h.cache.Set(ctx, q.UserID, payload); err != nil {
				h.log.Debug("progress cache set failed",
					logger.UserID(q.UserID), logger.Err(err))
			}
		}
	}

	return &dto, nil
}
