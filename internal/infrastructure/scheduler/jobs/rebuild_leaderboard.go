// Package jobs contains the scheduled jobs of the gamification service.
package jobs

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob re-seeds the Redis leaderboard from PostgreSQL. The
// per-mutation score writes are best-effort, so the sorted set drifts when
// Redis drops a write or loses its data; this job restores it to the source
// of truth.
type RebuildLeaderboardJob struct {
	states      xp.UserStateRepository
	leaderboard xp.Leaderboard
	log         *logger.Logger
	config      RebuildLeaderboardConfig

	lastStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// PageSize is the number of user states fetched per page.
	PageSize int

	// Timeout is the maximum duration for one rebuild run.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		PageSize: 500,
		Timeout:  2 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	TotalUsers  int
	Pages       int
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	states xp.UserStateRepository,
	leaderboard xp.Leaderboard,
	log *logger.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if log == nil {
		log = logger.Default()
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultRebuildLeaderboardConfig().PageSize
	}

	return &RebuildLeaderboardJob{
		states:      states,
		leaderboard: leaderboard,
		log:         log.With(logger.Component("rebuild_leaderboard")),
		config:      config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Re-seeds the Redis XP leaderboard from the PostgreSQL user states"
}

// Run executes the rebuild.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	var entries []xp.LeaderboardEntry
	offset := 0
	for {
		page, err := j.states.List(ctx, offset, j.config.PageSize)
		if err != nil {
			return fmt.Errorf("failed to list user states at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		for _, s := range page {
			entries = append(entries, xp.LeaderboardEntry{
				UserID: s.UserID,
				XP:     s.CurrentXP,
			})
		}

		stats.Pages++
		offset += len(page)
		if len(page) < j.config.PageSize {
			break
		}
	}

	if err := j.leaderboard.Rebuild(ctx, entries); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}

	stats.TotalUsers = len(entries)
	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.log.Info("leaderboard rebuilt",
		logger.Int("users", stats.TotalUsers),
		logger.Int("pages", stats.Pages),
		logger.Duration("duration", stats.Duration))

	return nil
}

// LastStats returns statistics from the most recent run, or nil if the job
// has not completed yet.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
