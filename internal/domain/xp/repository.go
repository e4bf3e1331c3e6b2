package xp

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Contracts for the storage layer. Implementations live in
// infrastructure/persistence. Everything is injected; the domain never
// reaches a process-wide client.
// ══════════════════════════════════════════════════════════════════════════════

// AwardResult is the outcome of an XP mutation.
type AwardResult struct {
	NewXP     int
	NewLevel  int
	LeveledUp bool
}

// UserStateRepository persists per-user XP state.
//
// Award and Overwrite are the only mutation paths and both MUST be atomic per
// user: the state update and the log append succeed or fail together, and two
// concurrent Awards for the same user must both land (no lost updates). A
// naive read-then-write implementation is non-conforming.
type UserStateRepository interface {
	// Create provisions XP state for a new user.
	// Returns ErrUserStateExists if state is already present.
	Create(ctx context.Context, state *UserState) error

	// Get returns the current state.
	// Returns ErrUserStateNotFound if the user has no state.
	Get(ctx context.Context, userID string) (*UserState, error)

	// Award atomically increments the user's XP by delta, recomputes the
	// level from the post-increment total, and appends the log entry in the
	// same unit of work. Returns ErrUserStateNotFound for unknown users.
	Award(ctx context.Context, userID string, delta int, entry LogEntry) (AwardResult, error)

	// Overwrite atomically replaces the user's XP with totalXP, recomputes
	// the level, and appends the log entry in the same unit of work. Used
	// only by the retroactive reconciliation.
	Overwrite(ctx context.Context, userID string, totalXP int, entry LogEntry) (AwardResult, error)

	// List returns states ordered by user ID, for maintenance jobs.
	List(ctx context.Context, offset, limit int) ([]*UserState, error)
}

// LogRepository reads the append-only XP log. Appends happen inside
// UserStateRepository mutations; there is no standalone write path.
type LogRepository interface {
	// ListByUser returns the user's log entries, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]LogEntry, error)
}

// TaskSource is the read-only view over the task service's data used by the
// historical recomputation. Implementations return every task with status
// "done", with the attributes the calculator needs, in their final state.
type TaskSource interface {
	CompletedTasks(ctx context.Context, userID string) ([]TaskXPInput, error)
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	XP     int    `json:"xp"`
	Rank   int    `json:"rank"`
}

// Leaderboard maintains the XP ranking. Updates are best-effort: a failed
// score update never fails an award, and a periodic rebuild reconciles drift.
type Leaderboard interface {
	// SetScore records the user's current XP total.
	SetScore(ctx context.Context, userID string, totalXP int) error

	// Top returns the highest-ranked users, best first.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Rank returns the user's 1-based rank, or 0 if the user is not ranked.
	Rank(ctx context.Context, userID string) (int, error)

	// Rebuild replaces the whole board with the given entries.
	Rebuild(ctx context.Context, entries []LeaderboardEntry) error
}

// ProgressCache caches progress query responses. Mutation paths invalidate;
// a miss falls through to the store.
type ProgressCache interface {
	Get(ctx context.Context, userID string) ([]byte, bool, error)
	Set(ctx context.Context, userID string, payload []byte) error
	Invalidate(ctx context.Context, userID string) error
}
