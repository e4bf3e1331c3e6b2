package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP LEADERBOARD
// Sorted set keyed by user ID, score = current XP. The set is a derived view:
// writes happen best-effort after each XP mutation, and a scheduled rebuild
// re-seeds it from PostgreSQL.
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard implements xp.Leaderboard backed by a Redis sorted set.
type Leaderboard struct {
	client *redis.Client
}

// NewLeaderboard creates a new Leaderboard.
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// SetScore records the user's current XP total.
func (l *Leaderboard) SetScore(ctx context.Context, userID string, xpTotal int) error {
	if userID == "" {
		return ErrKeyEmpty
	}

	err := l.client.ZAdd(ctx, KeyLeaderboard, redis.Z{
		Score:  float64(xpTotal),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to set leaderboard score: %w", err)
	}
	return nil
}

// Top returns the highest-ranked entries, best first. Ranks are 1-based.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]xp.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	members, err := l.client.ZRevRangeWithScores(ctx, KeyLeaderboard, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]xp.LeaderboardEntry, 0, len(members))
	for i, m := range members {
		userID, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, xp.LeaderboardEntry{
			UserID: userID,
			XP:     int(m.Score),
			Rank:   i + 1,
		})
	}

	return entries, nil
}

// Rank returns the user's 1-based rank, or xp.ErrUserStateNotFound if the
// user is not in the set.
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrKeyEmpty
	}

	rank, err := l.client.ZRevRank(ctx, KeyLeaderboard, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, xp.ErrUserStateNotFound
		}
		return 0, fmt.Errorf("failed to read leaderboard rank: %w", err)
	}

	return int(rank) + 1, nil
}

// Rebuild atomically replaces the set with the given entries. It writes to a
// staging key and renames it over the live one, so readers never observe a
// half-built set.
func (l *Leaderboard) Rebuild(ctx context.Context, entries []xp.LeaderboardEntry) error {
	staging := KeyLeaderboard + ":rebuild"

	pipe := l.client.TxPipeline()
	pipe.Del(ctx, staging)
	for _, e := range entries {
		pipe.ZAdd(ctx, staging, redis.Z{
			Score:  float64(e.XP),
			Member: e.UserID,
		})
	}
	if len(entries) == 0 {
		pipe.Del(ctx, KeyLeaderboard)
	} else {
		pipe.Rename(ctx, staging, KeyLeaderboard)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}
	return nil
}
