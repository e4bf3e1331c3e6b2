package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER XP STATE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// UserStateRepository implements xp.UserStateRepository for PostgreSQL.
//
// Award and Overwrite run a single transaction per call: the state UPDATE
// takes the row lock, the level fix-up and the log INSERT ride the same
// transaction, and concurrent awards for one user serialize on the lock.
type UserStateRepository struct {
	conn *Connection
}

// NewUserStateRepository creates a new UserStateRepository.
func NewUserStateRepository(conn *Connection) *UserStateRepository {
	return &UserStateRepository{conn: conn}
}

// Create provisions XP state for a new user.
func (r *UserStateRepository) Create(ctx context.Context, s *xp.UserState) error {
	query := `
		INSERT INTO user_xp_states (user_id, current_xp, current_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		s.UserID, s.CurrentXP, s.CurrentLevel, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return xp.ErrUserStateExists
		}
		return fmt.Errorf("failed to create user xp state: %w", err)
	}

	return nil
}

// Get returns the current state for a user.
func (r *UserStateRepository) Get(ctx context.Context, userID string) (*xp.UserState, error) {
	query := `
		SELECT user_id, current_xp, current_level, created_at, updated_at
		FROM user_xp_states
		WHERE user_id = $1
	`

	var s xp.UserState
	err := r.conn.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.CurrentXP, &s.CurrentLevel, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, xp.ErrUserStateNotFound
		}
		return nil, fmt.Errorf("failed to get user xp state: %w", err)
	}

	return &s, nil
}

// Award atomically increments the user's XP, recomputes the level from the
// post-increment total, and appends the log entry - all in one transaction.
func (r *UserStateRepository) Award(ctx context.Context, userID string, delta int, entry xp.LogEntry) (xp.AwardResult, error) {
	return r.mutate(ctx, userID, entry, `
		UPDATE user_xp_states
		SET current_xp = current_xp + $2, updated_at = $3
		WHERE user_id = $1
		RETURNING current_xp, current_level
	`, delta)
}

// Overwrite atomically replaces the user's XP total, recomputes the level,
// and appends the log entry in the same transaction.
func (r *UserStateRepository) Overwrite(ctx context.Context, userID string, totalXP int, entry xp.LogEntry) (xp.AwardResult, error) {
	return r.mutate(ctx, userID, entry, `
		UPDATE user_xp_states
		SET current_xp = $2, updated_at = $3
		WHERE user_id = $1
		RETURNING current_xp, current_level
	`, totalXP)
}

// mutate is the shared transactional body of Award and Overwrite. The first
// UPDATE returns the new XP and the pre-mutation level; the level column is
// then fixed up from the new total before the log append.
func (r *UserStateRepository) mutate(ctx context.Context, userID string, entry xp.LogEntry, updateSQL string, amount int) (xp.AwardResult, error) {
	var result xp.AwardResult

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		now := time.Now().UTC()

		var newXP, oldLevel int
		err := tx.QueryRow(ctx, updateSQL, userID, amount, now).Scan(&newXP, &oldLevel)
		if err != nil {
			if IsNoRows(err) {
				return xp.ErrUserStateNotFound
			}
			return fmt.Errorf("failed to update user xp state: %w", err)
		}

		newLevel := xp.LevelForXP(newXP)
		if newLevel != oldLevel {
			_, err = tx.Exec(ctx,
				`UPDATE user_xp_states SET current_level = $2 WHERE user_id = $1`,
				userID, newLevel)
			if err != nil {
				return fmt.Errorf("failed to update user level: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO xp_log (id, user_id, xp_gained, source, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, entry.ID, entry.UserID, entry.XPGained, entry.Source, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to append xp log entry: %w", err)
		}

		result = xp.AwardResult{
			NewXP:     newXP,
			NewLevel:  newLevel,
			LeveledUp: newLevel > oldLevel,
		}
		return nil
	})
	if err != nil {
		return xp.AwardResult{}, err
	}

	return result, nil
}

// List returns states ordered by user ID, for maintenance jobs.
func (r *UserStateRepository) List(ctx context.Context, offset, limit int) ([]*xp.UserState, error) {
	query := `
		SELECT user_id, current_xp, current_level, created_at, updated_at
		FROM user_xp_states
		ORDER BY user_id
		OFFSET $1 LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user xp states: %w", err)
	}
	defer rows.Close()

	var states []*xp.UserState
	for rows.Next() {
		var s xp.UserState
		if err := rows.Scan(&s.UserID, &s.CurrentXP, &s.CurrentLevel, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user xp state: %w", err)
		}
		states = append(states, &s)
	}

	return states, rows.Err()
}
