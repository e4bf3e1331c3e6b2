package postgres

import (
	"context"
	"fmt"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP LOG REPOSITORY
// Read side only: appends happen inside UserStateRepository transactions.
// ══════════════════════════════════════════════════════════════════════════════

// XPLogRepository implements xp.LogRepository for PostgreSQL.
type XPLogRepository struct {
	conn *Connection
}

// NewXPLogRepository creates a new XPLogRepository.
func NewXPLogRepository(conn *Connection) *XPLogRepository {
	return &XPLogRepository{conn: conn}
}

// ListByUser returns the user's log entries, newest first.
func (r *XPLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]xp.LogEntry, error) {
	query := `
		SELECT id, user_id, xp_gained, source, created_at
		FROM xp_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list xp log entries: %w", err)
	}
	defer rows.Close()

	var entries []xp.LogEntry
	for rows.Next() {
		var e xp.LogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.XPGained, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan xp log entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
