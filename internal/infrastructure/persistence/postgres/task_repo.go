package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK SOURCE
// Read-only view over the synced task data. The historical recomputation
// needs each completed task's final state: priority, description length,
// tracked time, due date, completion time, attachment count.
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements xp.TaskSource for PostgreSQL.
type TaskRepository struct {
	conn *Connection
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(conn *Connection) *TaskRepository {
	return &TaskRepository{conn: conn}
}

// CompletedTasks returns every task with status "done" for the user, mapped
// to calculator inputs. updated_at doubles as the completion timestamp - the
// task service touches a row last when it is marked done.
func (r *TaskRepository) CompletedTasks(ctx context.Context, userID string) ([]xp.TaskXPInput, error) {
	query := `
		SELECT priority, char_length(description), tracked_minutes,
		       attachment_count, due_date, updated_at
		FROM tasks
		WHERE user_id = $1 AND status = 'done'
		ORDER BY updated_at
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed tasks: %w", err)
	}
	defer rows.Close()

	var inputs []xp.TaskXPInput
	for rows.Next() {
		var (
			priority    string
			descLen     int
			minutes     int
			attachments int
			dueDate     *time.Time
			completedAt time.Time
		)
		if err := rows.Scan(&priority, &descLen, &minutes, &attachments, &dueDate, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		input := xp.TaskXPInput{
			Priority:          xp.Priority(priority),
			DescriptionLength: descLen,
			TrackedMinutes:    minutes,
			AttachmentCount:   attachments,
			CompletedAt:       completedAt,
		}
		if dueDate != nil {
			input.DueDate = *dueDate
		}
		inputs = append(inputs, input)
	}

	return inputs, rows.Err()
}
