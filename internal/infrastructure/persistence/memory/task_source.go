package memory

import (
	"context"
	"sync"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK SOURCE (IN-MEMORY)
// ══════════════════════════════════════════════════════════════════════════════

// TaskSource is an in-memory xp.TaskSource, seeded per user.
type TaskSource struct {
	mu    sync.RWMutex
	tasks map[string][]xp.TaskXPInput
}

// NewTaskSource creates an empty in-memory task source.
func NewTaskSource() *TaskSource {
	return &TaskSource{tasks: make(map[string][]xp.TaskXPInput)}
}

// Seed replaces the completed tasks recorded for a user.
func (s *TaskSource) Seed(userID string, inputs []xp.TaskXPInput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := make([]xp.TaskXPInput, len(inputs))
	copy(clone, inputs)
	s.tasks[userID] = clone
}

// CompletedTasks returns the seeded tasks for the user.
func (s *TaskSource) CompletedTasks(_ context.Context, userID string) ([]xp.TaskXPInput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.tasks[userID]
	inputs := make([]xp.TaskXPInput, len(src))
	copy(inputs, src)
	return inputs, nil
}
