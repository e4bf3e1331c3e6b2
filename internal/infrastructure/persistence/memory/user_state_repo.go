// Package memory provides in-memory implementations of the persistence
// interfaces. They back unit tests and local development without external
// services, and they honor the same atomicity contract as the PostgreSQL
// implementations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskforge/gamification/internal/domain/xp"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER XP STATE REPOSITORY (IN-MEMORY)
// ══════════════════════════════════════════════════════════════════════════════

// UserStateRepository is an in-memory xp.UserStateRepository. A single mutex
// serializes mutations, which matches the row-lock serialization of the
// PostgreSQL implementation.
type UserStateRepository struct {
	mu      sync.Mutex
	states  map[string]*xp.UserState
	entries map[string][]xp.LogEntry
}

// NewUserStateRepository creates an empty in-memory repository.
func NewUserStateRepository() *UserStateRepository {
	return &UserStateRepository{
		states:  make(map[string]*xp.UserState),
		entries: make(map[string][]xp.LogEntry),
	}
}

// Create provisions XP state for a new user.
func (r *UserStateRepository) Create(_ context.Context, s *xp.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.states[s.UserID]; ok {
		return xp.ErrUserStateExists
	}

	clone := *s
	r.states[s.UserID] = &clone
	return nil
}

// Get returns a copy of the user's current state.
func (r *UserStateRepository) Get(_ context.Context, userID string) (*xp.UserState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[userID]
	if !ok {
		return nil, xp.ErrUserStateNotFound
	}

	clone := *s
	return &clone, nil
}

// Award atomically increments the user's XP, recomputes the level, and
// appends the log entry.
func (r *UserStateRepository) Award(_ context.Context, userID string, delta int, entry xp.LogEntry) (xp.AwardResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[userID]
	if !ok {
		return xp.AwardResult{}, xp.ErrUserStateNotFound
	}

	return r.applyLocked(s, s.CurrentXP+delta, entry), nil
}

// Overwrite atomically replaces the user's XP total, recomputes the level,
// and appends the log entry.
func (r *UserStateRepository) Overwrite(_ context.Context, userID string, totalXP int, entry xp.LogEntry) (xp.AwardResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.states[userID]
	if !ok {
		return xp.AwardResult{}, xp.ErrUserStateNotFound
	}

	return r.applyLocked(s, totalXP, entry), nil
}

// applyLocked mutates state and appends the log entry. Caller holds the lock.
func (r *UserStateRepository) applyLocked(s *xp.UserState, newXP int, entry xp.LogEntry) xp.AwardResult {
	oldLevel := s.CurrentLevel
	newLevel := xp.LevelForXP(newXP)

	s.CurrentXP = newXP
	s.CurrentLevel = newLevel
	s.UpdatedAt = time.Now().UTC()

	r.entries[s.UserID] = append(r.entries[s.UserID], entry)

	return xp.AwardResult{
		NewXP:     newXP,
		NewLevel:  newLevel,
		LeveledUp: newLevel > oldLevel,
	}
}

// List returns states ordered by user ID.
func (r *UserStateRepository) List(_ context.Context, offset, limit int) ([]*xp.UserState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	states := make([]*xp.UserState, 0, len(ids))
	for _, id := range ids {
		clone := *r.states[id]
		states = append(states, &clone)
	}
	return states, nil
}

// LogEntries returns every log entry recorded for the user, oldest first.
func (r *UserStateRepository) LogEntries(userID string) []xp.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]xp.LogEntry, len(r.entries[userID]))
	copy(entries, r.entries[userID])
	return entries
}

// ListByUser implements xp.LogRepository over the recorded entries, newest
// first, so the in-memory repository can serve both interfaces in tests.
func (r *UserStateRepository) ListByUser(_ context.Context, userID string, limit int) ([]xp.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := r.entries[userID]
	entries := make([]xp.LogEntry, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		entries = append(entries, src[i])
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}
