package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/gamification/internal/application/command"
	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/internal/infrastructure/persistence/memory"
)

func newRetroFixture(t *testing.T) (*command.ApplyRetroactiveXPHandler, *memory.UserStateRepository, *memory.TaskSource) {
	t.Helper()

	repo := memory.NewUserStateRepository()
	tasks := memory.NewTaskSource()
	handler := command.NewApplyRetroactiveXPHandler(repo, tasks, nil, nil, nil)

	s, err := xp.NewUserState("u1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), s))

	return handler, repo, tasks
}

func TestApplyRetroactiveXP_OverwritesFromHistory(t *testing.T) {
	handler, repo, tasks := newRetroFixture(t)
	ctx := context.Background()

	// Prior incremental awards are discarded by the overwrite.
	_, err := repo.Award(ctx, "u1", 500, mustLogEntry(t, "u1", 500, "task"))
	require.NoError(t, err)

	due := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	tasks.Seed("u1", []xp.TaskXPInput{
		// 20 * 2.0 + 35 = 75, on time.
		{
			Priority:          xp.PriorityUrgent,
			DescriptionLength: 200,
			TrackedMinutes:    60,
			AttachmentCount:   1,
			DueDate:           due,
			CompletedAt:       due,
		},
		// 20 * 1.0 * 0.9 = 18, three days late.
		{
			Priority:    xp.PriorityLow,
			DueDate:     due,
			CompletedAt: due.Add(72 * time.Hour),
		},
	})

	res, err := handler.Handle(ctx, command.ApplyRetroactiveXPCommand{UserID: "u1"})
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.Equal(t, 93, res.HistoricalXP)
	assert.Equal(t, 93, res.NewXP)
	assert.Equal(t, 1, res.NewLevel)

	state, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 93, state.CurrentXP)

	entries := repo.LogEntries("u1")
	require.Len(t, entries, 2)
	last := entries[len(entries)-1]
	assert.Equal(t, xp.SourceRetroactive, last.Source)
	assert.Equal(t, 93, last.XPGained)
}

func TestApplyRetroactiveXP_RunTwiceIsStable(t *testing.T) {
	handler, repo, tasks := newRetroFixture(t)
	ctx := context.Background()

	tasks.Seed("u1", []xp.TaskXPInput{
		{Priority: xp.PriorityMedium, TrackedMinutes: 45},
	})

	first, err := handler.Handle(ctx, command.ApplyRetroactiveXPCommand{UserID: "u1"})
	require.NoError(t, err)

	second, err := handler.Handle(ctx, command.ApplyRetroactiveXPCommand{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, first.NewXP, second.NewXP)
	assert.Equal(t, first.NewLevel, second.NewLevel)

	// One log entry per invocation, nothing more.
	assert.Len(t, repo.LogEntries("u1"), 2)
}

func TestApplyRetroactiveXP_NoTasksLeavesStateUntouched(t *testing.T) {
	handler, repo, _ := newRetroFixture(t)
	ctx := context.Background()

	_, err := repo.Award(ctx, "u1", 200, mustLogEntry(t, "u1", 200, "task"))
	require.NoError(t, err)

	res, err := handler.Handle(ctx, command.ApplyRetroactiveXPCommand{UserID: "u1"})
	require.NoError(t, err)

	assert.False(t, res.Applied)
	assert.Equal(t, 0, res.HistoricalXP)
	assert.Equal(t, 200, res.NewXP)

	state, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 200, state.CurrentXP)

	// No retroactive log entry was appended.
	require.Len(t, repo.LogEntries("u1"), 1)
	assert.NotEqual(t, xp.SourceRetroactive, repo.LogEntries("u1")[0].Source)
}

func TestApplyRetroactiveXP_UnknownUser(t *testing.T) {
	handler, _, _ := newRetroFixture(t)

	_, err := handler.Handle(context.Background(), command.ApplyRetroactiveXPCommand{UserID: "ghost"})
	assert.ErrorIs(t, err, xp.ErrUserStateNotFound)
}

func mustLogEntry(t *testing.T, userID string, amount int, source string) xp.LogEntry {
	t.Helper()
	e, err := xp.NewLogEntry(userID, amount, source)
	require.NoError(t, err)
	return e
}
