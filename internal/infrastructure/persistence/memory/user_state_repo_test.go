package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/gamification/internal/domain/xp"
)

func seedUser(t *testing.T, repo *UserStateRepository, userID string) {
	t.Helper()
	s, err := xp.NewUserState(userID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), s))
}

func mustEntry(t *testing.T, userID string, amount int, source string) xp.LogEntry {
	t.Helper()
	e, err := xp.NewLogEntry(userID, amount, source)
	require.NoError(t, err)
	return e
}

func TestCreate_Duplicate(t *testing.T) {
	repo := NewUserStateRepository()
	seedUser(t, repo, "u1")

	s, err := xp.NewUserState("u1")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(context.Background(), s), xp.ErrUserStateExists)
}

func TestGet_NotFound(t *testing.T) {
	repo := NewUserStateRepository()
	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, xp.ErrUserStateNotFound)
}

func TestAward_UpdatesStateAndLog(t *testing.T) {
	repo := NewUserStateRepository()
	seedUser(t, repo, "u1")
	ctx := context.Background()

	res, err := repo.Award(ctx, "u1", 90, mustEntry(t, "u1", 90, "task"))
	require.NoError(t, err)
	assert.Equal(t, 90, res.NewXP)
	assert.Equal(t, 1, res.NewLevel)
	assert.False(t, res.LeveledUp)

	res, err = repo.Award(ctx, "u1", 60, mustEntry(t, "u1", 60, "task"))
	require.NoError(t, err)
	assert.Equal(t, 150, res.NewXP)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, res.LeveledUp)

	state, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 150, state.CurrentXP)
	assert.Equal(t, 2, state.CurrentLevel)
	assert.NoError(t, state.Validate())

	assert.Len(t, repo.LogEntries("u1"), 2)
}

func TestAward_NotFound(t *testing.T) {
	repo := NewUserStateRepository()
	_, err := repo.Award(context.Background(), "ghost", 10, mustEntry(t, "ghost", 10, "task"))
	assert.ErrorIs(t, err, xp.ErrUserStateNotFound)
}

func TestOverwrite_ReplacesTotal(t *testing.T) {
	repo := NewUserStateRepository()
	seedUser(t, repo, "u1")
	ctx := context.Background()

	_, err := repo.Award(ctx, "u1", 500, mustEntry(t, "u1", 500, "task"))
	require.NoError(t, err)

	res, err := repo.Overwrite(ctx, "u1", 75, mustEntry(t, "u1", 75, xp.SourceRetroactive))
	require.NoError(t, err)
	assert.Equal(t, 75, res.NewXP)
	assert.Equal(t, 1, res.NewLevel)
	assert.False(t, res.LeveledUp)

	state, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 75, state.CurrentXP)
}

func TestAward_ConcurrentNoLostUpdates(t *testing.T) {
	repo := NewUserStateRepository()
	seedUser(t, repo, "u1")
	ctx := context.Background()

	const workers = 50
	const amount = 10

	entries := make([]xp.LogEntry, workers)
	for i := range entries {
		entries[i] = mustEntry(t, "u1", amount, "task")
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(entry xp.LogEntry) {
			defer wg.Done()
			_, err := repo.Award(ctx, "u1", amount, entry)
			assert.NoError(t, err)
		}(entries[i])
	}
	wg.Wait()

	state, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, workers*amount, state.CurrentXP)
	assert.Equal(t, xp.LevelForXP(workers*amount), state.CurrentLevel)
	assert.Len(t, repo.LogEntries("u1"), workers)
}

func TestList_Pagination(t *testing.T) {
	repo := NewUserStateRepository()
	for _, id := range []string{"c", "a", "b"} {
		seedUser(t, repo, id)
	}
	ctx := context.Background()

	all, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].UserID)
	assert.Equal(t, "c", all[2].UserID)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].UserID)

	empty, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListByUser_NewestFirst(t *testing.T) {
	repo := NewUserStateRepository()
	seedUser(t, repo, "u1")
	ctx := context.Background()

	for _, src := range []string{"first", "second", "third"} {
		_, err := repo.Award(ctx, "u1", 10, mustEntry(t, "u1", 10, src))
		require.NoError(t, err)
	}

	entries, err := repo.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Source)
	assert.Equal(t, "second", entries[1].Source)
}
