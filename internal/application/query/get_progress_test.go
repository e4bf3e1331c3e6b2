package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/internal/infrastructure/persistence/memory"
)

// fakeCache is an in-memory xp.ProgressCache for handler tests.
type fakeCache struct {
	data map[string][]byte
	sets int
	gets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, userID string) ([]byte, bool, error) {
	c.gets++
	payload, ok := c.data[userID]
	return payload, ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID string, payload []byte) error {
	c.sets++
	c.data[userID] = payload
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID string) error {
	delete(c.data, userID)
	return nil
}

func seedState(t *testing.T, repo *memory.UserStateRepository, userID string, totalXP int) {
	t.Helper()
	s, err := xp.NewUserState(userID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), s))

	if totalXP > 0 {
		entry, err := xp.NewLogEntry(userID, totalXP, "seed")
		require.NoError(t, err)
		_, err = repo.Award(context.Background(), userID, totalXP, entry)
		require.NoError(t, err)
	}
}

func TestBuildProgress_FreshUser(t *testing.T) {
	dto := BuildProgress(0, 1)

	assert.Equal(t, 0, dto.CurrentXP)
	assert.Equal(t, 1, dto.CurrentLevel)
	assert.Equal(t, 0, dto.XPForCurrentLevel)
	assert.Equal(t, 150, dto.XPForNextLevel)
	assert.Equal(t, 0, dto.XPProgress)
	assert.Equal(t, 150, dto.XPRemaining)
	assert.Equal(t, 0, dto.ProgressPercentage)
}

func TestBuildProgress_MidLevel(t *testing.T) {
	// 90/150 through level 1.
	dto := BuildProgress(90, 1)

	assert.Equal(t, 90, dto.XPProgress)
	assert.Equal(t, 60, dto.XPRemaining)
	assert.Equal(t, 60, dto.ProgressPercentage)
}

func TestBuildProgress_Bounds(t *testing.T) {
	// The floor of the current level never exceeds the XP, and the XP stays
	// below the next threshold.
	for _, totalXP := range []int{0, 1, 149, 150, 151, 598, 5000, 123456} {
		level := xp.LevelForXP(totalXP)
		dto := BuildProgress(totalXP, level)

		assert.LessOrEqual(t, dto.XPForCurrentLevel, totalXP, "xp %d", totalXP)
		if level < xp.MaxLevel {
			assert.Less(t, totalXP, dto.XPForNextLevel, "xp %d", totalXP)
			assert.Equal(t, dto.XPForNextLevel-totalXP, dto.XPRemaining)
		}
		assert.GreaterOrEqual(t, dto.ProgressPercentage, 0)
		assert.LessOrEqual(t, dto.ProgressPercentage, 100)
	}
}

func TestBuildProgress_AtCap(t *testing.T) {
	capFloor := xp.CumulativeXPForLevel(xp.MaxLevel)
	dto := BuildProgress(capFloor+9999, xp.MaxLevel)

	assert.Equal(t, xp.MaxLevel, dto.CurrentLevel)
	assert.Equal(t, capFloor, dto.XPForCurrentLevel)
	assert.Equal(t, capFloor, dto.XPForNextLevel)
	assert.Equal(t, 0, dto.XPRemaining)
	assert.Equal(t, 100, dto.ProgressPercentage)
}

func TestGetProgress_FromStore(t *testing.T) {
	repo := memory.NewUserStateRepository()
	seedState(t, repo, "u1", 90)
	handler := NewGetProgressHandler(repo, nil, nil)

	dto, err := handler.Handle(context.Background(), GetProgressQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 90, dto.CurrentXP)
	assert.Equal(t, 1, dto.CurrentLevel)
}

func TestGetProgress_NotFound(t *testing.T) {
	handler := NewGetProgressHandler(memory.NewUserStateRepository(), nil, nil)

	_, err := handler.Handle(context.Background(), GetProgressQuery{UserID: "ghost"})
	assert.ErrorIs(t, err, xp.ErrUserStateNotFound)
}

func TestGetProgress_Validation(t *testing.T) {
	handler := NewGetProgressHandler(memory.NewUserStateRepository(), nil, nil)

	_, err := handler.Handle(context.Background(), GetProgressQuery{})
	assert.Error(t, err)
}

func TestGetProgress_PopulatesAndServesCache(t *testing.T) {
	repo := memory.NewUserStateRepository()
	seedState(t, repo, "u1", 90)
	cache := newFakeCache()
	handler := NewGetProgressHandler(repo, cache, nil)
	ctx := context.Background()

	first, err := handler.Handle(ctx, GetProgressQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := handler.Handle(ctx, GetProgressQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets, "second read must come from the cache")
}

func TestGetProgress_CorruptCacheFallsThrough(t *testing.T) {
	repo := memory.NewUserStateRepository()
	seedState(t, repo, "u1", 90)
	cache := newFakeCache()
	cache.data["u1"] = []byte("{not json")
	handler := NewGetProgressHandler(repo, cache, nil)

	dto, err := handler.Handle(context.Background(), GetProgressQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 90, dto.CurrentXP)
}
