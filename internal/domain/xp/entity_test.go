package xp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserState(t *testing.T) {
	s, err := NewUserState("user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, 0, s.CurrentXP)
	assert.Equal(t, 1, s.CurrentLevel)
	assert.False(t, s.CreatedAt.IsZero())
	assert.NoError(t, s.Validate())
}

func TestNewUserState_EmptyID(t *testing.T) {
	_, err := NewUserState("")
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestUserStateValidate_DivergedLevel(t *testing.T) {
	s, err := NewUserState("user-1")
	require.NoError(t, err)

	s.CurrentXP = CumulativeXPForLevel(3)
	assert.Error(t, s.Validate(), "level must track xp")

	s.CurrentLevel = 3
	assert.NoError(t, s.Validate())
}

func TestNewLogEntry(t *testing.T) {
	e, err := NewLogEntry("user-1", 42, "Task completed: t-9")
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "user-1", e.UserID)
	assert.Equal(t, 42, e.XPGained)
	assert.Equal(t, "Task completed: t-9", e.Source)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestNewLogEntry_DefaultsSource(t *testing.T) {
	e, err := NewLogEntry("user-1", 10, "")
	require.NoError(t, err)
	assert.Equal(t, "manual", e.Source)
}

func TestNewLogEntry_EmptyUser(t *testing.T) {
	_, err := NewLogEntry("", 10, "bonus")
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestLookupReward(t *testing.T) {
	r := LookupReward(5)
	require.NotNil(t, r)
	assert.NotEmpty(t, r.Name)

	assert.Nil(t, LookupReward(3))
	assert.Nil(t, LookupReward(0))
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "user:abc-123", UserChannel("abc-123"))
}
