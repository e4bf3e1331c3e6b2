package xp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPRequiredForLevel_KnownValues(t *testing.T) {
	// floor(100 * level^1.8 + 50 * level)
	assert.Equal(t, 150, XPRequiredForLevel(1))
	assert.Equal(t, 448, XPRequiredForLevel(2))
	assert.Equal(t, 6809, XPRequiredForLevel(10))
}

func TestXPRequiredForLevel_ClampsBelowOne(t *testing.T) {
	assert.Equal(t, XPRequiredForLevel(1), XPRequiredForLevel(0))
	assert.Equal(t, XPRequiredForLevel(1), XPRequiredForLevel(-5))
}

func TestXPRequiredForLevel_Monotonic(t *testing.T) {
	for level := 1; level < MaxLevel; level++ {
		assert.Less(t, XPRequiredForLevel(level), XPRequiredForLevel(level+1),
			"requirement must grow with level %d", level)
	}
}

func TestCumulativeXPForLevel(t *testing.T) {
	assert.Equal(t, 0, CumulativeXPForLevel(1))
	assert.Equal(t, 150, CumulativeXPForLevel(2))
	assert.Equal(t, 150+448, CumulativeXPForLevel(3))

	// Above the cap the threshold stops growing.
	assert.Equal(t, CumulativeXPForLevel(MaxLevel), CumulativeXPForLevel(MaxLevel+10))
}

func TestLevelForXP_Thresholds(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(149))
	assert.Equal(t, 2, LevelForXP(150))
	assert.Equal(t, 2, LevelForXP(597))
	assert.Equal(t, 3, LevelForXP(598))
}

func TestLevelForXP_NegativeClampsToOne(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(-100))
}

func TestLevelForXP_Cap(t *testing.T) {
	assert.Equal(t, MaxLevel, LevelForXP(CumulativeXPForLevel(MaxLevel)))
	assert.Equal(t, MaxLevel, LevelForXP(1<<31-1))
}

func TestLevelForXP_RoundTrip(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		threshold := CumulativeXPForLevel(level)
		assert.Equal(t, level, LevelForXP(threshold),
			"exactly at the threshold of level %d", level)

		if level > 1 {
			assert.Equal(t, level-1, LevelForXP(threshold-1),
				"one XP below the threshold of level %d", level)
		}
	}
}
