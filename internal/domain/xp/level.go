package xp

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL MODEL
// Deterministic, monotonic mapping between cumulative XP and level.
// ══════════════════════════════════════════════════════════════════════════════

// MaxLevel is the hard level cap. XP keeps accumulating past the cap,
// but the level never exceeds it.
const MaxLevel = 50

// cumulativeThresholds[L] is the total XP required to sit at level L.
// cumulativeThresholds[1] == 0: a fresh user is level 1 with zero XP.
var cumulativeThresholds = buildThresholds()

func buildThresholds() [MaxLevel + 1]int {
	var t [MaxLevel + 1]int
	for level := 2; level <= MaxLevel; level++ {
		t[level] = t[level-1] + XPRequiredForLevel(level-1)
	}
	return t
}

// XPRequiredForLevel returns the XP needed to advance from the given level
// to the next one: floor(100 * level^1.8 + 50 * level).
//
// The power term is computed in double precision and floored only after the
// addition. Mixing integer and float paths here would round differently from
// other services consuming the same schedule.
func XPRequiredForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(100*math.Pow(float64(level), 1.8) + 50*float64(level)))
}

// CumulativeXPForLevel returns the total XP required to reach the given level:
// the sum of XPRequiredForLevel(L) for L in [1, targetLevel-1].
// CumulativeXPForLevel(1) == 0.
func CumulativeXPForLevel(targetLevel int) int {
	if targetLevel <= 1 {
		return 0
	}
	if targetLevel > MaxLevel {
		targetLevel = MaxLevel
	}
	return cumulativeThresholds[targetLevel]
}

// LevelForXP returns the largest level whose cumulative threshold does not
// exceed totalXP, capped at MaxLevel. Negative input clamps to level 1.
func LevelForXP(totalXP int) int {
	level := 1
	for level < MaxLevel && totalXP >= cumulativeThresholds[level+1] {
		level++
	}
	return level
}
