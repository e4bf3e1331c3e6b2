package xp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var calcNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestComputeTaskXP_UrgentFullyLoadedOnTime(t *testing.T) {
	// base 20 * 2.0 + 35 bonus = 75, neutral time factor.
	got := ComputeTaskXP(TaskXPInput{
		Priority:          PriorityUrgent,
		DescriptionLength: 250,
		TrackedMinutes:    90,
		AttachmentCount:   2,
		DueDate:           calcNow,
		CompletedAt:       calcNow,
	})

	assert.Equal(t, 75, got.TotalXP)
	assert.Equal(t, 20, got.BaseXP)
	assert.Equal(t, 2.0, got.PriorityMultiplier)
	assert.Equal(t, 35, got.ComplexityBonus)
	assert.Equal(t, 1.0, got.TimeBonusFactor)
}

func TestComputeTaskXP_LowPriorityThreeDaysLate(t *testing.T) {
	// 20 * 1.0 * 0.9 = 18. The penalty is flat regardless of how late.
	got := ComputeTaskXP(TaskXPInput{
		Priority:    PriorityLow,
		DueDate:     calcNow,
		CompletedAt: calcNow.Add(72 * time.Hour),
	})

	assert.Equal(t, 18, got.TotalXP)
	assert.Equal(t, 0.9, got.TimeBonusFactor)
}

func TestComputeTaskXP_MediumFiveDaysEarly(t *testing.T) {
	// 20 * 1.2 = 24, early factor 1 + 5*0.1 = 1.5, total 36.
	got := ComputeTaskXP(TaskXPInput{
		Priority:    PriorityMedium,
		DueDate:     calcNow,
		CompletedAt: calcNow.Add(-5 * 24 * time.Hour),
	})

	assert.Equal(t, 36, got.TotalXP)
	assert.Equal(t, 1.5, got.TimeBonusFactor)
}

func TestComputeTaskXP_EarlyBonusCapped(t *testing.T) {
	got := ComputeTaskXP(TaskXPInput{
		Priority:    PriorityLow,
		DueDate:     calcNow,
		CompletedAt: calcNow.Add(-30 * 24 * time.Hour),
	})

	assert.Equal(t, 1.5, got.TimeBonusFactor)
	assert.Equal(t, 30, got.TotalXP)
}

func TestComputeTaskXP_UnknownPriorityNeutral(t *testing.T) {
	got := ComputeTaskXP(TaskXPInput{Priority: Priority("CRITICAL")})

	assert.Equal(t, 1.0, got.PriorityMultiplier)
	assert.Equal(t, 20, got.TotalXP)
}

func TestComputeTaskXP_MissingDatesNeutral(t *testing.T) {
	noDue := ComputeTaskXP(TaskXPInput{
		Priority:    PriorityHigh,
		CompletedAt: calcNow,
	})
	assert.Equal(t, 1.0, noDue.TimeBonusFactor)
	assert.Equal(t, 30, noDue.TotalXP)

	noCompletion := ComputeTaskXP(TaskXPInput{
		Priority: PriorityHigh,
		DueDate:  calcNow,
	})
	assert.Equal(t, 1.0, noCompletion.TimeBonusFactor)
}

func TestComputeTaskXP_ComplexityBoundaries(t *testing.T) {
	// Exactly 100 characters does not count as documented.
	atBoundary := ComputeTaskXP(TaskXPInput{
		Priority:          PriorityLow,
		DescriptionLength: 100,
	})
	assert.Equal(t, 0, atBoundary.ComplexityBonus)

	overBoundary := ComputeTaskXP(TaskXPInput{
		Priority:          PriorityLow,
		DescriptionLength: 101,
	})
	assert.Equal(t, 10, overBoundary.ComplexityBonus)

	tracked := ComputeTaskXP(TaskXPInput{
		Priority:       PriorityLow,
		TrackedMinutes: 1,
	})
	assert.Equal(t, 15, tracked.ComplexityBonus)

	attached := ComputeTaskXP(TaskXPInput{
		Priority:        PriorityLow,
		AttachmentCount: 1,
	})
	assert.Equal(t, 10, attached.ComplexityBonus)
}

func TestComputeTaskXP_BonusAppliesBeforeTimeFactor(t *testing.T) {
	// (20*1.5 + 25) * 0.9 = 49.5 -> 49. The bonus is inside the penalty.
	got := ComputeTaskXP(TaskXPInput{
		Priority:          PriorityHigh,
		DescriptionLength: 150,
		TrackedMinutes:    30,
		DueDate:           calcNow,
		CompletedAt:       calcNow.Add(24 * time.Hour),
	})

	assert.Equal(t, 49, got.TotalXP)
}

func TestPriorityMultiplier(t *testing.T) {
	tests := []struct {
		priority Priority
		want     float64
	}{
		{PriorityLow, 1.0},
		{PriorityMedium, 1.2},
		{PriorityHigh, 1.5},
		{PriorityUrgent, 2.0},
		{Priority(""), 1.0},
		{Priority("urgent"), 1.0}, // case-sensitive, as stored upstream
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.priority.Multiplier(), "priority %q", tt.priority)
	}
}
