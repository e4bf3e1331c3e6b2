package xp

import (
	"math"
	"time"

	"github.com/taskforge/gamification/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP CALCULATOR
// Pure mapping from a completed task's attributes to an XP award.
// No side effects, no I/O - the caller assembles TaskXPInput from the task
// record and its relations.
// ══════════════════════════════════════════════════════════════════════════════

// Priority is the task priority as stored by the task service.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Multiplier returns the XP multiplier for the priority.
// Unknown priorities fall back to 1.0 rather than failing the award.
func (p Priority) Multiplier() float64 {
	switch p {
	case PriorityLow:
		return 1.0
	case PriorityMedium:
		return 1.2
	case PriorityHigh:
		return 1.5
	case PriorityUrgent:
		return 2.0
	default:
		return 1.0
	}
}

// Calculation constants.
const (
	// BaseTaskXP is the flat XP every completed task starts from.
	BaseTaskXP = 20

	// Complexity bonuses, additive, capped at 35 total.
	bonusLongDescription = 10
	bonusTrackedTime     = 15
	bonusAttachments     = 10

	// longDescriptionChars is the description length above which the task
	// counts as "documented".
	longDescriptionChars = 100

	// earlyBonusPerDay is the multiplier gain per whole day of early
	// completion, capped at earlyBonusCap.
	earlyBonusPerDay = 0.1
	earlyBonusCap    = 0.5

	// latePenaltyFactor is the flat multiplier for overdue completion.
	// Deliberately does not scale with how late the task is.
	latePenaltyFactor = 0.9

	// minXPFraction guards the award against the overdue penalty: the total
	// never drops below this fraction of the unadjusted calculation.
	minXPFraction = 0.5
)

// TaskXPInput is the transient view of a completed task that the calculator
// consumes. It is derived data, never persisted by this service.
type TaskXPInput struct {
	// Priority of the task at completion time.
	Priority Priority

	// DescriptionLength is the length of the task description in characters.
	DescriptionLength int

	// TrackedMinutes is the total time tracked against the task by the user.
	TrackedMinutes int

	// AttachmentCount is the number of attachments on the task.
	AttachmentCount int

	// DueDate is the task deadline. Zero if the task had no deadline.
	DueDate time.Time

	// CompletedAt is when the task was completed. Zero if unknown.
	CompletedAt time.Time
}

// XPBreakdown is the full result of an XP calculation. Only TotalXP is
// persisted; the remaining fields exist for auditability and the API response.
type XPBreakdown struct {
	BaseXP             int     `json:"baseXP"`
	PriorityMultiplier float64 `json:"priorityMultiplier"`
	ComplexityBonus    int     `json:"complexityBonus"`
	TimeBonusFactor    float64 `json:"timeBonusFactor"`
	TotalXP            int     `json:"totalXP"`
}

// ComputeTaskXP calculates the XP award for a completed task.
//
// totalXP = floor(max(base*mult + bonus) * timeFactor,
//                 (base*mult + bonus) * minXPFraction))
func ComputeTaskXP(input TaskXPInput) XPBreakdown {
	multiplier := input.Priority.Multiplier()

	bonus := 0
	if input.DescriptionLength > longDescriptionChars {
		bonus += bonusLongDescription
	}
	if input.TrackedMinutes > 0 {
		bonus += bonusTrackedTime
	}
	if input.AttachmentCount > 0 {
		bonus += bonusAttachments
	}

	factor := timeBonusFactor(input.DueDate, input.CompletedAt)

	base := float64(BaseTaskXP)*multiplier + float64(bonus)
	total := int(math.Floor(math.Max(base*factor, base*minXPFraction)))

	return XPBreakdown{
		BaseXP:             BaseTaskXP,
		PriorityMultiplier: multiplier,
		ComplexityBonus:    bonus,
		TimeBonusFactor:    factor,
		TotalXP:            total,
	}
}

// timeBonusFactor derives the early/late multiplier from the due and
// completion timestamps. Missing dates and same-day completion are neutral.
func timeBonusFactor(due, completed time.Time) float64 {
	if due.IsZero() || completed.IsZero() {
		return 1.0
	}

	days := timeutil.WholeDaysBetween(completed, due)
	switch {
	case days > 0:
		return 1.0 + math.Min(float64(days)*earlyBonusPerDay, earlyBonusCap)
	case days < 0:
		return latePenaltyFactor
	default:
		return 1.0
	}
}
