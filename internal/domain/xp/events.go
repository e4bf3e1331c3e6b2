package xp

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// REAL-TIME EVENTS
// Emitted to the external notifier after a successful XP mutation.
// Delivery is best-effort: emission failures never roll back persisted state.
// ══════════════════════════════════════════════════════════════════════════════

// Event names on the user channel. The camelCase names are part of the wire
// contract with the web client.
const (
	EventXPGained = "xpGained"
	EventLevelUp  = "levelUp"
)

// UserChannel returns the notifier channel for a user.
func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// XPGainedEvent is published after every successful award.
type XPGainedEvent struct {
	XP        int    `json:"xp"`
	NewTotal  int    `json:"newTotal"`
	NewLevel  int    `json:"newLevel"`
	LeveledUp bool   `json:"leveledUp"`
	Source    string `json:"source"`
}

// LevelUpEvent is additionally published when an award crosses a level
// threshold. Rewards is nil for levels without an unlock.
type LevelUpEvent struct {
	NewLevel int          `json:"newLevel"`
	Rewards  *LevelReward `json:"rewards"`
}

// Notifier is the fire-and-forget sink for real-time events. Implementations
// must swallow delivery failures internally; the returned error exists only
// so callers can log it.
type Notifier interface {
	Emit(ctx context.Context, userID string, event string, payload any) error
}
