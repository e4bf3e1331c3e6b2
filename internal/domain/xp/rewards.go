package xp

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL REWARDS
// Static lookup table attached to level-up events. Pure configuration data.
// ══════════════════════════════════════════════════════════════════════════════

// RewardKind categorizes what a level unlocks.
type RewardKind string

const (
	RewardKindBadge   RewardKind = "badge"
	RewardKindTheme   RewardKind = "theme"
	RewardKindFeature RewardKind = "feature"
	RewardKindTitle   RewardKind = "title"
)

// LevelReward describes what a user unlocks at a given level.
type LevelReward struct {
	Kind        RewardKind `json:"kind"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

// levelRewards maps milestone levels to their unlocks. Levels without an
// entry carry no reward; the level-up event then ships a nil reward.
var levelRewards = map[int]LevelReward{
	2:  {RewardKindBadge, "First Steps", "Completed enough tasks to reach level 2"},
	5:  {RewardKindTheme, "Midnight Theme", "Unlocks the dark workspace theme"},
	10: {RewardKindBadge, "Task Apprentice", "Ten levels of consistent progress"},
	15: {RewardKindFeature, "Custom Tags", "Unlocks custom tag colors"},
	20: {RewardKindTitle, "Organizer", "Display title shown on your profile"},
	25: {RewardKindBadge, "Halfway There", "Half the ladder behind you"},
	30: {RewardKindFeature, "Priority Insights", "Unlocks the priority analytics view"},
	40: {RewardKindTitle, "Taskmaster", "Few make it this far"},
	50: {RewardKindBadge, "Summit", "The level cap. There is nothing above this"},
}

// LookupReward returns the reward for a level, or nil if the level has none.
func LookupReward(level int) *LevelReward {
	if r, ok := levelRewards[level]; ok {
		return &r
	}
	return nil
}
