package policy

import "github.com/debatequest/platform/internal/domain"

// ActivityStatus is the UI-facing lock state of one activity.
type ActivityStatus string

const (
	StatusLocked    ActivityStatus = "locked"
	StatusAvailable ActivityStatus = "available"
	StatusCompleted ActivityStatus = "completed"
)

// IsLevelUnlocked reports whether levelID is reachable: the entry level
// always is, every other level needs the preceding level's badge.
func IsLevelUnlocked(state *domain.PlayerState, catalog *domain.Catalog, levelID string) bool {
	_, idx, ok := catalog.Level(levelID)
	if !ok {
		return false
	}
	if idx == 0 {
		return true
	}
	prev := catalog.Levels[idx-1]
	return state.HasBadge(prev.Badge.ID)
}

// IsActivityReachable applies sequential intra-level gating: position 0 is
// always reachable, position i needs activity i-1 completed.
func IsActivityReachable(state *domain.PlayerState, level domain.Level, activityID string) bool {
	_, idx, ok := level.Activity(activityID)
	if !ok {
		return false
	}
	if idx == 0 {
		return true
	}
	return state.HasCompleted(level.Activities[idx-1].ID)
}

// CanStart combines inter-level and intra-level gating.
func CanStart(state *domain.PlayerState, catalog *domain.Catalog, levelID, activityID string) bool {
	level, _, ok := catalog.Level(levelID)
	if !ok {
		return false
	}
	return IsLevelUnlocked(state, catalog, levelID) && IsActivityReachable(state, level, activityID)
}

// IsLevelComplete reports whether every activity of the level is completed.
func IsLevelComplete(state *domain.PlayerState, level domain.Level) bool {
	for _, a := range level.Activities {
		if !state.HasCompleted(a.ID) {
			return false
		}
	}
	return true
}

// ActivityStatuses returns the lock state of every activity in a level, in order.
func ActivityStatuses(state *domain.PlayerState, catalog *domain.Catalog, level domain.Level) []ActivityStatus {
	unlocked := IsLevelUnlocked(state, catalog, level.ID)
	out := make([]ActivityStatus, len(level.Activities))
	for i, a := range level.Activities {
		switch {
		case state.HasCompleted(a.ID):
			out[i] = StatusCompleted
		case unlocked && IsActivityReachable(state, level, a.ID):
			out[i] = StatusAvailable
		default:
			out[i] = StatusLocked
		}
	}
	return out
}
