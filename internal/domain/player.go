package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// AttemptRecord is the immutable result of one pass through an activity.
type AttemptRecord struct {
	ActivityID  string    `json:"activityId"`
	LevelID     string    `json:"levelId,omitempty"`
	SessionID   uuid.UUID `json:"sessionId"`
	ItemResults []bool    `json:"itemResults"`
	XPDelta     int       `json:"xpDelta"`
	LocalXP     int       `json:"localXP"`
	Passed      bool      `json:"passed"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// CorrectCount returns the number of correct item results.
func (r AttemptRecord) CorrectCount() int {
	return lo.Count(r.ItemResults, true)
}

// PlayerState is the persisted root of a player's progress. Only the
// progression engine mutates it.
type PlayerState struct {
	TotalXP             int             `json:"totalXP"`
	Level               int             `json:"level"`
	EarnedBadges        []string        `json:"earnedBadges"`
	CompletedActivities []string        `json:"completedActivities"`
	UnlockedLevels      []string        `json:"unlockedLevels"`
	History             []AttemptRecord `json:"history"`
}

// NewPlayerState returns the default state with only the entry level unlocked.
func NewPlayerState(firstLevelID string) *PlayerState {
	s := &PlayerState{
		Level:               1,
		EarnedBadges:        []string{},
		CompletedActivities: []string{},
		UnlockedLevels:      []string{},
		History:             []AttemptRecord{},
	}
	if firstLevelID != "" {
		s.UnlockedLevels = append(s.UnlockedLevels, firstLevelID)
	}
	return s
}

// LevelForXP derives the player level: floor(xp/200)+1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerPlayerLevel + 1
}

// AddXP credits (or debits) XP, keeping TotalXP >= 0 and Level in sync.
func (s *PlayerState) AddXP(delta int) {
	s.TotalXP += delta
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	s.Level = LevelForXP(s.TotalXP)
}

// HasCompleted reports whether the activity is permanently passed.
func (s *PlayerState) HasCompleted(activityID string) bool {
	return slices.Contains(s.CompletedActivities, activityID)
}

// HasBadge reports whether the badge was earned.
func (s *PlayerState) HasBadge(badgeID string) bool {
	return slices.Contains(s.EarnedBadges, badgeID)
}

// HasUnlocked reports whether the level is reachable.
func (s *PlayerState) HasUnlocked(levelID string) bool {
	return slices.Contains(s.UnlockedLevels, levelID)
}

// MarkCompleted adds the activity to the completed set. It reports whether
// the set changed.
func (s *PlayerState) MarkCompleted(activityID string) bool {
	if s.HasCompleted(activityID) {
		return false
	}
	s.CompletedActivities = append(s.CompletedActivities, activityID)
	return true
}

// AwardBadge adds the badge to the earned set. It reports whether the set changed.
func (s *PlayerState) AwardBadge(badgeID string) bool {
	if badgeID == "" || s.HasBadge(badgeID) {
		return false
	}
	s.EarnedBadges = append(s.EarnedBadges, badgeID)
	return true
}

// Unlock adds the level to the unlocked set. It reports whether the set changed.
func (s *PlayerState) Unlock(levelID string) bool {
	if levelID == "" || s.HasUnlocked(levelID) {
		return false
	}
	s.UnlockedLevels = append(s.UnlockedLevels, levelID)
	return true
}

// AttemptsFor returns the history entries for one activity, oldest first.
func (s *PlayerState) AttemptsFor(activityID string) []AttemptRecord {
	return lo.Filter(s.History, func(r AttemptRecord, _ int) bool {
		return r.ActivityID == activityID
	})
}

// Normalize repairs a restored snapshot: nil collections become empty,
// duplicates are dropped, XP is clamped and the level re-derived.
func (s *PlayerState) Normalize(firstLevelID string) {
	s.EarnedBadges = lo.Uniq(nonNil(s.EarnedBadges))
	s.CompletedActivities = lo.Uniq(nonNil(s.CompletedActivities))
	s.UnlockedLevels = lo.Uniq(nonNil(s.UnlockedLevels))
	if s.History == nil {
		s.History = []AttemptRecord{}
	}
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	s.Level = LevelForXP(s.TotalXP)
	s.Unlock(firstLevelID)
}

// Clone returns a deep copy safe to hand to callers outside the engine.
func (s *PlayerState) Clone() PlayerState {
	cp := PlayerState{
		TotalXP:             s.TotalXP,
		Level:               s.Level,
		EarnedBadges:        slices.Clone(nonNil(s.EarnedBadges)),
		CompletedActivities: slices.Clone(nonNil(s.CompletedActivities)),
		UnlockedLevels:      slices.Clone(nonNil(s.UnlockedLevels)),
		History:             make([]AttemptRecord, len(s.History)),
	}
	for i, r := range s.History {
		cp.History[i] = r.Clone()
	}
	return cp
}

// Clone returns a copy that shares no memory with r.
func (r AttemptRecord) Clone() AttemptRecord {
	r.ItemResults = slices.Clone(r.ItemResults)
	return r
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
