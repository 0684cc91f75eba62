// Package projection derives read-side progress analytics from attempt history.
package projection

import (
	"time"

	"github.com/debatequest/platform/internal/domain"
	"github.com/samber/lo"
)

// ActivityStats summarises every attempt at one activity.
type ActivityStats struct {
	ActivityID    string    `json:"activityId"`
	LevelID       string    `json:"levelId"`
	Attempts      int       `json:"attempts"`
	RetakeCount   int       `json:"retakeCount"`
	Passed        bool      `json:"passed"`
	BestCorrect   int       `json:"bestCorrect"`
	BestLocalXP   int       `json:"bestLocalXP"`
	XPEarned      int       `json:"xpEarned"`
	LastAttemptAt time.Time `json:"lastAttemptAt"`
}

// LevelStats aggregates a level's activities.
type LevelStats struct {
	LevelID     string `json:"levelId"`
	XPEarned    int    `json:"levelXP"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	BadgeEarned bool   `json:"badgeEarned"`
}

// ProgressStats is the full analytics view served by GET /progress/stats.
type ProgressStats struct {
	TotalXP       int             `json:"totalXP"`
	Level         int             `json:"level"`
	XPToNextLevel int             `json:"xpToNextLevel"`
	Attempts      int             `json:"attempts"`
	Activities    []ActivityStats `json:"activities"`
	Levels        []LevelStats    `json:"levels"`
}

// Compute derives stats for every catalog activity, in catalog order.
// Activities never attempted report zero attempts.
func Compute(state domain.PlayerState, catalog *domain.Catalog) ProgressStats {
	byActivity := lo.GroupBy(state.History, func(r domain.AttemptRecord) string {
		return r.ActivityID
	})

	out := ProgressStats{
		TotalXP:       state.TotalXP,
		Level:         state.Level,
		XPToNextLevel: domain.XPPerPlayerLevel - state.TotalXP%domain.XPPerPlayerLevel,
		Attempts:      len(state.History),
		Activities:    []ActivityStats{},
		Levels:        []LevelStats{},
	}

	for _, lvl := range catalog.Levels {
		ls := LevelStats{
			LevelID:     lvl.ID,
			Total:       len(lvl.Activities),
			BadgeEarned: state.HasBadge(lvl.Badge.ID),
		}
		for _, act := range lvl.Activities {
			as := activityStats(lvl.ID, act.ID, byActivity[act.ID])
			as.Passed = as.Passed || state.HasCompleted(act.ID)
			if as.Passed {
				ls.Completed++
			}
			ls.XPEarned += as.XPEarned
			out.Activities = append(out.Activities, as)
		}
		out.Levels = append(out.Levels, ls)
	}
	return out
}

func activityStats(levelID, activityID string, attempts []domain.AttemptRecord) ActivityStats {
	as := ActivityStats{ActivityID: activityID, LevelID: levelID, Attempts: len(attempts)}
	if len(attempts) == 0 {
		return as
	}
	as.RetakeCount = len(attempts) - 1
	as.Passed = lo.SomeBy(attempts, func(r domain.AttemptRecord) bool { return r.Passed })
	as.XPEarned = lo.SumBy(attempts, func(r domain.AttemptRecord) int { return r.XPDelta })
	as.BestCorrect = lo.Max(lo.Map(attempts, func(r domain.AttemptRecord, _ int) int { return r.CorrectCount() }))
	as.BestLocalXP = lo.Max(lo.Map(attempts, func(r domain.AttemptRecord, _ int) int { return r.LocalXP }))
	as.LastAttemptAt = lo.MaxBy(attempts, func(a, b domain.AttemptRecord) bool {
		return a.FinishedAt.After(b.FinishedAt)
	}).FinishedAt
	return as
}
