package policy

import (
	"math"

	"github.com/debatequest/platform/internal/domain"
	"github.com/samber/lo"
)

// ItemOutcome is the graded result of one item submission.
type ItemOutcome int

const (
	OutcomeIncorrect ItemOutcome = iota
	OutcomeCorrect
	// OutcomePartial earns PartialDelta but is recorded as incorrect.
	OutcomePartial
)

// ApplyItemDelta returns the new local accumulator after an item outcome.
// The accumulator is clamped at 0 after every item.
func ApplyItemDelta(act domain.Activity, localXP int, outcome ItemOutcome) int {
	var delta int
	switch outcome {
	case OutcomeCorrect:
		delta = act.CorrectDelta
	case OutcomePartial:
		delta = act.PartialDelta
	default:
		delta = act.IncorrectDelta
	}
	next := localXP + delta
	if next < 0 {
		return 0
	}
	return next
}

// AttemptScore is the pass decision and credited XP for a finished attempt.
type AttemptScore struct {
	Passed     bool `json:"passed"`
	CreditedXP int  `json:"creditedXP"`
}

// ScoreAttempt applies the activity's declared scoring policy. The two
// policies are kept as separate paths; see PassedByRatio and PassedByXP.
func ScoreAttempt(act domain.Activity, results []bool, localXP int) AttemptScore {
	switch act.Scoring {
	case domain.ScoringXPGated:
		if PassedByXP(localXP, act.RequiredXP) {
			return AttemptScore{Passed: true, CreditedXP: localXP}
		}
	default:
		if PassedByRatio(results, act.PassThreshold) {
			return AttemptScore{Passed: true, CreditedXP: act.XPReward}
		}
	}
	return AttemptScore{}
}

// PassedByRatio reports whether the correct count reaches threshold*items
// rounded to the nearest whole item, so 2 of 3 passes at 0.70 and 6 of 10
// does not.
func PassedByRatio(results []bool, threshold float64) bool {
	if len(results) == 0 {
		return false
	}
	required := int(math.Round(threshold * float64(len(results))))
	return lo.Count(results, true) >= required
}

// PassedByXP reports localXP >= requiredXP.
func PassedByXP(localXP, requiredXP int) bool {
	return localXP >= requiredXP
}
