package policy

import (
	"testing"

	"github.com/debatequest/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func quizActivity() domain.Activity {
	a := domain.Activity{ID: "quiz", Kind: domain.KindSingleChoiceQuiz, XPReward: 100}
	a.ApplyDefaults()
	return a
}

func gatedActivity(required int) domain.Activity {
	a := domain.Activity{ID: "gated", Kind: domain.KindToneMatch, RequiredXP: required}
	a.ApplyDefaults()
	return a
}

func TestApplyItemDelta_ClampsAtZero(t *testing.T) {
	act := gatedActivity(20)
	assert.Equal(t, 0, ApplyItemDelta(act, 0, OutcomeIncorrect))
	assert.Equal(t, 0, ApplyItemDelta(act, 3, OutcomeIncorrect))
	assert.Equal(t, 10, ApplyItemDelta(act, 0, OutcomeCorrect))
	assert.Equal(t, 15, ApplyItemDelta(act, 20, OutcomeIncorrect))
}

func TestApplyItemDelta_Partial(t *testing.T) {
	act := domain.Activity{Kind: domain.KindCompositeSpeech, RequiredXP: 30}
	act.ApplyDefaults()
	assert.Equal(t, 5, ApplyItemDelta(act, 0, OutcomePartial))
}

func TestPassedByRatio(t *testing.T) {
	tests := []struct {
		name    string
		results []bool
		want    bool
	}{
		{"2 of 3", []bool{true, true, false}, true},
		{"1 of 3", []bool{true, false, false}, false},
		{"7 of 10 exactly at threshold", []bool{true, true, true, true, true, true, true, false, false, false}, true},
		{"6 of 10", []bool{true, true, true, true, true, true, false, false, false, false}, false},
		{"3 of 4", []bool{true, true, true, false}, true},
		{"2 of 4", []bool{true, true, false, false}, false},
		{"4 of 5", []bool{true, true, true, true, false}, true},
		{"3 of 5", []bool{true, true, true, false, false}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PassedByRatio(tt.results, 0.70))
		})
	}
}

func TestScoreAttempt_RewardOnPassCreditsFixedReward(t *testing.T) {
	score := ScoreAttempt(quizActivity(), []bool{true, true, false}, 15)
	assert.True(t, score.Passed)
	assert.Equal(t, 100, score.CreditedXP)
}

func TestScoreAttempt_RewardOnPassFailureCreditsNothing(t *testing.T) {
	score := ScoreAttempt(quizActivity(), []bool{true, false, false}, 5)
	assert.False(t, score.Passed)
	assert.Equal(t, 0, score.CreditedXP)
}

func TestScoreAttempt_XPGatedCreditsAccumulator(t *testing.T) {
	score := ScoreAttempt(gatedActivity(20), []bool{true, true, true}, 30)
	assert.True(t, score.Passed)
	assert.Equal(t, 30, score.CreditedXP)
}

func TestScoreAttempt_XPGatedIgnoresRatio(t *testing.T) {
	// [correct, correct, wrong] => 10, 20, 15; 15 < 20 fails even at 2/3 correct
	score := ScoreAttempt(gatedActivity(20), []bool{true, true, false}, 15)
	assert.False(t, score.Passed)
	assert.Equal(t, 0, score.CreditedXP)
}
