package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- PlayerState Tests ---

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{-50, 1},
		{0, 1},
		{199, 1},
		{200, 2},
		{450, 3},
		{1400, 8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.xp), func(t *testing.T) {
			assert.Equal(t, tt.want, LevelForXP(tt.xp))
		})
	}
}

func TestPlayerState_AddXP(t *testing.T) {
	s := NewPlayerState("foundations")
	s.AddXP(250)
	assert.Equal(t, 250, s.TotalXP)
	assert.Equal(t, 2, s.Level)

	s.AddXP(-400)
	assert.Zero(t, s.TotalXP)
	assert.Equal(t, 1, s.Level)
}

func TestPlayerState_SetsAreIdempotent(t *testing.T) {
	s := NewPlayerState("foundations")

	assert.True(t, s.MarkCompleted("debate-roles"))
	assert.False(t, s.MarkCompleted("debate-roles"))
	assert.True(t, s.AwardBadge("foundations-graduate"))
	assert.False(t, s.AwardBadge("foundations-graduate"))
	assert.False(t, s.AwardBadge(""))
	assert.False(t, s.Unlock("foundations"))
	assert.False(t, s.Unlock(""))
	assert.True(t, s.Unlock("fallacy-fighters"))

	assert.Equal(t, []string{"debate-roles"}, s.CompletedActivities)
	assert.Equal(t, []string{"foundations", "fallacy-fighters"}, s.UnlockedLevels)
}

func TestPlayerState_Normalize(t *testing.T) {
	s := &PlayerState{
		TotalXP:      -10,
		Level:        9,
		EarnedBadges: []string{"a", "a"},
	}
	s.Normalize("foundations")

	assert.Zero(t, s.TotalXP)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, []string{"a"}, s.EarnedBadges)
	assert.Equal(t, []string{}, s.CompletedActivities)
	assert.Equal(t, []string{"foundations"}, s.UnlockedLevels)
	assert.NotNil(t, s.History)
}

func TestPlayerState_CloneIsDeep(t *testing.T) {
	s := NewPlayerState("foundations")
	s.MarkCompleted("debate-roles")
	s.History = append(s.History, AttemptRecord{ActivityID: "debate-roles", ItemResults: []bool{true}})

	cp := s.Clone()
	cp.CompletedActivities[0] = "changed"
	cp.History[0].ItemResults[0] = false

	assert.Equal(t, "debate-roles", s.CompletedActivities[0])
	assert.True(t, s.History[0].ItemResults[0])
}

func TestAttemptRecord_CorrectCount(t *testing.T) {
	rec := AttemptRecord{ItemResults: []bool{true, false, true}}
	assert.Equal(t, 2, rec.CorrectCount())
}

func TestAttemptsFor(t *testing.T) {
	s := PlayerState{History: []AttemptRecord{
		{ActivityID: "a", XPDelta: 1},
		{ActivityID: "b"},
		{ActivityID: "a", XPDelta: 2},
	}}
	got := s.AttemptsFor("a")
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[1].XPDelta)
}

// --- Activity Tests ---

func TestApplyDefaults(t *testing.T) {
	quiz := Activity{Kind: KindSingleChoiceQuiz}
	quiz.ApplyDefaults()
	assert.Equal(t, ScoringRewardOnPass, quiz.Scoring)
	assert.Equal(t, DefaultPassThreshold, quiz.PassThreshold)
	assert.Equal(t, DefaultCorrectDelta, quiz.CorrectDelta)
	assert.Equal(t, DefaultIncorrectDelta, quiz.IncorrectDelta)
	assert.Zero(t, quiz.PartialDelta)

	speech := Activity{Kind: KindCompositeSpeech, CorrectDelta: 15, Items: []Item{{ID: "s1"}}}
	speech.ApplyDefaults()
	assert.Equal(t, ScoringXPGated, speech.Scoring)
	assert.Equal(t, 15, speech.CorrectDelta)
	assert.Equal(t, DefaultPartialDelta, speech.PartialDelta)
	assert.Equal(t, DefaultMinPicks, speech.Items[0].MinPicks)
	assert.Equal(t, DefaultMaxPicks, speech.Items[0].MaxPicks)
}

func TestActivity_JSONHidesAnswerKeys(t *testing.T) {
	a := Activity{ID: "q", Kind: KindSingleChoiceQuiz, Items: []Item{
		{ID: "q1", Options: []string{"a", "b"}, CorrectOption: 1, Keywords: []string{"secret"}},
	}}
	raw, err := json.Marshal(a)
	require.NoError(t, err)
	for _, key := range []string{"correctOption", "correctOrder", "correctLabel", "keywords", "response"} {
		assert.NotContains(t, string(raw), `"`+key+`"`)
	}
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), `"correctDelta"`)
}

// --- Validator Tests ---

func validCatalog() *Catalog {
	quiz := func(id string) Activity {
		a := Activity{ID: id, Kind: KindSingleChoiceQuiz, XPReward: 100, Items: []Item{
			{ID: "q1", Options: []string{"a", "b"}, CorrectOption: 1},
		}}
		a.ApplyDefaults()
		return a
	}
	return &Catalog{Levels: []Level{
		{ID: "one", Activities: []Activity{quiz("a1")}, Badge: Badge{ID: "b1", Name: "One"}, UnlocksLevel: "two"},
		{ID: "two", Activities: []Activity{quiz("a2")}, Badge: Badge{ID: "b2", Name: "Two"}},
	}}
}

func TestValidateCatalog(t *testing.T) {
	require.NoError(t, ValidateCatalog(validCatalog()))

	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantErr string
	}{
		{"no levels", func(c *Catalog) { c.Levels = nil }, "Levels"},
		{"duplicate level", func(c *Catalog) { c.Levels[1].ID = "one"; c.Levels[0].UnlocksLevel = "one" }, "duplicate level"},
		{"broken chain", func(c *Catalog) { c.Levels[0].UnlocksLevel = "" }, `must unlock "two"`},
		{"last level unlocks", func(c *Catalog) { c.Levels[1].UnlocksLevel = "three" }, "cannot unlock"},
		{"duplicate activity", func(c *Catalog) { c.Levels[1].Activities[0].ID = "a1" }, "duplicate activity"},
		{"bad option", func(c *Catalog) { c.Levels[0].Activities[0].Items[0].CorrectOption = 2 }, "correctOption 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCatalog()
			tt.mutate(c)
			assert.ErrorContains(t, ValidateCatalog(c), tt.wantErr)
		})
	}
}

func TestValidateActivity(t *testing.T) {
	tests := []struct {
		name    string
		act     Activity
		wantErr string
	}{
		{
			"ordered blocks not a permutation",
			Activity{ID: "o", Kind: KindOrderedBlocks, Scoring: ScoringRewardOnPass, Items: []Item{
				{ID: "i", Blocks: []string{"a", "b"}, CorrectOrder: []string{"a", "a"}},
			}},
			"permutation",
		},
		{
			"binary needs two labels",
			Activity{ID: "b", Kind: KindBinaryClassification, Scoring: ScoringRewardOnPass, Items: []Item{
				{ID: "i", Labels: []string{"factual"}, CorrectLabel: "factual"},
			}},
			"exactly 2 labels",
		},
		{
			"tone label missing",
			Activity{ID: "t", Kind: KindToneMatch, Scoring: ScoringXPGated, RequiredXP: 20, Items: []Item{
				{ID: "i", Labels: []string{"students"}, CorrectLabel: "parents"},
			}},
			"not among labels",
		},
		{
			"free text without response",
			Activity{ID: "f", Kind: KindFreeTextGated, Scoring: ScoringRewardOnPass, Items: []Item{{ID: "i"}}},
			"needs a response",
		},
		{
			"composite pick bounds",
			Activity{ID: "c", Kind: KindCompositeSpeech, Scoring: ScoringXPGated, RequiredXP: 30, Items: []Item{
				{ID: "i", MinPicks: 3, MaxPicks: 2},
			}},
			"invalid pick bounds",
		},
		{
			"xp-gated without threshold",
			Activity{ID: "x", Kind: KindToneMatch, Scoring: ScoringXPGated},
			"needs requiredXP",
		},
		{
			"unknown scoring",
			Activity{ID: "s", Kind: KindSingleChoiceQuiz, Scoring: "bonus"},
			"unknown scoring",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, ValidateActivity(tt.act), tt.wantErr)
		})
	}
}

// --- AppError Tests ---

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := ErrNotFound("session", "abc-123")
		assert.Equal(t, "NOT_FOUND: session abc-123 not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := ErrPersistence("save snapshot", cause)
		assert.Contains(t, err.Error(), "PERSISTENCE_ERROR")
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrInternal("wrapped", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("start: %w", ErrLockedActivity("foundations", "rebuttals"))
	assert.True(t, HasCode(err, CodeLockedActivity))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeLockedActivity))
	assert.False(t, HasCode(nil, CodeLockedActivity))
}

func TestErrorFactories(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"ErrLockedActivity", ErrLockedActivity("l", "a"), CodeLockedActivity, 403},
		{"ErrOutOfRange", ErrOutOfRange("too far"), CodeOutOfRange, 409},
		{"ErrMalformedAnswer", ErrMalformedAnswer("bad"), CodeMalformedAnswer, 400},
		{"ErrPersistence", ErrPersistence("save", nil), CodePersistence, 500},
		{"ErrNotFound", ErrNotFound("session", "123"), CodeNotFound, 404},
		{"ErrConflict", ErrConflict("already running"), CodeConflict, 409},
		{"ErrValidation", ErrValidation("bad input"), CodeValidation, 400},
		{"ErrRateLimited", ErrRateLimited("slow down"), CodeRateLimited, 429},
		{"ErrInternal", ErrInternal("oops", nil), CodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

// --- Event Tests ---

func TestNewActivityCompletedEvent(t *testing.T) {
	rec := AttemptRecord{ActivityID: "rebuttals", ItemResults: []bool{true}, XPDelta: 200, Passed: true}
	evt := NewActivityCompletedEvent(rec)

	assert.Equal(t, AggregateActivity, evt.AggregateType)
	assert.Equal(t, "rebuttals", evt.AggregateID)
	assert.Equal(t, "debatequest.activity.activity.completed", evt.Topic())

	var decoded AttemptRecord
	require.NoError(t, json.Unmarshal(evt.Payload, &decoded))
	assert.Equal(t, 200, decoded.XPDelta)
}

func TestNewLevelCompletedEvent(t *testing.T) {
	evt := NewLevelCompletedEvent("foundations", "foundations-graduate", "fallacy-fighters")

	var p LevelCompletedPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, LevelCompletedPayload{
		LevelID:       "foundations",
		BadgeID:       "foundations-graduate",
		UnlockedLevel: "fallacy-fighters",
	}, p)
	assert.NotEqual(t, NewLevelCompletedEvent("a", "b", "").EventID, evt.EventID)
}
