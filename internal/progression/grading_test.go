package progression

import (
	"testing"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngaged(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{"keyword match", "use evidence", []string{"evidence"}, true},
		{"keyword case-insensitive", "EVIDENCE", []string{"evidence"}, true},
		{"long answer without keyword", "I would start with a story", nil, true},
		{"exactly ten characters", "abcdefghij", nil, false},
		{"eleven characters", "abcdefghijk", nil, true},
		{"padding is trimmed", "   short    ", nil, false},
		{"short no keyword", "maybe", []string{"claim"}, false},
		{"empty keyword ignored", "hi", []string{""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Engaged(tt.text, tt.keywords))
		})
	}
}

func TestGradeAnswer_OrderedBlocks(t *testing.T) {
	act := domain.Activity{Kind: domain.KindOrderedBlocks}
	item := domain.Item{
		Blocks:       []string{"b", "a", "c"},
		CorrectOrder: []string{"a", "b", "c"},
	}

	g, err := gradeAnswer(act, item, domain.Answer{Order: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, policy.OutcomeCorrect, g.outcome)

	g, err = gradeAnswer(act, item, domain.Answer{Order: []string{"b", "a", "c"}})
	require.NoError(t, err)
	assert.Equal(t, policy.OutcomeIncorrect, g.outcome)

	for _, bad := range [][]string{{"a", "b"}, {"a", "a", "c"}, {"a", "b", "z"}, nil} {
		_, err = gradeAnswer(act, item, domain.Answer{Order: bad})
		assert.True(t, domain.HasCode(err, domain.CodeMalformedAnswer), "%v", bad)
	}
}

func TestGradeAnswer_BinaryClassification(t *testing.T) {
	act := domain.Activity{Kind: domain.KindBinaryClassification}
	item := domain.Item{Labels: []string{"fact", "opinion"}, CorrectLabel: "opinion"}

	g, err := gradeAnswer(act, item, domain.Answer{Label: "opinion"})
	require.NoError(t, err)
	assert.Equal(t, policy.OutcomeCorrect, g.outcome)

	g, err = gradeAnswer(act, item, domain.Answer{Label: "fact"})
	require.NoError(t, err)
	assert.Equal(t, policy.OutcomeIncorrect, g.outcome)

	_, err = gradeAnswer(act, item, domain.Answer{Label: "maybe"})
	assert.True(t, domain.HasCode(err, domain.CodeMalformedAnswer))
}

func TestGradeAnswer_FreeTextBlankIsMalformed(t *testing.T) {
	act := domain.Activity{Kind: domain.KindFreeTextGated}
	_, err := gradeAnswer(act, domain.Item{}, domain.Answer{Text: "   "})
	assert.True(t, domain.HasCode(err, domain.CodeMalformedAnswer))
}

func TestGradeComposite(t *testing.T) {
	item := domain.Item{
		MinPicks: 2,
		MaxPicks: 3,
		Phrases: []domain.Phrase{
			{ID: "e1", Category: domain.PhraseEmotion},
			{ID: "e2", Category: domain.PhraseEmotion},
			{ID: "l1", Category: domain.PhraseLogic},
			{ID: "l2", Category: domain.PhraseLogic},
		},
	}

	tests := []struct {
		name      string
		selection []string
		outcome   policy.ItemOutcome
		contains  string
		malformed bool
	}{
		{"balanced", []string{"e1", "l1"}, policy.OutcomeCorrect, "balance", false},
		{"balanced three", []string{"e1", "e2", "l2"}, policy.OutcomeCorrect, "balance", false},
		{"all emotion", []string{"e1", "e2"}, policy.OutcomePartial, "Too emotional", false},
		{"all logic", []string{"l1", "l2"}, policy.OutcomePartial, "Too logical", false},
		{"too few", []string{"e1"}, 0, "", true},
		{"too many", []string{"e1", "e2", "l1", "l2"}, 0, "", true},
		{"duplicate", []string{"e1", "e1"}, 0, "", true},
		{"unknown phrase", []string{"e1", "x9"}, 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := gradeComposite(item, tt.selection)
			if tt.malformed {
				assert.True(t, domain.HasCode(err, domain.CodeMalformedAnswer))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, g.outcome)
			assert.Contains(t, g.explanation, tt.contains)
		})
	}
}
