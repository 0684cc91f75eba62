package progression

import (
	"slices"
	"strings"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/policy"
)

// grade is the result of comparing an answer against an item.
type grade struct {
	outcome     policy.ItemOutcome
	retry       bool
	explanation string
}

// gradeAnswer applies the kind-specific equality rule. A malformed answer
// returns an error and must leave the session untouched.
func gradeAnswer(act domain.Activity, item domain.Item, ans domain.Answer) (grade, error) {
	switch act.Kind {
	case domain.KindSingleChoiceQuiz:
		if ans.Option == nil {
			return grade{}, domain.ErrMalformedAnswer("option index is required")
		}
		if *ans.Option < 0 || *ans.Option >= len(item.Options) {
			return grade{}, domain.ErrMalformedAnswer("option index out of bounds")
		}
		return binary(*ans.Option == item.CorrectOption, item.Explanation), nil

	case domain.KindOrderedBlocks:
		if !samePermutation(item.Blocks, ans.Order) {
			return grade{}, domain.ErrMalformedAnswer("order must contain every block exactly once")
		}
		return binary(slices.Equal(ans.Order, item.CorrectOrder), item.Explanation), nil

	case domain.KindBinaryClassification, domain.KindToneMatch:
		if !slices.Contains(item.Labels, ans.Label) {
			return grade{}, domain.ErrMalformedAnswer("label must be one of the item's labels")
		}
		return binary(ans.Label == item.CorrectLabel, item.Explanation), nil

	case domain.KindFreeTextGated:
		if strings.TrimSpace(ans.Text) == "" {
			return grade{}, domain.ErrMalformedAnswer("text is required")
		}
		if !Engaged(ans.Text, item.Keywords) {
			return grade{retry: true, explanation: domain.NeedsMoreDetail}, nil
		}
		return grade{outcome: policy.OutcomeCorrect, explanation: item.Response}, nil

	case domain.KindCompositeSpeech:
		return gradeComposite(item, ans.Selection)
	}
	return grade{}, domain.ErrInternal("unsupported activity kind "+string(act.Kind), nil)
}

func binary(correct bool, explanation string) grade {
	if correct {
		return grade{outcome: policy.OutcomeCorrect, explanation: explanation}
	}
	return grade{outcome: policy.OutcomeIncorrect, explanation: explanation}
}

// Engaged is the free-text heuristic: any keyword as a case-insensitive
// substring, or a trimmed length over FreeTextMinLength.
func Engaged(text string, keywords []string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) > domain.FreeTextMinLength {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func gradeComposite(item domain.Item, selection []string) (grade, error) {
	if len(selection) < item.MinPicks || len(selection) > item.MaxPicks {
		return grade{}, domain.ErrMalformedAnswer("selection size outside allowed picks")
	}
	seen := make(map[string]bool, len(selection))
	var emotion, logic int
	for _, id := range selection {
		if seen[id] {
			return grade{}, domain.ErrMalformedAnswer("phrase selected twice: " + id)
		}
		seen[id] = true
		p, ok := item.PhraseByID(id)
		if !ok {
			return grade{}, domain.ErrMalformedAnswer("unknown phrase: " + id)
		}
		switch p.Category {
		case domain.PhraseEmotion:
			emotion++
		case domain.PhraseLogic:
			logic++
		}
	}

	switch {
	case emotion > 0 && logic > 0:
		return grade{outcome: policy.OutcomeCorrect, explanation: "Perfect balance: emotion and logic together persuade."}, nil
	case emotion > logic:
		return grade{outcome: policy.OutcomePartial, explanation: "Too emotional. Add some logic for better balance."}, nil
	default:
		return grade{outcome: policy.OutcomePartial, explanation: "Too logical. Add some emotion to connect with the audience."}, nil
	}
}

func samePermutation(blocks, order []string) bool {
	if len(blocks) != len(order) {
		return false
	}
	remaining := make(map[string]int, len(blocks))
	for _, b := range blocks {
		remaining[b]++
	}
	for _, id := range order {
		if remaining[id] == 0 {
			return false
		}
		remaining[id]--
	}
	return true
}
