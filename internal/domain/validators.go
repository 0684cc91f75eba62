package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidateCatalog checks struct-level constraints and the cross-reference
// rules the engine relies on: unique ids, answer keys that exist among the
// item's choices, and a linear unlock chain.
func ValidateCatalog(c *Catalog) error {
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid catalog: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid catalog: %w", err)
	}

	levelIDs := make(map[string]bool)
	activityIDs := make(map[string]bool)
	for i, lvl := range c.Levels {
		if levelIDs[lvl.ID] {
			return fmt.Errorf("duplicate level id %q", lvl.ID)
		}
		levelIDs[lvl.ID] = true

		if i+1 < len(c.Levels) && lvl.UnlocksLevel != c.Levels[i+1].ID {
			return fmt.Errorf("level %q must unlock %q, got %q", lvl.ID, c.Levels[i+1].ID, lvl.UnlocksLevel)
		}
		if i+1 == len(c.Levels) && lvl.UnlocksLevel != "" {
			return fmt.Errorf("last level %q cannot unlock %q", lvl.ID, lvl.UnlocksLevel)
		}

		for _, act := range lvl.Activities {
			if activityIDs[act.ID] {
				return fmt.Errorf("duplicate activity id %q", act.ID)
			}
			activityIDs[act.ID] = true
			if err := ValidateActivity(act); err != nil {
				return fmt.Errorf("level %q: %w", lvl.ID, err)
			}
		}
	}
	return nil
}

// ValidateActivity checks that every item carries a usable answer key for
// the activity's kind.
func ValidateActivity(a Activity) error {
	if !a.Kind.Valid() {
		return fmt.Errorf("activity %q: unknown kind %q", a.ID, a.Kind)
	}
	if a.Scoring != ScoringRewardOnPass && a.Scoring != ScoringXPGated {
		return fmt.Errorf("activity %q: unknown scoring %q", a.ID, a.Scoring)
	}
	if a.Scoring == ScoringXPGated && a.RequiredXP <= 0 {
		return fmt.Errorf("activity %q: xp-gated scoring needs requiredXP", a.ID)
	}

	for _, it := range a.Items {
		var err error
		switch a.Kind {
		case KindSingleChoiceQuiz:
			if it.CorrectOption < 0 || it.CorrectOption >= len(it.Options) {
				err = fmt.Errorf("correctOption %d outside %d options", it.CorrectOption, len(it.Options))
			}
		case KindOrderedBlocks:
			if len(it.Blocks) == 0 || !isPermutation(it.Blocks, it.CorrectOrder) {
				err = fmt.Errorf("correctOrder must be a permutation of blocks")
			}
		case KindBinaryClassification, KindToneMatch:
			if !slices.Contains(it.Labels, it.CorrectLabel) {
				err = fmt.Errorf("correctLabel %q not among labels", it.CorrectLabel)
			}
			if a.Kind == KindBinaryClassification && len(it.Labels) != 2 {
				err = fmt.Errorf("binary classification needs exactly 2 labels, got %d", len(it.Labels))
			}
		case KindFreeTextGated:
			if it.Response == "" {
				err = fmt.Errorf("free-text item needs a response")
			}
		case KindCompositeSpeech:
			if it.MinPicks < 1 || it.MaxPicks < it.MinPicks || len(it.Phrases) < it.MinPicks {
				err = fmt.Errorf("invalid pick bounds %d..%d for %d phrases", it.MinPicks, it.MaxPicks, len(it.Phrases))
			}
		}
		if err != nil {
			return fmt.Errorf("activity %q item %q: %w", a.ID, it.ID, err)
		}
	}
	return nil
}

func isPermutation(set, order []string) bool {
	if len(set) != len(order) {
		return false
	}
	a := slices.Clone(set)
	b := slices.Clone(order)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b) && len(slices.Compact(a)) == len(set)
}
