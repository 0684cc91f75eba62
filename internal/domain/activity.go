package domain

// ActivityKind enumerates the gradable exercise types.
type ActivityKind string

const (
	KindSingleChoiceQuiz     ActivityKind = "single-choice-quiz"
	KindOrderedBlocks        ActivityKind = "ordered-blocks"
	KindBinaryClassification ActivityKind = "binary-classification"
	KindToneMatch            ActivityKind = "tone-match"
	KindFreeTextGated        ActivityKind = "free-text-gated"
	KindCompositeSpeech      ActivityKind = "composite-speech"
)

// Valid reports whether k is a known activity kind.
func (k ActivityKind) Valid() bool {
	switch k {
	case KindSingleChoiceQuiz, KindOrderedBlocks, KindBinaryClassification,
		KindToneMatch, KindFreeTextGated, KindCompositeSpeech:
		return true
	}
	return false
}

// ScoringPolicy selects how an activity attempt is turned into XP.
type ScoringPolicy string

const (
	// ScoringRewardOnPass grants the fixed XPReward when the correct ratio
	// reaches PassThreshold.
	ScoringRewardOnPass ScoringPolicy = "reward-on-pass"
	// ScoringXPGated credits the per-item accumulator when it reaches RequiredXP.
	ScoringXPGated ScoringPolicy = "xp-gated"
)

// DefaultScoring returns the scoring policy an activity kind uses when the
// catalog does not declare one.
func (k ActivityKind) DefaultScoring() ScoringPolicy {
	switch k {
	case KindToneMatch, KindCompositeSpeech:
		return ScoringXPGated
	default:
		return ScoringRewardOnPass
	}
}

// Default scoring constants.
const (
	DefaultPassThreshold  = 0.70
	DefaultCorrectDelta   = 10
	DefaultIncorrectDelta = -5
	DefaultPartialDelta   = 5
	DefaultMinPicks       = 2
	DefaultMaxPicks       = 3
	FreeTextMinLength     = 10
	XPPerPlayerLevel      = 200
)

// NeedsMoreDetail is the reply to free text that does not engage.
const NeedsMoreDetail = "I'd love to hear more detail in your response. Can you elaborate on your thinking?"

// PhraseCategory tags composite-speech building blocks.
type PhraseCategory string

const (
	PhraseEmotion PhraseCategory = "emotion"
	PhraseLogic   PhraseCategory = "logic"
)

// Phrase is one selectable building block of a composite-speech item.
type Phrase struct {
	ID       string         `json:"id" yaml:"id" validate:"required"`
	Text     string         `json:"text" yaml:"text" validate:"required"`
	Category PhraseCategory `json:"category" yaml:"category" validate:"oneof=emotion logic"`
}

// Item is a single prompt inside an activity. Only the fields relevant to
// the owning activity's kind are populated.
type Item struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Prompt      string `json:"prompt" yaml:"prompt"`
	Explanation string `json:"explanation" yaml:"explanation"`

	// single-choice-quiz
	Options       []string `json:"options,omitempty" yaml:"options"`
	CorrectOption int      `json:"-" yaml:"correctOption"`

	// ordered-blocks
	Blocks       []string `json:"blocks,omitempty" yaml:"blocks"`
	CorrectOrder []string `json:"-" yaml:"correctOrder"`

	// binary-classification, tone-match
	Labels       []string `json:"labels,omitempty" yaml:"labels"`
	CorrectLabel string   `json:"-" yaml:"correctLabel"`

	// free-text-gated
	Keywords []string `json:"-" yaml:"keywords"`
	Response string   `json:"-" yaml:"response"`

	// composite-speech
	Phrases  []Phrase `json:"phrases,omitempty" yaml:"phrases" validate:"dive"`
	MinPicks int      `json:"minPicks,omitempty" yaml:"minPicks"`
	MaxPicks int      `json:"maxPicks,omitempty" yaml:"maxPicks"`
}

// PhraseByID returns the phrase with the given id.
func (it Item) PhraseByID(id string) (Phrase, bool) {
	for _, p := range it.Phrases {
		if p.ID == id {
			return p, true
		}
	}
	return Phrase{}, false
}

// Activity is a gradable unit of content. Activities are read-only once the
// catalog is loaded.
type Activity struct {
	ID             string        `json:"id" yaml:"id" validate:"required"`
	Title          string        `json:"title" yaml:"title"`
	Kind           ActivityKind  `json:"kind" yaml:"kind" validate:"required"`
	Scoring        ScoringPolicy `json:"scoring" yaml:"scoring"`
	Items          []Item        `json:"items" yaml:"items" validate:"min=1,dive"`
	XPReward       int           `json:"xpReward" yaml:"xpReward" validate:"gte=0"`
	PassThreshold  float64       `json:"passThreshold,omitempty" yaml:"passThreshold" validate:"gte=0,lte=1"`
	RequiredXP     int           `json:"requiredXP,omitempty" yaml:"requiredXP" validate:"gte=0"`
	CorrectDelta   int           `json:"correctDelta" yaml:"correctDelta"`
	IncorrectDelta int           `json:"incorrectDelta" yaml:"incorrectDelta"`
	PartialDelta   int           `json:"partialDelta,omitempty" yaml:"partialDelta"`
}

// ApplyDefaults fills zero scoring fields with the per-kind defaults. The
// catalog loader restores any zero that was declared explicitly.
func (a *Activity) ApplyDefaults() {
	if a.Scoring == "" {
		a.Scoring = a.Kind.DefaultScoring()
	}
	if a.PassThreshold == 0 {
		a.PassThreshold = DefaultPassThreshold
	}
	if a.CorrectDelta == 0 {
		a.CorrectDelta = DefaultCorrectDelta
	}
	if a.IncorrectDelta == 0 {
		a.IncorrectDelta = DefaultIncorrectDelta
	}
	if a.Kind == KindCompositeSpeech && a.PartialDelta == 0 {
		a.PartialDelta = DefaultPartialDelta
	}
	for i := range a.Items {
		if a.Kind != KindCompositeSpeech {
			continue
		}
		if a.Items[i].MinPicks == 0 {
			a.Items[i].MinPicks = DefaultMinPicks
		}
		if a.Items[i].MaxPicks == 0 {
			a.Items[i].MaxPicks = DefaultMaxPicks
		}
	}
}

// Badge is awarded when every activity of a level is completed.
type Badge struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
}

// Level is an ordered, sequentially gated group of activities.
type Level struct {
	ID           string     `json:"id" yaml:"id" validate:"required"`
	Title        string     `json:"title" yaml:"title"`
	Activities   []Activity `json:"activities" yaml:"activities" validate:"min=1,dive"`
	Badge        Badge      `json:"badge" yaml:"badge"`
	UnlocksLevel string     `json:"unlocksLevel,omitempty" yaml:"unlocksLevel"`
}

// Activity returns the activity with the given id and its position.
func (l Level) Activity(id string) (Activity, int, bool) {
	for i, a := range l.Activities {
		if a.ID == id {
			return a, i, true
		}
	}
	return Activity{}, -1, false
}

// ActivityIDs returns the ordered activity ids of the level.
func (l Level) ActivityIDs() []string {
	ids := make([]string, len(l.Activities))
	for i, a := range l.Activities {
		ids[i] = a.ID
	}
	return ids
}

// Catalog is the full ordered curriculum.
type Catalog struct {
	Title  string  `json:"title" yaml:"title"`
	Levels []Level `json:"levels" yaml:"levels" validate:"min=1,dive"`
}

// Level returns the level with the given id and its position.
func (c *Catalog) Level(id string) (Level, int, bool) {
	for i, l := range c.Levels {
		if l.ID == id {
			return l, i, true
		}
	}
	return Level{}, -1, false
}

// FirstLevelID returns the id of the always-unlocked entry level.
func (c *Catalog) FirstLevelID() string {
	if len(c.Levels) == 0 {
		return ""
	}
	return c.Levels[0].ID
}

// PreviousLevel returns the level whose badge gates levelID.
func (c *Catalog) PreviousLevel(levelID string) (Level, bool) {
	_, idx, ok := c.Level(levelID)
	if !ok || idx == 0 {
		return Level{}, false
	}
	return c.Levels[idx-1], true
}
