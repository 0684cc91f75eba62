package domain

// Answer is a player submission for the current item. The populated field
// depends on the activity kind:
//
//	single-choice-quiz     Option
//	ordered-blocks         Order
//	binary-classification  Label
//	tone-match             Label (tone id)
//	free-text-gated        Text
//	composite-speech       Selection (phrase ids)
type Answer struct {
	Option    *int     `json:"option,omitempty"`
	Order     []string `json:"order,omitempty"`
	Label     string   `json:"label,omitempty"`
	Text      string   `json:"text,omitempty"`
	Selection []string `json:"selection,omitempty"`
}

// OptionAnswer is a convenience constructor for single-choice submissions.
func OptionAnswer(i int) Answer {
	return Answer{Option: &i}
}
