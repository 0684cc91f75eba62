// Package mentor is the scripted practice coach: a fixed table of prompts,
// each answered with a canned response once the player engages.
package mentor

import (
	"strings"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/progression"
)

// Greeting opens every mentor conversation.
const Greeting = "Hello! I'm your AI Debate Mentor. I'm here to help you prepare for the final challenge. Let's practice some key skills!"

// Step is one scripted exchange.
type Step struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Prompt   string   `json:"prompt"`
	Keywords []string `json:"-"`
	Response string   `json:"-"`
}

// Steps is the mentor script, in order.
var Steps = []Step{
	{
		ID:       "rules",
		Title:    "Rebuttal Rules",
		Prompt:   "Let me explain rebuttal rules: Always address the strongest opposing argument first, use evidence to support your counter-claim, and maintain respectful tone. What's the most important part of a good rebuttal?",
		Keywords: []string{"evidence", "strongest", "argument", "counter"},
		Response: "Excellent! Evidence-based rebuttals are indeed the strongest. You're ready for this!",
	},
	{
		ID:       "structure",
		Title:    "Argument Structure",
		Prompt:   "A strong argument follows this structure: Claim → Evidence → Reasoning → Conclusion. Can you give me an example of a claim about school uniforms?",
		Keywords: []string{"school", "uniforms", "should", "students", "required"},
		Response: "Great example! You understand how to make clear, specific claims.",
	},
	{
		ID:       "practice",
		Title:    "Quick Practice",
		Prompt:   "Here's a quick scenario: Someone argues 'Homework should be banned because it's stressful.' How would you rebut this?",
		Keywords: []string{"benefits", "learning", "practice", "skills", "preparation"},
		Response: "Perfect! You're thinking like a skilled debater. You're ready for the final challenge!",
	},
}

// Reply is the mentor's answer to one player message.
type Reply struct {
	StepID  string `json:"stepId"`
	Engaged bool   `json:"engaged"`
	Message string `json:"message"`
	// NextStepID is empty after the last step or when the player must retry.
	NextStepID string `json:"nextStepId,omitempty"`
}

// Lookup returns the step with the given id and its position.
func Lookup(id string) (Step, int, bool) {
	for i, s := range Steps {
		if s.ID == id {
			return s, i, true
		}
	}
	return Step{}, -1, false
}

// Respond grades input against a step with the free-text engagement rule.
func Respond(stepID, input string) (Reply, error) {
	step, idx, ok := Lookup(stepID)
	if !ok {
		return Reply{}, domain.ErrNotFound("mentor step", stepID)
	}
	if strings.TrimSpace(input) == "" {
		return Reply{}, domain.ErrMalformedAnswer("message is required")
	}

	if !progression.Engaged(input, step.Keywords) {
		return Reply{StepID: step.ID, Message: domain.NeedsMoreDetail}, nil
	}

	reply := Reply{StepID: step.ID, Engaged: true, Message: step.Response}
	if idx+1 < len(Steps) {
		reply.NextStepID = Steps[idx+1].ID
	}
	return reply, nil
}
