// Package certificate renders the completion certificate awarded after the
// final speech.
package certificate

import (
	"fmt"
	"strings"
	"time"

	"github.com/debatequest/platform/internal/domain"
)

// Filename is the suggested download name.
const Filename = "debate-champion-certificate.txt"

// Skills listed on every certificate.
var Skills = []string{
	"Logical Reasoning",
	"Emotional Appeals",
	"Audience Adaptation",
	"Persuasive Communication",
}

// Certificate is a rendered-on-demand award.
type Certificate struct {
	Achievement string    `json:"achievement"`
	Title       string    `json:"title"`
	Skills      []string  `json:"skills"`
	Score       int       `json:"score"`
	Date        time.Time `json:"date"`
}

// New builds the champion certificate for a final audience approval score.
func New(score int, date time.Time) Certificate {
	return Certificate{
		Achievement: "DEBATE CHAMPION CERTIFICATE",
		Title:       "DEBATE QUEST: THE GRAND PERSUASION",
		Skills:      append([]string(nil), Skills...),
		Score:       score,
		Date:        date,
	}
}

// FromState builds the certificate for a player who holds the badge of the
// last catalog level. Anyone else gets a LockedActivity error.
func FromState(state domain.PlayerState, catalog *domain.Catalog, score int, date time.Time) (Certificate, error) {
	if len(catalog.Levels) == 0 {
		return Certificate{}, domain.ErrNotFound("level", "final")
	}
	final := catalog.Levels[len(catalog.Levels)-1]
	if !state.HasBadge(final.Badge.ID) {
		return Certificate{}, domain.ErrLockedActivity(final.ID, "certificate")
	}
	return New(score, date), nil
}

// Render returns the plain-text certificate body.
func (c Certificate) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 %s 🏆\n\n", c.Achievement)
	b.WriteString("This certifies that the bearer has successfully completed\n\n")
	fmt.Fprintf(&b, "%s\n\n", c.Title)
	b.WriteString("Demonstrating mastery in:\n")
	for _, s := range c.Skills {
		fmt.Fprintf(&b, "✓ %s\n", s)
	}
	fmt.Fprintf(&b, "\nFinal Score: %d%%\n\n", c.Score)
	b.WriteString("Congratulations on becoming a Debate Champion!\n\n")
	fmt.Fprintf(&b, "Date: %s\n", c.Date.Format("2006-01-02"))
	return b.String()
}
