// Package reaction stages the scripted audience response to the final speech.
package reaction

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/debatequest/platform/internal/domain"
	"github.com/google/uuid"
)

// Kind is the emoji category shown to the player.
type Kind string

const (
	KindThinking Kind = "thinking"
	KindCheer    Kind = "cheer"
	KindApplause Kind = "applause"
	KindHeart    Kind = "heart"
	KindConfused Kind = "confused"
)

// Approval scale.
const (
	StartApproval   = 50
	MaxApproval     = 100
	IntensityWeight = 8
)

// Reaction is one audience beat.
type Reaction struct {
	Type      Kind   `json:"type"`
	Intensity int    `json:"intensity"`
	Message   string `json:"message"`
}

// FinaleSequence is played, in order, when the final speech is delivered.
var FinaleSequence = []Reaction{
	{Type: KindThinking, Intensity: 3, Message: "Audience is listening intently..."},
	{Type: KindCheer, Intensity: 4, Message: "Great opening! Audience is engaged!"},
	{Type: KindApplause, Intensity: 5, Message: "Strong evidence! Approval rising!"},
	{Type: KindHeart, Intensity: 5, Message: "Emotional connection made!"},
	{Type: KindCheer, Intensity: 5, Message: "Powerful conclusion! Standing ovation!"},
}

// Apply adds one reaction to an approval value, capped at MaxApproval.
func Apply(approval int, r Reaction) int {
	return min(MaxApproval, approval+r.Intensity*IntensityWeight)
}

// Approval returns the approval after the whole sequence.
func Approval(seq []Reaction) int {
	approval := StartApproval
	for _, r := range seq {
		approval = Apply(approval, r)
	}
	return approval
}

// Beat is emitted once per reaction during replay.
type Beat struct {
	DeliveryID string   `json:"deliveryId"`
	Index      int      `json:"index"`
	Reaction   Reaction `json:"reaction"`
	Approval   int      `json:"approval"`
	Final      bool     `json:"final"`
}

// Replay emits one Beat per reaction, interval apart, starting one interval
// after the call. It returns the final approval, or ctx.Err() if cancelled.
func Replay(ctx context.Context, deliveryID string, seq []Reaction, interval time.Duration, emit func(Beat)) (int, error) {
	approval := StartApproval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for i, r := range seq {
		select {
		case <-ctx.Done():
			return approval, ctx.Err()
		case <-timer.C:
		}
		approval = Apply(approval, r)
		emit(Beat{
			DeliveryID: deliveryID,
			Index:      i,
			Reaction:   r,
			Approval:   approval,
			Final:      i == len(seq)-1,
		})
		timer.Reset(interval)
	}
	return approval, nil
}

// Sink receives reaction events.
type Sink interface {
	Publish(ctx context.Context, evt domain.Event)
}

// Delivery describes a started replay.
type Delivery struct {
	ID            string `json:"deliveryId"`
	Beats         int    `json:"beats"`
	IntervalMS    int64  `json:"intervalMs"`
	FinalApproval int    `json:"finalApproval"`
}

// Stage runs at most one finale replay at a time and remembers the last
// final approval for the certificate.
type Stage struct {
	base     context.Context
	sink     Sink
	interval time.Duration
	logger   *slog.Logger

	mu           sync.Mutex
	running      bool
	lastApproval int
	generation   int
	wg           sync.WaitGroup
}

// NewStage creates a stage. Replays run on base and stop when it is cancelled.
func NewStage(base context.Context, sink Sink, interval time.Duration, logger *slog.Logger) *Stage {
	return &Stage{base: base, sink: sink, interval: interval, logger: logger}
}

// Deliver starts the finale replay in the background.
func (s *Stage) Deliver() (Delivery, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Delivery{}, domain.ErrConflict("a speech is already being delivered")
	}
	s.running = true
	gen := s.generation
	s.mu.Unlock()

	d := Delivery{
		ID:            uuid.NewString(),
		Beats:         len(FinaleSequence),
		IntervalMS:    s.interval.Milliseconds(),
		FinalApproval: Approval(FinaleSequence),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		approval, err := Replay(s.base, d.ID, FinaleSequence, s.interval, func(b Beat) {
			s.sink.Publish(s.base, domain.NewReactionEvent(d.ID, b))
		})

		s.mu.Lock()
		s.running = false
		if err == nil && gen == s.generation {
			s.lastApproval = approval
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Warn("finale replay interrupted", "delivery_id", d.ID, "error", err)
			return
		}
		s.logger.Info("finale delivered", "delivery_id", d.ID, "approval", approval)
	}()

	s.logger.Info("finale delivery started", "delivery_id", d.ID, "interval", s.interval)
	return d, nil
}

// LastApproval returns the final approval of the last completed replay.
func (s *Stage) LastApproval() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApproval, s.lastApproval > 0
}

// Reset forgets the last approval. A replay still running when Reset is
// called does not record its result.
func (s *Stage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastApproval = 0
	s.generation++
}

// Wait blocks until any running replay returns.
func (s *Stage) Wait() {
	s.wg.Wait()
}
