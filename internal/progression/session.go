package progression

import (
	"slices"
	"time"

	"github.com/debatequest/platform/internal/domain"
	"github.com/google/uuid"
)

// SessionStatus is the per-attempt state machine position.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Terminal reports whether the session has been finished.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ActivitySession is one in-memory attempt at an activity. Nothing about it
// is persisted until FinishActivity produces an AttemptRecord.
type ActivitySession struct {
	ID         uuid.UUID           `json:"id"`
	LevelID    string              `json:"levelId"`
	ActivityID string              `json:"activityId"`
	Kind       domain.ActivityKind `json:"kind"`
	Status     SessionStatus       `json:"status"`
	Cursor     int                 `json:"cursor"`
	ItemCount  int                 `json:"itemCount"`
	LocalXP    int                 `json:"localXP"`
	Results    []bool              `json:"results"`
	Retake     bool                `json:"retake"`
	StartedAt  time.Time           `json:"startedAt"`

	record *domain.AttemptRecord
}

func newSession(levelID string, act domain.Activity, retake bool) *ActivitySession {
	return &ActivitySession{
		ID:         uuid.New(),
		LevelID:    levelID,
		ActivityID: act.ID,
		Kind:       act.Kind,
		Status:     StatusInProgress,
		ItemCount:  len(act.Items),
		Results:    []bool{},
		Retake:     retake,
		StartedAt:  time.Now(),
	}
}

// Done reports whether every item has been answered.
func (s *ActivitySession) Done() bool {
	return s.Cursor >= s.ItemCount
}

// Record returns the attempt record of a finished session.
func (s *ActivitySession) Record() (domain.AttemptRecord, bool) {
	if s.record == nil {
		return domain.AttemptRecord{}, false
	}
	return s.record.Clone(), true
}

// snapshot returns a copy safe to hand out while the engine keeps mutating.
func (s *ActivitySession) snapshot() *ActivitySession {
	cp := *s
	cp.Results = slices.Clone(s.Results)
	return &cp
}

// ItemFeedback is returned after every graded submission.
type ItemFeedback struct {
	SessionID   uuid.UUID `json:"sessionId"`
	ItemID      string    `json:"itemId"`
	Correct     bool      `json:"correct"`
	Retry       bool      `json:"retry"`
	Explanation string    `json:"explanation"`
	LocalXP     int       `json:"localXP"`
	Cursor      int       `json:"cursor"`
	Done        bool      `json:"done"`
}
