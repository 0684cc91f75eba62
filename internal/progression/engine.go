package progression

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/policy"
	"github.com/google/uuid"
)

// maxRetainedSessions bounds how many sessions stay addressable by id.
const maxRetainedSessions = 32

// StateStore loads and saves the PlayerState snapshot. Implementations must
// not fail loudly: Load falls back to a default state, Save reports errors
// out of band.
type StateStore interface {
	Load(ctx context.Context) *domain.PlayerState
	Save(ctx context.Context, state *domain.PlayerState)
}

// EventSink receives ActivityCompleted and LevelCompleted events after the
// state change has been saved.
type EventSink interface {
	Publish(ctx context.Context, evt domain.Event)
}

// Engine is the sole mutator of PlayerState. It drives sessions through
// activities, scores attempts and decides unlocks.
//
// Calls are serialised by mu: the HTTP layer serves requests on separate
// goroutines but the model is one player acting at a time.
type Engine struct {
	mu       sync.Mutex
	catalog  *domain.Catalog
	store    StateStore
	sink     EventSink
	logger   *slog.Logger
	state    *domain.PlayerState
	sessions map[uuid.UUID]*ActivitySession
	order    []uuid.UUID
}

// NewEngine restores the player state from store and reconciles it with catalog.
func NewEngine(ctx context.Context, catalog *domain.Catalog, store StateStore, sink EventSink, logger *slog.Logger) *Engine {
	e := &Engine{
		catalog:  catalog,
		store:    store,
		sink:     sink,
		logger:   logger,
		sessions: make(map[uuid.UUID]*ActivitySession),
	}
	e.state = store.Load(ctx)
	e.reconcile()
	return e
}

// reconcile re-derives the level and the unlocked set from earned badges.
func (e *Engine) reconcile() {
	e.state.Normalize(e.catalog.FirstLevelID())
	unlocked := []string{}
	for i, lvl := range e.catalog.Levels {
		if i == 0 || e.state.HasBadge(e.catalog.Levels[i-1].Badge.ID) {
			unlocked = append(unlocked, lvl.ID)
		}
	}
	e.state.UnlockedLevels = unlocked
}

// Catalog returns the read-only curriculum.
func (e *Engine) Catalog() *domain.Catalog {
	return e.catalog
}

// State returns a deep copy of the current player state.
func (e *Engine) State() domain.PlayerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Reachable reports whether the activity could be started right now.
func (e *Engine) Reachable(levelID, activityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return policy.CanStart(e.state, e.catalog, levelID, activityID)
}

// Statuses returns the lock state of every activity of a level.
func (e *Engine) Statuses(levelID string) ([]policy.ActivityStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	level, _, ok := e.catalog.Level(levelID)
	if !ok {
		return nil, domain.ErrNotFound("level", levelID)
	}
	return policy.ActivityStatuses(e.state, e.catalog, level), nil
}

// Session returns a copy of a retained session.
func (e *Engine) Session(id uuid.UUID) (*ActivitySession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound("session", id.String())
	}
	return s.snapshot(), nil
}

// StartActivity opens a fresh session. The activity must be the first of
// an unlocked level or follow a completed activity.
func (e *Engine) StartActivity(ctx context.Context, levelID, activityID string) (*ActivitySession, error) {
	return e.open(ctx, levelID, activityID, false)
}

// RetakeActivity opens a new session for any reachable activity, completed
// or not. It never revokes earlier completions or badges.
func (e *Engine) RetakeActivity(ctx context.Context, levelID, activityID string) (*ActivitySession, error) {
	return e.open(ctx, levelID, activityID, true)
}

func (e *Engine) open(_ context.Context, levelID, activityID string, retake bool) (*ActivitySession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	level, _, ok := e.catalog.Level(levelID)
	if !ok {
		return nil, domain.ErrNotFound("level", levelID)
	}
	act, _, ok := level.Activity(activityID)
	if !ok {
		return nil, domain.ErrNotFound("activity", activityID)
	}
	if !policy.CanStart(e.state, e.catalog, levelID, activityID) {
		return nil, domain.ErrLockedActivity(levelID, activityID)
	}

	s := newSession(levelID, act, retake)
	e.retain(s)
	e.logger.Info("activity session started",
		"session_id", s.ID,
		"level_id", levelID,
		"activity_id", activityID,
		"retake", retake,
	)
	return s.snapshot(), nil
}

// retain stores the session, abandoning any other in-progress session and
// evicting the oldest sessions beyond maxRetainedSessions.
func (e *Engine) retain(s *ActivitySession) {
	for id, other := range e.sessions {
		if other.Status == StatusInProgress {
			delete(e.sessions, id)
			e.order = slices.DeleteFunc(e.order, func(x uuid.UUID) bool { return x == id })
		}
	}
	e.sessions[s.ID] = s
	e.order = append(e.order, s.ID)
	for len(e.order) > maxRetainedSessions {
		delete(e.sessions, e.order[0])
		e.order = e.order[1:]
	}
}

// SubmitItemAnswer grades the answer for the item under the cursor. Nothing
// is persisted until FinishActivity.
func (e *Engine) SubmitItemAnswer(_ context.Context, sessionID uuid.UUID, ans domain.Answer) (*ItemFeedback, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, act, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return nil, domain.ErrOutOfRange("session already finished")
	}
	if !policy.CanStart(e.state, e.catalog, s.LevelID, s.ActivityID) {
		return nil, domain.ErrLockedActivity(s.LevelID, s.ActivityID)
	}
	if s.Done() {
		return nil, domain.ErrOutOfRange(fmt.Sprintf("all %d items already answered", s.ItemCount))
	}

	item := act.Items[s.Cursor]
	g, err := gradeAnswer(act, item, ans)
	if err != nil {
		return nil, err
	}

	fb := &ItemFeedback{
		SessionID:   s.ID,
		ItemID:      item.ID,
		Correct:     g.outcome == policy.OutcomeCorrect,
		Retry:       g.retry,
		Explanation: g.explanation,
	}
	if !g.retry {
		s.Results = append(s.Results, fb.Correct)
		s.LocalXP = policy.ApplyItemDelta(act, s.LocalXP, g.outcome)
		s.Cursor++
	}
	fb.LocalXP = s.LocalXP
	fb.Cursor = s.Cursor
	fb.Done = s.Done()
	return fb, nil
}

// FinishActivity scores a fully answered session, records the attempt and
// applies completion, badge and unlock decisions. Finishing the same session
// twice returns the original record without further changes.
func (e *Engine) FinishActivity(ctx context.Context, sessionID uuid.UUID) (*domain.AttemptRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, act, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if rec, ok := s.Record(); ok {
		return &rec, nil
	}
	if !s.Done() {
		return nil, domain.ErrOutOfRange(fmt.Sprintf("answered %d of %d items", s.Cursor, s.ItemCount))
	}

	score := policy.ScoreAttempt(act, s.Results, s.LocalXP)
	rec := domain.AttemptRecord{
		ActivityID:  act.ID,
		LevelID:     s.LevelID,
		SessionID:   s.ID,
		ItemResults: slices.Clone(s.Results),
		XPDelta:     score.CreditedXP,
		LocalXP:     s.LocalXP,
		Passed:      score.Passed,
		FinishedAt:  time.Now().UTC(),
	}

	events := []domain.Event{}
	if score.Passed {
		e.state.AddXP(score.CreditedXP)
		e.state.MarkCompleted(act.ID)
		s.Status = StatusCompleted
	} else {
		s.Status = StatusFailed
	}
	e.state.History = append(e.state.History, rec.Clone())
	stored := rec.Clone()
	s.record = &stored
	events = append(events, domain.NewActivityCompletedEvent(rec))

	if evt, ok := e.completeLevel(s.LevelID); ok {
		events = append(events, evt)
	}

	e.store.Save(ctx, e.state)
	e.logger.Info("activity finished",
		"session_id", s.ID,
		"activity_id", act.ID,
		"passed", rec.Passed,
		"xp_delta", rec.XPDelta,
		"total_xp", e.state.TotalXP,
	)
	for _, evt := range events {
		e.sink.Publish(ctx, evt)
	}
	out := rec.Clone()
	return &out, nil
}

// completeLevel awards the level badge and unlocks the next level the first
// time every activity of the level is completed.
func (e *Engine) completeLevel(levelID string) (domain.Event, bool) {
	level, _, ok := e.catalog.Level(levelID)
	if !ok || !policy.IsLevelComplete(e.state, level) {
		return domain.Event{}, false
	}
	if !e.state.AwardBadge(level.Badge.ID) {
		return domain.Event{}, false
	}
	e.state.Unlock(level.UnlocksLevel)
	e.logger.Info("level completed",
		"level_id", level.ID,
		"badge_id", level.Badge.ID,
		"unlocked_level", level.UnlocksLevel,
	)
	return domain.NewLevelCompletedEvent(level.ID, level.Badge.ID, level.UnlocksLevel), true
}

// Reset discards all progress and persists the default state.
func (e *Engine) Reset(ctx context.Context) domain.PlayerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = domain.NewPlayerState(e.catalog.FirstLevelID())
	e.sessions = make(map[uuid.UUID]*ActivitySession)
	e.order = nil
	e.store.Save(ctx, e.state)
	e.logger.Info("progress reset")
	return e.state.Clone()
}

func (e *Engine) lookup(sessionID uuid.UUID) (*ActivitySession, domain.Activity, error) {
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, domain.Activity{}, domain.ErrNotFound("session", sessionID.String())
	}
	level, _, ok := e.catalog.Level(s.LevelID)
	if !ok {
		return nil, domain.Activity{}, domain.ErrNotFound("level", s.LevelID)
	}
	act, _, ok := level.Activity(s.ActivityID)
	if !ok {
		return nil, domain.Activity{}, domain.ErrNotFound("activity", s.ActivityID)
	}
	return s, act, nil
}
