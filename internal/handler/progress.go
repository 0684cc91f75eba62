package handler

import (
	"net/http"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/policy"
	"github.com/debatequest/platform/internal/progression"
	"github.com/debatequest/platform/internal/projection"
	"github.com/debatequest/platform/internal/reaction"
	"github.com/go-chi/chi/v5"
)

// ProgressHandler serves the player state and the curriculum.
type ProgressHandler struct {
	engine    *progression.Engine
	projector *projection.Projector
	stage     *reaction.Stage
}

// NewProgressHandler creates a new ProgressHandler. Resetting progress also
// clears the finale approval held by stage.
func NewProgressHandler(engine *progression.Engine, projector *projection.Projector, stage *reaction.Stage) *ProgressHandler {
	return &ProgressHandler{engine: engine, projector: projector, stage: stage}
}

type activityView struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Kind     domain.ActivityKind   `json:"kind"`
	XPReward int                   `json:"xpReward"`
	Status   policy.ActivityStatus `json:"status"`
}

type levelView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Unlocked    bool           `json:"unlocked"`
	Badge       domain.Badge   `json:"badge"`
	BadgeEarned bool           `json:"badgeEarned"`
	Activities  []activityView `json:"activities"`
}

// GetProgress handles GET /progress.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.engine.State())
}

// GetStats handles GET /progress/stats.
func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.projector.Stats(r.Context(), h.engine.State())
	if err != nil {
		RespondError(w, domain.ErrInternal("compute stats", err))
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

// Reset handles POST /progress/reset.
func (h *ProgressHandler) Reset(w http.ResponseWriter, r *http.Request) {
	state := h.engine.Reset(r.Context())
	h.stage.Reset()
	RespondJSON(w, http.StatusOK, state)
}

// ListLevels handles GET /levels with per-activity lock state.
func (h *ProgressHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	state := h.engine.State()
	catalog := h.engine.Catalog()

	levels := make([]levelView, 0, len(catalog.Levels))
	for _, lvl := range catalog.Levels {
		statuses, err := h.engine.Statuses(lvl.ID)
		if err != nil {
			RespondError(w, err)
			return
		}
		view := levelView{
			ID:          lvl.ID,
			Title:       lvl.Title,
			Unlocked:    policy.IsLevelUnlocked(&state, catalog, lvl.ID),
			Badge:       lvl.Badge,
			BadgeEarned: state.HasBadge(lvl.Badge.ID),
			Activities:  make([]activityView, len(lvl.Activities)),
		}
		for i, a := range lvl.Activities {
			view.Activities[i] = activityView{
				ID:       a.ID,
				Title:    a.Title,
				Kind:     a.Kind,
				XPReward: a.XPReward,
				Status:   statuses[i],
			}
		}
		levels = append(levels, view)
	}
	RespondJSON(w, http.StatusOK, levels)
}

// GetActivity handles GET /levels/{levelID}/activities/{activityID}. Answer
// keys are never serialised.
func (h *ProgressHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	levelID := chi.URLParam(r, "levelID")
	activityID := chi.URLParam(r, "activityID")

	level, _, ok := h.engine.Catalog().Level(levelID)
	if !ok {
		RespondError(w, domain.ErrNotFound("level", levelID))
		return
	}
	act, _, ok := level.Activity(activityID)
	if !ok {
		RespondError(w, domain.ErrNotFound("activity", activityID))
		return
	}
	RespondJSON(w, http.StatusOK, act)
}
