package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/guard"
	"github.com/debatequest/platform/internal/progression"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SessionHandler drives activity sessions.
type SessionHandler struct {
	engine *progression.Engine
	idem   *guard.IdempotencyGuard
	logger *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(engine *progression.Engine, idem *guard.IdempotencyGuard, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{engine: engine, idem: idem, logger: logger}
}

// Start handles POST /levels/{levelID}/activities/{activityID}/start.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.StartActivity(r.Context(), chi.URLParam(r, "levelID"), chi.URLParam(r, "activityID"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, s)
}

// Retake handles POST /levels/{levelID}/activities/{activityID}/retake.
func (h *SessionHandler) Retake(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.RetakeActivity(r.Context(), chi.URLParam(r, "levelID"), chi.URLParam(r, "activityID"))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, s)
}

// Get handles GET /sessions/{sessionID}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	s, err := h.engine.Session(id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, s)
}

// SubmitAnswer handles POST /sessions/{sessionID}/answers.
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var ans domain.Answer
	if err := DecodeJSON(r, &ans); err != nil {
		RespondError(w, domain.ErrMalformedAnswer("invalid request body"))
		return
	}
	h.idempotent(w, r, func() (int, any, error) {
		fb, err := h.engine.SubmitItemAnswer(r.Context(), id, ans)
		return http.StatusOK, fb, err
	})
}

// Finish handles POST /sessions/{sessionID}/finish.
func (h *SessionHandler) Finish(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	h.idempotent(w, r, func() (int, any, error) {
		rec, err := h.engine.FinishActivity(r.Context(), id)
		return http.StatusOK, rec, err
	})
}

// idempotent runs fn once per Idempotency-Key and path. Repeats get the
// stored response; errors release the key so the client may retry.
func (h *SessionHandler) idempotent(w http.ResponseWriter, r *http.Request, fn func() (int, any, error)) {
	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		key = r.URL.Path + "|" + key
	}

	res, stored := h.idem.Begin(key)
	if !res.Allowed {
		if stored == nil {
			RespondError(w, domain.ErrConflict(res.Reason))
			return
		}
		h.logger.Debug("idempotent replay", "path", r.URL.Path, "request_id", GetRequestID(r.Context()))
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(stored.Status)
		w.Write(stored.Body)
		return
	}

	status, data, err := fn()
	if err != nil {
		h.idem.Remove(key)
		RespondError(w, err)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		h.idem.Remove(key)
		RespondError(w, domain.ErrInternal("encode response", err))
		return
	}
	h.idem.Complete(key, guard.Response{Status: status, Body: body})
	w.WriteHeader(status)
	w.Write(body)
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid session id: " + raw)
	}
	return id, nil
}
