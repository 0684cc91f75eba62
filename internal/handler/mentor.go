package handler

import (
	"net/http"

	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/mentor"
	"github.com/go-chi/chi/v5"
)

// MentorHandler serves the scripted practice coach.
type MentorHandler struct{}

// NewMentorHandler creates a new MentorHandler.
func NewMentorHandler() *MentorHandler {
	return &MentorHandler{}
}

type mentorRequest struct {
	Message string `json:"message"`
}

// GetScript handles GET /mentor.
func (h *MentorHandler) GetScript(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"greeting": mentor.Greeting,
		"steps":    mentor.Steps,
	})
}

// Reply handles POST /mentor/{stepID}/reply.
func (h *MentorHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req mentorRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrMalformedAnswer("invalid request body"))
		return
	}
	reply, err := mentor.Respond(chi.URLParam(r, "stepID"), req.Message)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, reply)
}
