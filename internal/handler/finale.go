package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/debatequest/platform/internal/certificate"
	"github.com/debatequest/platform/internal/domain"
	"github.com/debatequest/platform/internal/progression"
	"github.com/debatequest/platform/internal/reaction"
)

// FinaleHandler serves the final speech delivery and the certificate.
type FinaleHandler struct {
	engine *progression.Engine
	stage  *reaction.Stage
	logger *slog.Logger
	now    func() time.Time
}

// NewFinaleHandler creates a new FinaleHandler.
func NewFinaleHandler(engine *progression.Engine, stage *reaction.Stage, logger *slog.Logger) *FinaleHandler {
	return &FinaleHandler{engine: engine, stage: stage, logger: logger, now: time.Now}
}

// Deliver handles POST /finale/deliver. The speech may only be delivered
// once the last activity of the curriculum has been completed.
func (h *FinaleHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	levels := h.engine.Catalog().Levels
	if len(levels) == 0 {
		RespondError(w, domain.ErrNotFound("level", "final"))
		return
	}
	final := levels[len(levels)-1]
	last := final.Activities[len(final.Activities)-1]

	state := h.engine.State()
	if !state.HasCompleted(last.ID) {
		RespondError(w, domain.ErrLockedActivity(final.ID, last.ID))
		return
	}

	d, err := h.stage.Deliver()
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusAccepted, d)
}

// Certificate handles GET /certificate as a plain-text download.
func (h *FinaleHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	score, ok := h.stage.LastApproval()
	if !ok {
		score = reaction.Approval(reaction.FinaleSequence)
	}

	cert, err := certificate.FromState(h.engine.State(), h.engine.Catalog(), score, h.now())
	if err != nil {
		RespondError(w, err)
		return
	}

	h.logger.Info("certificate issued", "score", score, "request_id", GetRequestID(r.Context()))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", certificate.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(cert.Render()))
}
