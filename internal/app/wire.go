package app

import (
	"log/slog"
	"time"

	"github.com/debatequest/platform/internal/events"
	"github.com/debatequest/platform/internal/guard"
	"github.com/debatequest/platform/internal/handler"
	"github.com/debatequest/platform/internal/infra"
	"github.com/debatequest/platform/internal/progression"
	"github.com/debatequest/platform/internal/projection"
	"github.com/debatequest/platform/internal/reaction"
	"github.com/go-chi/chi/v5"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Engine    *progression.Engine
	Projector *projection.Projector
	Stage     *reaction.Stage
	Hub       *infra.WSHub
	// DB is pinged by /health; nil for the memory driver.
	DB          infra.Pinger
	Persistence handler.FailureCounter
	CORSOrigins string
	Logger      *slog.Logger
}

// Request guard settings.
const (
	idempotencyTTL   = 10 * time.Minute
	mentorRateLimit  = 30
	mentorRateWindow = time.Minute
)

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	idem := guard.NewIdempotencyGuard(idempotencyTTL)
	mentorLimiter := guard.NewRateLimiter(mentorRateLimit, mentorRateWindow)

	// Handlers
	progressHandler := handler.NewProgressHandler(deps.Engine, deps.Projector, deps.Stage)
	sessionHandler := handler.NewSessionHandler(deps.Engine, idem, logger)
	mentorHandler := handler.NewMentorHandler()
	finaleHandler := handler.NewFinaleHandler(deps.Engine, deps.Stage, logger)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.CORSOrigins))

	// WebSocket upgrades skip the JSON content type.
	r.Get("/events", deps.Hub.ServeRoom(events.RoomProgress))
	r.Get("/finale/events", deps.Hub.ServeRoom(events.RoomFinale))

	r.Get("/certificate", finaleHandler.Certificate)

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		r.Get("/health", handler.HealthHandler(deps.DB, deps.Persistence))

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", progressHandler.GetProgress)
			r.Get("/stats", progressHandler.GetStats)
			r.Post("/reset", progressHandler.Reset)
		})

		r.Route("/levels", func(r chi.Router) {
			r.Get("/", progressHandler.ListLevels)
			r.Route("/{levelID}/activities/{activityID}", func(r chi.Router) {
				r.Get("/", progressHandler.GetActivity)
				r.Post("/start", sessionHandler.Start)
				r.Post("/retake", sessionHandler.Retake)
			})
		})

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Post("/answers", sessionHandler.SubmitAnswer)
			r.Post("/finish", sessionHandler.Finish)
		})

		r.Route("/mentor", func(r chi.Router) {
			r.Get("/", mentorHandler.GetScript)
			r.With(handler.RateLimit(mentorLimiter, logger)).Post("/{stepID}/reply", mentorHandler.Reply)
		})

		r.Post("/finale/deliver", finaleHandler.Deliver)
	})

	return r
}
