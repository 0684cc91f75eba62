package handler

import (
	"encoding/json"
	"net/http"

	"github.com/debatequest/platform/internal/infra"
)

// FailureCounter reports how many persistence operations have failed.
type FailureCounter interface {
	Failures() int64
}

// HealthHandler returns a health check endpoint. db may be nil for the
// in-memory store.
func HealthHandler(db infra.Pinger, store FailureCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "healthy"}
		if store != nil {
			body["persistenceFailures"] = store.Failures()
		}
		if err := infra.HealthCheck(r.Context(), db); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			body["status"] = "unhealthy"
			body["error"] = err.Error()
		}
		json.NewEncoder(w).Encode(body)
	}
}
