package controller

import (
	"context"
	"net/http"
	"time"
)

// Pinger is implemented by backends the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	backends map[string]Pinger
}

// NewHealthController creates a health controller. Backends map a name to
// its ping check; nil entries are skipped so optional dependencies (redis,
// postgres) only gate readiness when configured.
func NewHealthController(backends map[string]Pinger) *HealthController {
	return &HealthController{backends: backends}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, backend := range h.backends {
		if backend == nil {
			continue
		}
		if err := backend.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": name + " unavailable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
