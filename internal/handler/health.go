package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	service string
	version string
	checks  map[string]HealthChecker
}

// NewHealthHandler creates a HealthHandler reporting the given service name
// and version. checks maps a dependency name to its pinger; nil entries are
// skipped.
func NewHealthHandler(service, version string, checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{
		service: service,
		version: version,
		checks:  checks,
	}
}

// healthResponse is the health endpoint payload.
type healthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe. It returns 200 whenever the process is up,
// without touching any dependency.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "UP",
		Service: h.service,
		Version: h.version,
	})
}

// Readyz is a readiness probe. It pings every dependency and returns 503
// when any of them fails.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	healthy := true

	for name, checker := range h.checks {
		if checker == nil {
			continue
		}
		if err := checker.Ping(ctx); err != nil {
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	status := http.StatusOK
	state := "UP"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "DOWN"
	}

	writeJSON(w, status, healthResponse{
		Status:  state,
		Service: h.service,
		Version: h.version,
		Checks:  checks,
	})
}
