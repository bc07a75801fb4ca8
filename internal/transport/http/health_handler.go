package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler serves the /api/health and /api/version routes.
type HealthHandler struct {
	service HealthServiceInterface
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(service HealthServiceInterface) *HealthHandler {
	return &HealthHandler{service: service}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetHealth)
	r.Get("/ready", h.GetReadiness)
	r.Get("/live", h.GetLiveness)

	return r
}

// GetHealth handles GET /api/health. A degraded dashboard still
// answers 200: the check payload carries the verdict, and load
// balancers should use /ready for routing decisions.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Health(r.Context()))
}

// GetReadiness handles GET /api/health/ready. 503 until the first
// snapshot loads.
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	ready, status := h.service.Readiness()
	if !ready {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, map[string]interface{}{
		"ready":    ready,
		"snapshot": status,
	})
}

// GetLiveness handles GET /api/health/live.
func (h *HealthHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Liveness())
}

// GetVersion handles GET /api/version.
func (h *HealthHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
