// Package handler provides HTTP handlers for the rating API. The webhook
// handler owns the inbound boundary: identifier extraction, duplicate
// suppression, and mapping processing outcomes onto the response contract.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/albapepper/kicker-elo/internal/api/respond"
	"github.com/albapepper/kicker-elo/internal/config"
	"github.com/albapepper/kicker-elo/internal/dedup"
	"github.com/albapepper/kicker-elo/internal/processor"
)

// storeHealthChecker is implemented by backends that can be pinged.
type storeHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	proc   *processor.Processor
	guard  *dedup.Guard
	cfg    *config.Config
	health storeHealthChecker // nil when the backend has no ping
}

// New creates a Handler with shared dependencies.
func New(proc *processor.Processor, guard *dedup.Guard, cfg *config.Config, health storeHealthChecker) *Handler {
	return &Handler{
		proc:   proc,
		guard:  guard,
		cfg:    cfg,
		health: health,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Kicker Elo Service",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckStore verifies record store connectivity and reports the
// duplicate-suppression guard statistics.
// @Summary Record store health check
// @Description Verifies record store connectivity (postgres backend) and reports dedup guard statistics.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/store [get]
func (h *Handler) HealthCheckStore(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"backend":   h.cfg.StoreBackend,
		"dedup":     h.guard.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.health != nil {
		if err := h.health.HealthCheck(r.Context()); err != nil {
			body["status"] = "unhealthy"
			body["store"] = "disconnected"
			respond.WriteJSONObject(w, http.StatusServiceUnavailable, body)
			return
		}
		body["store"] = "connected"
	}

	respond.WriteJSONObject(w, http.StatusOK, body)
}
