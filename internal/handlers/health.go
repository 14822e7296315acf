package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hostelcare/complaint-server/internal/models"
	"go.uber.org/zap"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// Pinger is the part of the store the readiness probe needs
type Pinger interface {
	Ping(ctx context.Context) error
	Name() string
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	store  Pinger
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// Check handles GET /api/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warnw("Readiness check failed", "store", h.store.Name(), "error", err)
		respondJSON(w, http.StatusServiceUnavailable, models.HealthStatus{
			Status:   "not ready",
			Version:  Version,
			Store:    h.store.Name(),
			Database: "disconnected",
		})
		return
	}

	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:   "ready",
		Version:  Version,
		Uptime:   time.Since(startTime).String(),
		Store:    h.store.Name(),
		Database: "connected",
	})
}
