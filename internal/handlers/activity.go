package handlers

import (
	"net/http"
	"strconv"

	"github.com/hostelcare/complaint-server/internal/middleware"
	"github.com/hostelcare/complaint-server/internal/services"
	"go.uber.org/zap"
)

// ActivityHandler handles activity log endpoints
type ActivityHandler struct {
	svc    *services.ActivityLogService
	logger *zap.SugaredLogger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(svc *services.ActivityLogService, logger *zap.SugaredLogger) *ActivityHandler {
	return &ActivityHandler{svc: svc, logger: logger}
}

// Recent handles GET /api/activity/recent (admin only)
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := h.svc.Recent(r.Context(), middleware.CurrentUser(r.Context()), limit)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
