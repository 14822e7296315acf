package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hostelcare/complaint-server/internal/middleware"
	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/services"
	"go.uber.org/zap"
)

// UserHandler handles admin user management
type UserHandler struct {
	userSvc *services.UserService
	logger  *zap.SugaredLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(us *services.UserService, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{userSvc: us, logger: logger}
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context(), middleware.CurrentUser(r.Context()), r.URL.Query().Get("role"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// Provision handles POST /api/users
func (h *UserHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userSvc.Provision(r.Context(), middleware.CurrentUser(r.Context()), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// ToggleStatus handles PATCH /api/users/{id}/status
func (h *UserHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.ToggleStatus(r.Context(), middleware.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.userSvc.Delete(r.Context(), middleware.CurrentUser(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
