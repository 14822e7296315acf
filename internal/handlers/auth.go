package handlers

import (
	"net/http"

	"github.com/hostelcare/complaint-server/internal/middleware"
	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/services"
	"go.uber.org/zap"
)

// AuthHandler handles login, signup and the caller's own profile
type AuthHandler struct {
	authSvc *services.AuthService
	logger  *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(as *services.AuthService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{authSvc: as, logger: logger}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authSvc.Authenticate(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authSvc.Register(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, middleware.CurrentUser(r.Context()))
}

// UpdateMe handles PATCH /api/auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authSvc.UpdateProfile(r.Context(), middleware.CurrentUser(r.Context()), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
