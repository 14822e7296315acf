package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hostelcare/complaint-server/internal/middleware"
	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/services"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ComplaintHandler handles complaint-related HTTP endpoints
type ComplaintHandler struct {
	complaintSvc *services.ComplaintService
	exportSvc    *services.ExportService
	logger       *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(cs *services.ComplaintService, es *services.ExportService, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: cs, exportSvc: es, logger: logger}
}

// List handles GET /api/complaints
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.complaintSvc.List(r.Context(), middleware.CurrentUser(r.Context()), listQuery(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Create handles POST /api/complaints
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ComplaintSubmission
	if !decodeJSON(w, r, &req) {
		return
	}

	complaint, err := h.complaintSvc.Create(r.Context(), middleware.CurrentUser(r.Context()), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, complaint)
}

// Get handles GET /api/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	complaint, err := h.complaintSvc.Get(r.Context(), middleware.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// UpdateStatus handles PATCH /api/complaints/{id}/status
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusChange
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "Status is required")
		return
	}

	complaint, err := h.complaintSvc.TransitionStatus(r.Context(), middleware.CurrentUser(r.Context()),
		chi.URLParam(r, "id"), req.Status, req.Note)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Escalate handles PATCH /api/complaints/{id}/escalate
func (h *ComplaintHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	complaint, err := h.complaintSvc.Escalate(r.Context(), middleware.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Upvote handles PATCH /api/complaints/{id}/upvote
func (h *ComplaintHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	complaint, err := h.complaintSvc.Upvote(r.Context(), middleware.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Export handles GET /api/complaints/export
func (h *ComplaintHandler) Export(w http.ResponseWriter, r *http.Request) {
	buf, filename, err := h.exportSvc.ExportComplaints(r.Context(), middleware.CurrentUser(r.Context()), listQuery(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Summary handles GET /api/analytics/summary
func (h *ComplaintHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.complaintSvc.Summary(r.Context(), middleware.CurrentUser(r.Context()))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func listQuery(r *http.Request) services.ListQuery {
	q := r.URL.Query()
	return services.ListQuery{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Priority: q.Get("priority"),
		Block:    q.Get("block"),
	}
}
