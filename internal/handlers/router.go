package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hostelcare/complaint-server/internal/middleware"
	"github.com/hostelcare/complaint-server/internal/services"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	Limiter        middleware.Limiter
	Store          Pinger

	Auth       *services.AuthService
	Users      *services.UserService
	Complaints *services.ComplaintService
	Export     *services.ExportService
	Activity   *services.ActivityLogService
}

// NewRouter wires middleware and every /api route
func NewRouter(cfg RouterConfig) http.Handler {
	sugar := cfg.Logger.Sugar()

	authHandler := NewAuthHandler(cfg.Auth, sugar)
	complaintHandler := NewComplaintHandler(cfg.Complaints, cfg.Export, sugar)
	userHandler := NewUserHandler(cfg.Users, sugar)
	activityHandler := NewActivityHandler(cfg.Activity, sugar)
	healthHandler := NewHealthHandler(cfg.Store, sugar)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	if cfg.Limiter != nil {
		r.Use(middleware.RateLimit(cfg.Limiter, cfg.Logger))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Public auth endpoints
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)

		// Everything else needs a valid, unblocked account
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.Auth))

			r.Get("/auth/me", authHandler.Me)
			r.Patch("/auth/me", authHandler.UpdateMe)

			r.Route("/complaints", func(r chi.Router) {
				r.Get("/", complaintHandler.List)
				r.Post("/", complaintHandler.Create)
				r.Get("/export", complaintHandler.Export)
				r.Get("/{id}", complaintHandler.Get)
				r.Patch("/{id}/status", complaintHandler.UpdateStatus)
				r.Patch("/{id}/escalate", complaintHandler.Escalate)
				r.Patch("/{id}/upvote", complaintHandler.Upvote)
			})

			r.Get("/analytics/summary", complaintHandler.Summary)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Provision)
				r.Patch("/{id}/status", userHandler.ToggleStatus)
				r.Delete("/{id}", userHandler.Delete)
			})

			r.Get("/activity/recent", activityHandler.Recent)
		})
	})

	return r
}
