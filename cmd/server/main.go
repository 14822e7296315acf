// Package main is the entry point for the hostel complaint server.
// It provides a REST API where students raise maintenance complaints,
// wardens triage them within their block and admins manage accounts.
//
// Architecture:
//   - Storage is PostgreSQL, MongoDB or in-memory, chosen by STORE_DRIVER
//   - Complaints follow a server-enforced status lifecycle with an append-only timeline
//   - Role permissions come from a casbin policy; block and ownership scope is applied on top
//   - A background worker escalates complaints left open too long
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hostelcare/complaint-server/internal/config"
	"github.com/hostelcare/complaint-server/internal/database"
	"github.com/hostelcare/complaint-server/internal/handlers"
	"github.com/hostelcare/complaint-server/internal/middleware"
	"github.com/hostelcare/complaint-server/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting Hostel Complaint Server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"store", cfg.StoreDriver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the configured store
	store, err := database.OpenStore(ctx, cfg, logger)
	if err != nil {
		sugar.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			sugar.Warnw("Failed to close store", "error", err)
		}
	}()

	// Rate limiter: shared through Redis when configured
	limiter, closeLimiter, err := newLimiter(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("Failed to connect to redis: %v", err)
	}
	defer closeLimiter()

	// Initialize services
	scope, err := services.ParseStudentActionScope(cfg.StudentActionScope)
	if err != nil {
		sugar.Fatalf("Invalid STUDENT_ACTION_SCOPE: %v", err)
	}
	policy, err := services.NewPolicy(scope)
	if err != nil {
		sugar.Fatalf("Failed to load policy: %v", err)
	}

	activitySvc := services.NewActivityLogService(store, policy, sugar)
	userSvc := services.NewUserService(store, policy, activitySvc, sugar)
	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := services.NewAuthService(userSvc, store, tokens, activitySvc, sugar)
	complaintSvc := services.NewComplaintService(store, policy, activitySvc, sugar)
	exportSvc := services.NewExportService(complaintSvc, policy, sugar)

	// Start background escalation worker
	if after := cfg.EscalateAfter(); after > 0 {
		worker := services.NewEscalationWorker(complaintSvc, after, sugar)
		go worker.Start(ctx, time.Duration(cfg.EscalationInterval)*time.Minute)
	}

	// Build router
	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        limiter,
		Store:          store,
		Auth:           authSvc,
		Users:          userSvc,
		Complaints:     complaintSvc,
		Export:         exportSvc,
		Activity:       activitySvc,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Forced shutdown", "error", err)
	}

	sugar.Info("Server stopped")
}

// newLimiter picks the in-process limiter, or the Redis one when REDIS_URL
// is set. The returned func releases the Redis client.
func newLimiter(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (middleware.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return middleware.NewMemoryLimiter(cfg.RateLimitRPM, time.Minute), func() {}, nil
	}

	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Rate limiting backed by redis")

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warnw("Failed to close redis client", "error", err)
		}
	}
	return middleware.NewRedisLimiter(rdb, cfg.RateLimitRPM, time.Minute), closeFn, nil
}
