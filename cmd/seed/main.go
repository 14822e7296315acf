// Command seed loads the demo accounts and complaints into the configured
// store. Running it twice is harmless: existing accounts are kept and
// complaints are only added to an empty store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hostelcare/complaint-server/internal/config"
	"github.com/hostelcare/complaint-server/internal/database"
	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"github.com/hostelcare/complaint-server/internal/services"
	"go.uber.org/zap"
)

type seedAccount struct {
	role models.Role
	reg  models.Registration
}

func demoAccounts(password string) []seedAccount {
	return []seedAccount{
		{models.RoleStudent, models.Registration{
			Name: "John Student", Email: "student@hostel.com", Password: password,
			Room: "101", Block: "A", Phone: "+91 98765 43210", ParentPhone: "+91 87654 32109",
			Avatar: "https://ui-avatars.com/api/?name=John+Student",
		}},
		{models.RoleStudent, models.Registration{
			Name: "Mike Ross", Email: "mike@hostel.com", Password: password,
			Room: "102", Block: "A",
			Avatar: "https://ui-avatars.com/api/?name=Mike+Ross",
		}},
		{models.RoleWarden, models.Registration{
			Name: "Mr. Ramesh (Block A)", Email: "warden@hostel.com", Password: password, Block: "A",
			Avatar: "https://ui-avatars.com/api/?name=Mr+Warden",
		}},
		{models.RoleAdmin, models.Registration{
			Name: "Admin User", Email: "admin@hostel.com", Password: password,
			Avatar: "https://ui-avatars.com/api/?name=Admin+User",
		}},
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()
	store, err := database.OpenStore(ctx, cfg, logger)
	if err != nil {
		sugar.Fatalf("Failed to open store: %v", err)
	}

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "hostel123"
	}

	seedErr := seed(ctx, store, password, sugar)
	closeStore(store, sugar)
	if seedErr != nil {
		sugar.Fatalf("Seeding failed: %v", seedErr)
	}
	sugar.Info("Database seeded successfully")
}

// closeStore releases the store with a bounded wait, logging any failure
func closeStore(store repository.Store, logger *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.Warnw("Failed to close store", "error", err)
	}
}

func seed(ctx context.Context, store repository.Store, password string, logger *zap.SugaredLogger) error {
	policy, err := services.NewPolicy(services.ScopeOwn)
	if err != nil {
		return err
	}
	activity := services.NewActivityLogService(store, policy, logger)
	users := services.NewUserService(store, policy, activity, logger)
	complaints := services.NewComplaintService(store, policy, activity, logger)

	accounts := make(map[string]*models.User)
	for _, a := range demoAccounts(password) {
		reg := a.reg
		u, created, err := users.EnsureAccount(ctx, a.role, &reg)
		if err != nil {
			return fmt.Errorf("account %s: %w", reg.Email, err)
		}
		if !created {
			logger.Infow("Account already present", "email", u.Email, "id", u.ExternalID)
		}
		accounts[u.Email] = u
	}

	warden := accounts["warden@hostel.com"]
	if warden.WardenProfile != nil && !warden.IsOnDuty {
		warden.IsOnDuty = true
		if err := store.UpdateUser(ctx, warden); err != nil {
			return fmt.Errorf("warden on duty: %w", err)
		}
	}

	existing, err := complaints.List(ctx, accounts["admin@hostel.com"], services.ListQuery{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Infow("Complaints already present, skipping", "count", len(existing))
		return nil
	}

	john, mike := accounts["student@hostel.com"], accounts["mike@hostel.com"]

	tap, err := complaints.Create(ctx, john, &models.ComplaintSubmission{
		Title:       "Leaking Tap in Room 101",
		Description: "The bathroom tap is leaking continuously.",
		Category:    "Plumbing",
		Priority:    "High",
	})
	if err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if _, err := complaints.Upvote(ctx, john, tap.ID); err != nil {
			return err
		}
	}

	fan, err := complaints.Create(ctx, mike, &models.ComplaintSubmission{
		Title:       "Broken Fan Regulator",
		Description: "Fan regulator is loose and not working.",
		Category:    "Electrical",
		Priority:    "Medium",
	})
	if err != nil {
		return err
	}
	if _, err := complaints.TransitionStatus(ctx, warden, fan.ID, string(models.StatusApproved), "Approved by Warden"); err != nil {
		return err
	}
	if _, err := complaints.TransitionStatus(ctx, warden, fan.ID, string(models.StatusInProgress), "Electrician assigned"); err != nil {
		return err
	}

	logger.Infow("Seeded complaints", "ids", []string{tap.ID, fan.ID})
	return nil
}
