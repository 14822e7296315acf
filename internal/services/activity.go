package services

import (
	"context"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"go.uber.org/zap"
)

// DefaultActivityLimit caps the recent activity listing
const DefaultActivityLimit = 100

// SystemActor performs automatic actions such as stale-complaint escalation
var SystemActor = &models.User{ExternalID: "SYSTEM", Name: "System", Role: models.RoleAdmin}

// ActivityLogService handles activity log business logic
type ActivityLogService struct {
	repo   repository.ActivityRepository
	policy *Policy
	logger *zap.SugaredLogger
}

// NewActivityLogService creates a new activity log service
func NewActivityLogService(repo repository.ActivityRepository, policy *Policy, logger *zap.SugaredLogger) *ActivityLogService {
	return &ActivityLogService{repo: repo, policy: policy, logger: logger}
}

// Record logs an authority action. A failure is logged and swallowed so
// that the audited operation itself still succeeds.
func (s *ActivityLogService) Record(ctx context.Context, actor *models.User, action, target, description string) {
	entry := &models.ActivityLog{
		ActorID:     actor.ExternalID,
		ActorRole:   string(actor.Role),
		Action:      action,
		Target:      target,
		Description: description,
	}
	if actor == SystemActor {
		entry.ActorRole = "system"
	}

	if err := s.repo.LogActivity(ctx, entry); err != nil {
		s.logger.Errorw("Failed to record activity", "action", action, "target", target, "error", err)
		return
	}

	s.logger.Infow("Activity logged",
		"actor", entry.ActorID,
		"action", action,
		"target", target,
	)
}

// Recent returns the newest activity entries across all actors
func (s *ActivityLogService) Recent(ctx context.Context, actor *models.User, limit int) ([]models.ActivityLog, error) {
	if err := s.policy.Authorize(actor, ObjActivity, ActList); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultActivityLimit {
		limit = DefaultActivityLimit
	}
	return s.repo.RecentActivity(ctx, limit)
}
