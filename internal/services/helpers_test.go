package services

import (
	"context"
	"testing"
	"time"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-for-unit-testing"

type testEnv struct {
	store      *repository.MemoryStore
	policy     *Policy
	activity   *ActivityLogService
	users      *UserService
	auth       *AuthService
	complaints *ComplaintService
	export     *ExportService
	tokens     *TokenManager
}

func newTestEnv(t *testing.T, scope StudentActionScope) *testEnv {
	t.Helper()
	logger := zap.NewNop().Sugar()
	store := repository.NewMemoryStore()

	policy, err := NewPolicy(scope)
	require.NoError(t, err)

	activity := NewActivityLogService(store, policy, logger)
	users := NewUserService(store, policy, activity, logger)
	users.hashCost = bcrypt.MinCost
	tokens := NewTokenManager(testSecret, 7*24*time.Hour)
	complaints := NewComplaintService(store, policy, activity, logger)

	return &testEnv{
		store:      store,
		policy:     policy,
		activity:   activity,
		users:      users,
		auth:       NewAuthService(users, store, tokens, activity, logger),
		complaints: complaints,
		export:     NewExportService(complaints, policy, logger),
		tokens:     tokens,
	}
}

func (e *testEnv) account(t *testing.T, role models.Role, email, block, room string) *models.User {
	t.Helper()
	u, created, err := e.users.EnsureAccount(context.Background(), role, &models.Registration{
		Name:     string(role) + " " + email,
		Email:    email,
		Password: "secret123",
		Block:    block,
		Room:     room,
	})
	require.NoError(t, err)
	require.True(t, created)
	return u
}

func (e *testEnv) student(t *testing.T, email, block, room string) *models.User {
	return e.account(t, models.RoleStudent, email, block, room)
}

func (e *testEnv) warden(t *testing.T, email, block string) *models.User {
	return e.account(t, models.RoleWarden, email, block, "")
}

func (e *testEnv) admin(t *testing.T) *models.User {
	return e.account(t, models.RoleAdmin, "admin@hostel.com", "", "")
}

func (e *testEnv) raise(t *testing.T, student *models.User, title string) *models.Complaint {
	t.Helper()
	c, err := e.complaints.Create(context.Background(), student, &models.ComplaintSubmission{
		Title:       title,
		Description: title + " needs fixing",
		Category:    "Plumbing",
		Priority:    "High",
	})
	require.NoError(t, err)
	return c
}
