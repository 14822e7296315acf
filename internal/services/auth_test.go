package services

import (
	"context"
	"testing"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_Success(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	s1 := env.student(t, "student@hostel.com", "A", "101")
	env.warden(t, "warden@hostel.com", "A")

	resp, err := env.auth.Authenticate(ctx, "Student@Hostel.com", "secret123", "student")
	require.NoError(t, err)
	assert.Equal(t, s1.ExternalID, resp.User.ExternalID)
	assert.NotEmpty(t, resp.Token)

	claims, err := env.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, s1.ID, claims.UserID)
	assert.Equal(t, "s1", claims.ExternalID)

	resp, err = env.auth.Authenticate(ctx, "warden@hostel.com", "secret123", "warden")
	require.NoError(t, err)
	claims, err = env.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleWarden, claims.Role)
}

func TestAuthenticate_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	env.student(t, "student@hostel.com", "A", "101")

	tests := map[string]struct{ email, password, role string }{
		"unknown email":  {"nobody@hostel.com", "secret123", "student"},
		"wrong password": {"student@hostel.com", "wrong-pass", "student"},
		"wrong role":     {"student@hostel.com", "secret123", "admin"},
	}
	var messages []string
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.Authenticate(context.Background(), tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			messages = append(messages, err.Error())
		})
	}
	for _, m := range messages {
		assert.Equal(t, messages[0], m, "failure messages must not reveal which field was wrong")
	}
}

func TestAuthenticate_RequiresAllFields(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	_, err := env.auth.Authenticate(context.Background(), "student@hostel.com", "", "student")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticate_BlockedAccount(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	admin := env.admin(t)
	s1 := env.student(t, "student@hostel.com", "A", "101")

	_, err := env.users.ToggleStatus(ctx, admin, s1.ExternalID)
	require.NoError(t, err)

	_, err = env.auth.Authenticate(ctx, "student@hostel.com", "secret123", "student")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestResolveCurrentUser(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	admin := env.admin(t)
	env.student(t, "student@hostel.com", "A", "101")

	resp, err := env.auth.Authenticate(ctx, "student@hostel.com", "secret123", "student")
	require.NoError(t, err)

	u, err := env.auth.ResolveCurrentUser(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "s1", u.ExternalID)

	_, err = env.auth.ResolveCurrentUser(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Blocking takes effect on the very next request.
	_, err = env.users.ToggleStatus(ctx, admin, "s1")
	require.NoError(t, err)
	_, err = env.auth.ResolveCurrentUser(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// A deleted identity is NotFound.
	require.NoError(t, env.users.Delete(ctx, admin, "s1"))
	_, err = env.auth.ResolveCurrentUser(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()

	reg := &models.Registration{
		Name: "John Student", Email: "john@hostel.com", Password: "secret123",
		Room: "101", Block: "A", Phone: "+91 98765 43210",
	}
	u, err := env.auth.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, "s1", u.ExternalID)
	assert.Equal(t, models.RoleStudent, u.Role)
	assert.Equal(t, models.UserActive, u.Status)
	require.NotNil(t, u.StudentProfile)
	assert.Equal(t, "101", u.Room)
	assert.Equal(t, models.DefaultCurrentStatus, u.CurrentStatus)
	assert.NotEqual(t, "secret123", u.PasswordHash)

	second, err := env.auth.Register(ctx, &models.Registration{
		Name: "Jane", Email: "jane@hostel.com", Password: "secret123", Room: "102", Block: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "s2", second.ExternalID)

	_, err = env.auth.Register(ctx, reg)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.auth.Register(ctx, &models.Registration{Name: "x", Email: "x@hostel.com", Password: "123", Room: "1", Block: "A"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.auth.Register(ctx, &models.Registration{Name: "x", Email: "not-an-email", Password: "secret123", Room: "1", Block: "A"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	s1 := env.student(t, "student@hostel.com", "A", "101")
	w1 := env.warden(t, "warden@hostel.com", "A")

	phone, away := "+91 11111 22222", "On Leave"
	u, err := env.auth.UpdateProfile(ctx, s1, &models.ProfileUpdate{Phone: &phone, CurrentStatus: &away})
	require.NoError(t, err)
	assert.Equal(t, phone, u.Phone)
	assert.Equal(t, away, u.CurrentStatus)

	stored, err := env.store.GetUserByExternalID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, away, stored.CurrentStatus)

	onDuty := true
	_, err = env.auth.UpdateProfile(ctx, s1, &models.ProfileUpdate{IsOnDuty: &onDuty})
	assert.ErrorIs(t, err, ErrValidation)

	u, err = env.auth.UpdateProfile(ctx, w1, &models.ProfileUpdate{IsOnDuty: &onDuty})
	require.NoError(t, err)
	assert.True(t, u.IsOnDuty)
	assert.NotEmpty(t, u.LastActive)

	_, err = env.auth.UpdateProfile(ctx, w1, &models.ProfileUpdate{Phone: &phone})
	assert.ErrorIs(t, err, ErrValidation)

	blank := "  "
	_, err = env.auth.UpdateProfile(ctx, s1, &models.ProfileUpdate{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)
}
