package services

import (
	"context"
	"testing"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAdministration_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	s1 := env.student(t, "student@hostel.com", "A", "101")
	w1 := env.warden(t, "warden@hostel.com", "A")

	for _, actor := range []*models.User{s1, w1} {
		_, err := env.users.List(ctx, actor, "")
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = env.users.ToggleStatus(ctx, actor, "s1")
		assert.ErrorIs(t, err, ErrForbidden)

		assert.ErrorIs(t, env.users.Delete(ctx, actor, "s1"), ErrForbidden)

		_, err = env.users.Provision(ctx, actor, &models.Registration{Name: "x", Email: "x@hostel.com", Password: "secret123", Role: "admin"})
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = env.activity.Recent(ctx, actor, 10)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	stored, err := env.store.GetUserByExternalID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, stored.Status)
}

func TestUserList(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	admin := env.admin(t)
	env.student(t, "student@hostel.com", "A", "101")
	env.student(t, "other@hostel.com", "B", "201")
	env.warden(t, "warden@hostel.com", "A")

	all, err := env.users.List(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	students, err := env.users.List(ctx, admin, "student")
	require.NoError(t, err)
	require.Len(t, students, 2)
	for _, u := range students {
		assert.Equal(t, models.RoleStudent, u.Role)
		assert.NotEmpty(t, u.PasswordHash, "hashes are stripped at the JSON layer")
	}

	_, err = env.users.List(ctx, admin, "janitor")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestToggleStatus(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	admin := env.admin(t)
	env.student(t, "student@hostel.com", "A", "101")

	u, err := env.users.ToggleStatus(ctx, admin, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.UserBlocked, u.Status)

	u, err = env.users.ToggleStatus(ctx, admin, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, u.Status)

	_, err = env.users.ToggleStatus(ctx, admin, "s404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.users.ToggleStatus(ctx, admin, admin.ExternalID)
	assert.ErrorIs(t, err, ErrValidation)

	recent, err := env.activity.Recent(ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.ActionUserStatus, recent[0].Action)
	assert.Equal(t, "Account set to Active", recent[0].Description)
	assert.Equal(t, "a1", recent[0].ActorID)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	admin := env.admin(t)
	env.student(t, "student@hostel.com", "A", "101")

	require.NoError(t, env.users.Delete(ctx, admin, "s1"))
	_, err := env.store.GetUserByExternalID(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, env.users.Delete(ctx, admin, "s1"), "deleting twice is not an error")
	assert.ErrorIs(t, env.users.Delete(ctx, admin, admin.ExternalID), ErrValidation)

	recent, err := env.activity.Recent(ctx, admin, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "only the real deletion is logged")
}

func TestProvision(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	admin := env.admin(t)

	w, err := env.users.Provision(ctx, admin, &models.Registration{
		Name: "Mr. Sharma", Email: "sharma@hostel.com", Password: "secret123", Role: "warden", Block: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", w.ExternalID)
	assert.Equal(t, "B", w.Block)
	require.NotNil(t, w.WardenProfile)
	assert.Nil(t, w.StudentProfile)

	a, err := env.users.Provision(ctx, admin, &models.Registration{
		Name: "Second Admin", Email: "admin2@hostel.com", Password: "secret123", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "a2", a.ExternalID)
	assert.Nil(t, a.WardenProfile)
	assert.Nil(t, a.StudentProfile)

	_, err = env.users.Provision(ctx, admin, &models.Registration{
		Name: "No Block", Email: "nb@hostel.com", Password: "secret123", Role: "warden",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.Provision(ctx, admin, &models.Registration{
		Name: "x", Email: "x@hostel.com", Password: "secret123", Role: "superuser",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.Provision(ctx, admin, &models.Registration{
		Name: "Dup", Email: "SHARMA@hostel.com", Password: "secret123", Role: "warden", Block: "C",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestEnsureAccount_Idempotent(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	reg := &models.Registration{Name: "John", Email: "student@hostel.com", Password: "secret123", Room: "101", Block: "A"}

	first, created, err := env.users.EnsureAccount(ctx, models.RoleStudent, reg)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := env.users.EnsureAccount(ctx, models.RoleStudent, reg)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ExternalID, again.ExternalID)
}
