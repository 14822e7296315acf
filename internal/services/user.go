package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to every new account
const MinPasswordLength = 6

// userStore is what account management needs from storage
type userStore interface {
	repository.UserRepository
	repository.Sequencer
}

// UserService handles account administration
type UserService struct {
	store    userStore
	policy   *Policy
	activity *ActivityLogService
	logger   *zap.SugaredLogger
	hashCost int
}

// NewUserService creates a new user service
func NewUserService(store userStore, policy *Policy, activity *ActivityLogService, logger *zap.SugaredLogger) *UserService {
	return &UserService{store: store, policy: policy, activity: activity, logger: logger, hashCost: bcrypt.DefaultCost}
}

// List returns sanitized users, optionally of a single role
func (s *UserService) List(ctx context.Context, actor *models.User, role string) ([]models.User, error) {
	if err := s.policy.Authorize(actor, ObjUser, ActList); err != nil {
		return nil, err
	}
	var r models.Role
	if role != "" {
		var ok bool
		if r, ok = models.ParseRole(role); !ok {
			return nil, validationErr("unknown role %q", role)
		}
	}
	return s.store.ListUsers(ctx, r)
}

// Provision creates an account of any role on behalf of an admin
func (s *UserService) Provision(ctx context.Context, actor *models.User, reg *models.Registration) (*models.User, error) {
	if err := s.policy.Authorize(actor, ObjUser, ActProvision); err != nil {
		return nil, err
	}
	role, ok := models.ParseRole(reg.Role)
	if !ok {
		return nil, validationErr("role must be one of student, warden, admin")
	}

	u, err := s.createAccount(ctx, role, reg)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, models.ActionUserProvision, u.ExternalID,
		fmt.Sprintf("Provisioned %s account for %s", role, u.Email))
	return u, nil
}

// EnsureAccount creates the account unless the email is already registered.
// It reports whether a new account was created. Used by the seeder.
func (s *UserService) EnsureAccount(ctx context.Context, role models.Role, reg *models.Registration) (*models.User, bool, error) {
	existing, err := s.store.GetUserByEmail(ctx, models.NormalizeEmail(reg.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	u, err := s.createAccount(ctx, role, reg)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// ToggleStatus flips an account between Active and Blocked
func (s *UserService) ToggleStatus(ctx context.Context, actor *models.User, externalID string) (*models.User, error) {
	if err := s.policy.Authorize(actor, ObjUser, ActStatus); err != nil {
		return nil, err
	}
	if externalID == actor.ExternalID {
		return nil, validationErr("you cannot block your own account")
	}

	u, err := s.store.GetUserByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", externalID, ErrNotFound)
		}
		return nil, err
	}

	if u.IsBlocked() {
		u.Status = models.UserActive
	} else {
		u.Status = models.UserBlocked
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, models.ActionUserStatus, u.ExternalID, "Account set to "+u.Status)
	return u, nil
}

// Delete removes an account. Deleting an unknown id is not an error.
func (s *UserService) Delete(ctx context.Context, actor *models.User, externalID string) error {
	if err := s.policy.Authorize(actor, ObjUser, ActDelete); err != nil {
		return err
	}
	if externalID == actor.ExternalID {
		return validationErr("you cannot delete your own account")
	}

	deleted, err := s.store.DeleteUser(ctx, externalID)
	if err != nil {
		return err
	}
	if deleted {
		s.activity.Record(ctx, actor, models.ActionUserDelete, externalID, "Account deleted")
	}
	return nil
}

// createAccount validates the registration, hashes the password and
// allocates the role's next external id.
func (s *UserService) createAccount(ctx context.Context, role models.Role, reg *models.Registration) (*models.User, error) {
	name := strings.TrimSpace(reg.Name)
	email := models.NormalizeEmail(reg.Email)
	switch {
	case name == "":
		return nil, validationErr("name is required")
	case email == "":
		return nil, validationErr("email is required")
	case len(reg.Password) < MinPasswordLength:
		return nil, validationErr("password must be at least %d characters", MinPasswordLength)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationErr("email is not valid")
	}
	if role == models.RoleStudent && (strings.TrimSpace(reg.Room) == "" || strings.TrimSpace(reg.Block) == "") {
		return nil, validationErr("room and block are required for students")
	}
	if role == models.RoleWarden && strings.TrimSpace(reg.Block) == "" {
		return nil, validationErr("block is required for wardens")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	seq, err := s.store.NextSequence(ctx, repository.UserSequence(role))
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ExternalID:   repository.FormatUserID(role, seq),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       models.UserActive,
		Avatar:       reg.Avatar,
		Block:        strings.TrimSpace(reg.Block),
	}
	switch role {
	case models.RoleStudent:
		u.StudentProfile = &models.StudentProfile{
			Room:          strings.TrimSpace(reg.Room),
			Phone:         reg.Phone,
			ParentPhone:   reg.ParentPhone,
			CurrentStatus: models.DefaultCurrentStatus,
		}
	case models.RoleWarden:
		u.WardenProfile = &models.WardenProfile{}
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already exists", ErrConflict)
		}
		return nil, err
	}

	s.logger.Infow("Account created", "id", u.ExternalID, "role", role)
	return u, nil
}
