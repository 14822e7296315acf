package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown so that the
// response time does not reveal whether an account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// AuthService verifies credentials and manages the caller's own account
type AuthService struct {
	users    *UserService
	store    repository.UserRepository
	tokens   *TokenManager
	activity *ActivityLogService
	logger   *zap.SugaredLogger
}

// NewAuthService creates a new auth service
func NewAuthService(users *UserService, store repository.UserRepository, tokens *TokenManager, activity *ActivityLogService, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{users: users, store: store, tokens: tokens, activity: activity, logger: logger}
}

// Authenticate checks an (email, password, role) triple and issues a token.
// Unknown email, wrong role and wrong password all yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password, role string) (*models.LoginResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" || role == "" {
		return nil, validationErr("email, password and role are required")
	}

	u, err := s.store.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if string(u.Role) != role {
		return nil, ErrInvalidCredentials
	}
	if u.IsBlocked() {
		return nil, fmt.Errorf("%w: account is blocked", ErrForbidden)
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("User logged in", "id", u.ExternalID, "role", u.Role)
	return &models.LoginResponse{User: u, Token: token}, nil
}

// ResolveCurrentUser validates a bearer token and loads its identity.
// Blocked accounts are rejected even while their token is unexpired.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	if u.IsBlocked() {
		return nil, fmt.Errorf("%w: account is blocked", ErrUnauthenticated)
	}
	return u, nil
}

// Register is student self-signup
func (s *AuthService) Register(ctx context.Context, reg *models.Registration) (*models.User, error) {
	u, err := s.users.createAccount(ctx, models.RoleStudent, reg)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, u, models.ActionUserRegister, u.ExternalID, "Student self-registration")
	return u, nil
}

// UpdateProfile applies a self-service edit. Fields that do not belong to
// the caller's role are rejected.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *models.User, patch *models.ProfileUpdate) (*models.User, error) {
	u := actor.Clone()

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationErr("name cannot be empty")
		}
		u.Name = name
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}

	studentFields := patch.Phone != nil || patch.ParentPhone != nil || patch.CurrentStatus != nil
	if studentFields {
		if u.StudentProfile == nil {
			return nil, validationErr("phone, parentPhone and currentStatus are student fields")
		}
		if patch.Phone != nil {
			u.Phone = *patch.Phone
		}
		if patch.ParentPhone != nil {
			u.ParentPhone = *patch.ParentPhone
		}
		if patch.CurrentStatus != nil {
			u.CurrentStatus = *patch.CurrentStatus
		}
	}

	if patch.IsOnDuty != nil {
		if u.WardenProfile == nil {
			return nil, validationErr("isOnDuty is a warden field")
		}
		u.IsOnDuty = *patch.IsOnDuty
		u.LastActive = time.Now().UTC().Format(time.RFC3339)
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}
