package models

import (
	"strings"
	"time"
)

// Role is the closed set of account kinds
type Role string

const (
	RoleStudent Role = "student"
	RoleWarden  Role = "warden"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a role string
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleStudent, RoleWarden, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// IDPrefix is the leading letter of external ids for the role (s1, w1, a1)
func (r Role) IDPrefix() string {
	return string(r)[:1]
}

// Account status values, toggled by admins
const (
	UserActive  = "Active"
	UserBlocked = "Blocked"
)

// DefaultCurrentStatus is the presence flag given to new students
const DefaultCurrentStatus = "In Hostel"

// StudentProfile holds the student-only attributes
type StudentProfile struct {
	Room          string `json:"room"`
	Phone         string `json:"phone,omitempty"`
	ParentPhone   string `json:"parentPhone,omitempty"`
	CurrentStatus string `json:"currentStatus,omitempty"`
}

// WardenProfile holds the warden-only attributes
type WardenProfile struct {
	IsOnDuty   bool   `json:"isOnDuty"`
	LastActive string `json:"lastActive,omitempty"`
}

// User is an account of any role. Exactly one of the profile pointers is
// set for students and wardens; admins carry neither.
type User struct {
	ID           string    `json:"-"`
	ExternalID   string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       string    `json:"status"`
	Avatar       string    `json:"avatar,omitempty"`
	Block        string    `json:"block,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	*StudentProfile
	*WardenProfile
}

// IsBlocked reports whether an admin has blocked the account
func (u *User) IsBlocked() bool {
	return u.Status == UserBlocked
}

// Clone returns a deep copy so callers cannot alias stored profiles
func (u *User) Clone() *User {
	c := *u
	if u.StudentProfile != nil {
		sp := *u.StudentProfile
		c.StudentProfile = &sp
	}
	if u.WardenProfile != nil {
		wp := *u.WardenProfile
		c.WardenProfile = &wp
	}
	return &c
}

// NormalizeEmail is the canonical form used for uniqueness and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginResponse is returned on successful authentication
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Registration is the body of POST /auth/register (students) and
// POST /users (admin provisioning, which also sets Role).
type Registration struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
	Room        string `json:"room,omitempty"`
	Block       string `json:"block,omitempty"`
	Phone       string `json:"phone,omitempty"`
	ParentPhone string `json:"parentPhone,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// ProfileUpdate is the body of PATCH /auth/me. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name          *string `json:"name"`
	Avatar        *string `json:"avatar"`
	Phone         *string `json:"phone"`
	ParentPhone   *string `json:"parentPhone"`
	CurrentStatus *string `json:"currentStatus"`
	IsOnDuty      *bool   `json:"isOnDuty"`
}
