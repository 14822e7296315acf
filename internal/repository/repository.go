// Package repository defines the storage contracts for users, complaints,
// activity logs and id sequences, with PostgreSQL, MongoDB and in-memory
// implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hostelcare/complaint-server/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (email, external id) already exists.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStatusMismatch is returned by AppendTimeline when the complaint is no
	// longer in the expected status.
	ErrStatusMismatch = errors.New("complaint status changed")
)

// Sequence names used for external id allocation
const (
	SeqComplaint = "complaint"
)

// UserSequence returns the sequence name for a role's external ids
func UserSequence(role models.Role) string {
	return string(role)
}

// ComplaintIDOffset is added to the complaint sequence value: the first complaint is C-1001.
const ComplaintIDOffset = 1000

// FormatComplaintID renders a complaint sequence number as an external id
func FormatComplaintID(seq int64) string {
	return fmt.Sprintf("C-%d", ComplaintIDOffset+seq)
}

// FormatUserID renders a user sequence number as an external id
func FormatUserID(role models.Role, seq int64) string {
	return fmt.Sprintf("%s%d", role.IDPrefix(), seq)
}

// UserRepository persists accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// ListUsers returns all users, or only those of role when it is non-empty.
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	// DeleteUser reports whether a user was removed.
	DeleteUser(ctx context.Context, externalID string) (bool, error)
}

// ComplaintRepository persists complaints
type ComplaintRepository interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	// ListComplaints returns matches newest first.
	ListComplaints(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	// AppendTimeline sets status to entry.Status and appends entry in one
	// update, but only while the stored status equals expected.
	AppendTimeline(ctx context.Context, id string, expected models.Status, entry models.TimelineEntry) (*models.Complaint, error)
	IncrementUpvotes(ctx context.Context, id string) (*models.Complaint, error)
}

// ActivityRepository persists the activity log
type ActivityRepository interface {
	LogActivity(ctx context.Context, entry *models.ActivityLog) error
	RecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// Sequencer hands out monotonically increasing values per name, atomically.
type Sequencer interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

// Store is the full storage backend
type Store interface {
	UserRepository
	ComplaintRepository
	ActivityRepository
	Sequencer
	Ping(ctx context.Context) error
	Name() string
	Close(ctx context.Context) error
}

// matches applies a filter in Go; used by the in-memory backend.
func matches(c *models.Complaint, f models.ComplaintFilter) bool {
	if f.StudentID != "" && c.StudentID != f.StudentID {
		return false
	}
	if f.Block != "" && c.Block != f.Block {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Priority != "" && c.Priority != f.Priority {
		return false
	}
	if f.DateBefore != "" && c.Date >= f.DateBefore {
		return false
	}
	if len(f.Status) > 0 {
		for _, s := range f.Status {
			if c.Status == s {
				return true
			}
		}
		return false
	}
	return true
}
