package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-server/internal/models"
)

// MemoryStore keeps everything in process memory. It backs STORE_DRIVER=memory
// for local demos and the service/handler tests. All reads return copies.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]*models.User // by internal id
	complaints map[string]*models.Complaint
	activity   []models.ActivityLog
	sequences  map[string]int64
	now        func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*models.User),
		complaints: make(map[string]*models.Complaint),
		sequences:  make(map[string]int64),
		now:        time.Now,
	}
}

func (s *MemoryStore) Name() string { return "memory" }
func (s *MemoryStore) Ping(_ context.Context) error { return nil }
func (s *MemoryStore) Close(_ context.Context) error { return nil }

// NextSequence increments and returns the named counter
func (s *MemoryStore) NextSequence(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[name]++
	return s.sequences[name], nil
}

// CreateUser stores a new user, assigning an internal id when absent
func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.ExternalID == user.ExternalID {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.ExternalID == externalID })
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryStore) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// ListUsers returns users ordered by creation time
func (s *MemoryStore) ListUsers(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if role != "" && u.Role != role {
			continue
		}
		users = append(users, *u.Clone())
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ExternalID < users[j].ExternalID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = s.now()
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, externalID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.ExternalID == externalID {
			delete(s.users, id)
			return true, nil
		}
	}
	return false, nil
}

// CreateComplaint stores a new complaint; the id must already be allocated
func (s *MemoryStore) CreateComplaint(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.complaints[c.ID]; exists {
		return ErrDuplicate
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.complaints[c.ID] = cloneComplaint(c)
	return nil
}

func (s *MemoryStore) GetComplaint(_ context.Context, id string) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.complaints[id]; ok {
		return cloneComplaint(c), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListComplaints(_ context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Complaint, 0)
	for _, c := range s.complaints {
		if matches(c, filter) {
			out = append(out, *cloneComplaint(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) AppendTimeline(_ context.Context, id string, expected models.Status, entry models.TimelineEntry) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.Status != expected {
		return nil, ErrStatusMismatch
	}
	c.Status = entry.Status
	c.Timeline = append(c.Timeline, entry)
	c.UpdatedAt = s.now()
	return cloneComplaint(c), nil
}

func (s *MemoryStore) IncrementUpvotes(_ context.Context, id string) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Upvotes++
	c.UpdatedAt = s.now()
	return cloneComplaint(c), nil
}

func (s *MemoryStore) LogActivity(_ context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.activity = append(s.activity, *entry)
	return nil
}

// RecentActivity returns up to limit entries, newest first
func (s *MemoryStore) RecentActivity(_ context.Context, limit int) ([]models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ActivityLog, 0)
	for i := len(s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.activity[i])
	}
	return out, nil
}

func cloneComplaint(c *models.Complaint) *models.Complaint {
	cp := *c
	cp.Images = append([]string{}, c.Images...)
	cp.Videos = append([]string{}, c.Videos...)
	cp.Timeline = append([]models.TimelineEntry{}, c.Timeline...)
	return &cp
}
