package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const userColumns = `id, external_id, name, email, password_hash, role, status, avatar, block,
	room, phone, parent_phone, current_status, is_on_duty, last_active, created_at, updated_at`

const complaintColumns = `id, title, description, category, priority, status, date, student_id,
	student_name, room, block, upvotes, images, videos, timeline, created_at, updated_at`

// PostgresStore implements Store on PostgreSQL through a pgx pool.
// The schema lives in internal/database/migrations.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore wraps an open pool
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close(_ context.Context) error {
	s.db.Close()
	return nil
}

// NextSequence upserts the counter row and returns its new value in one statement
func (s *PostgresStore) NextSequence(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`
	var value int64
	if err := s.db.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", name, err)
	}
	return value, nil
}

// CreateUser inserts a user
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	var sp models.StudentProfile
	if u.StudentProfile != nil {
		sp = *u.StudentProfile
	}
	var wp models.WardenProfile
	if u.WardenProfile != nil {
		wp = *u.WardenProfile
	}

	query := `
		INSERT INTO users (id, external_id, name, email, password_hash, role, status, avatar, block,
			room, phone, parent_phone, current_status, is_on_duty, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		u.ID, u.ExternalID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Status, u.Avatar, u.Block,
		sp.Room, sp.Phone, sp.ParentPhone, sp.CurrentStatus, wp.IsOnDuty, wp.LastActive,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.getUser(ctx, "id = $1", id)
}

func (s *PostgresStore) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.getUser(ctx, "external_id = $1", externalID)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = $1", email)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// ListUsers returns users ordered by creation time
func (s *PostgresStore) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ($1 = '' OR role = $1) ORDER BY created_at, external_id`

	rows, err := s.db.Query(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser writes the mutable columns of a user
func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) error {
	var sp models.StudentProfile
	if u.StudentProfile != nil {
		sp = *u.StudentProfile
	}
	var wp models.WardenProfile
	if u.WardenProfile != nil {
		wp = *u.WardenProfile
	}

	query := `
		UPDATE users SET name = $2, status = $3, avatar = $4, block = $5, room = $6, phone = $7,
			parent_phone = $8, current_status = $9, is_on_duty = $10, last_active = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.db.QueryRow(ctx, query,
		u.ID, u.Name, u.Status, u.Avatar, u.Block, sp.Room, sp.Phone,
		sp.ParentPhone, sp.CurrentStatus, wp.IsOnDuty, wp.LastActive,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, externalID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CreateComplaint inserts a complaint whose id is already allocated
func (s *PostgresStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (id, title, description, category, priority, status, date, student_id,
			student_name, room, block, upvotes, images, videos, timeline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		c.ID, c.Title, c.Description, c.Category, string(c.Priority), string(c.Status), c.Date, c.StudentID,
		c.StudentName, c.Room, c.Block, c.Upvotes, nonNil(c.Images), nonNil(c.Videos), c.Timeline,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	c, err := scanComplaint(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select complaint: %w", err)
	}
	return c, nil
}

// ListComplaints returns filtered complaints newest first
func (s *PostgresStore) ListComplaints(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.StudentID != "" {
		add("student_id = $%d", f.StudentID)
	}
	if f.Block != "" {
		add("block = $%d", f.Block)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Priority != "" {
		add("priority = $%d", string(f.Priority))
	}
	if f.DateBefore != "" {
		add("date < $%d", f.DateBefore)
	}
	if len(f.Status) > 0 {
		statuses := make([]string, len(f.Status))
		for i, st := range f.Status {
			statuses[i] = string(st)
		}
		add("status = ANY($%d)", statuses)
	}

	query := `SELECT ` + complaintColumns + ` FROM complaints`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

// AppendTimeline is a compare-and-set on status: the update only matches
// while the row still carries the expected status.
func (s *PostgresStore) AppendTimeline(ctx context.Context, id string, expected models.Status, entry models.TimelineEntry) (*models.Complaint, error) {
	query := `
		UPDATE complaints
		SET status = $2, timeline = timeline || $3::jsonb, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + complaintColumns

	c, err := scanComplaint(s.db.QueryRow(ctx, query,
		id, string(entry.Status), []models.TimelineEntry{entry}, string(expected)))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("append timeline: %w", err)
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM complaints WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check complaint: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrStatusMismatch
}

func (s *PostgresStore) IncrementUpvotes(ctx context.Context, id string) (*models.Complaint, error) {
	query := `UPDATE complaints SET upvotes = upvotes + 1, updated_at = NOW() WHERE id = $1 RETURNING ` + complaintColumns
	c, err := scanComplaint(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("increment upvotes: %w", err)
	}
	return c, nil
}

// LogActivity records an authority action
func (s *PostgresStore) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO activity_logs (id, actor_id, actor_role, action, target, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		entry.ID, entry.ActorID, entry.ActorRole, entry.Action, entry.Target, entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// RecentActivity returns recent activity logs across all actors
func (s *PostgresStore) RecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	query := `
		SELECT id, actor_id, actor_role, action, target, description, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	logs := make([]models.ActivityLog, 0)
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.ActorID, &l.ActorRole, &l.Action, &l.Target, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		role string
		sp   models.StudentProfile
		wp   models.WardenProfile
	)
	err := row.Scan(&u.ID, &u.ExternalID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Status, &u.Avatar, &u.Block,
		&sp.Room, &sp.Phone, &sp.ParentPhone, &sp.CurrentStatus, &wp.IsOnDuty, &wp.LastActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	attachProfile(&u, sp, wp)
	return &u, nil
}

// attachProfile sets the role's profile from flat columns or fields
func attachProfile(u *models.User, sp models.StudentProfile, wp models.WardenProfile) {
	switch u.Role {
	case models.RoleStudent:
		u.StudentProfile = &sp
	case models.RoleWarden:
		u.WardenProfile = &wp
	}
}

func scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var (
		c                models.Complaint
		priority, status string
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &priority, &status, &c.Date, &c.StudentID,
		&c.StudentName, &c.Room, &c.Block, &c.Upvotes, &c.Images, &c.Videos, &c.Timeline, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Priority = models.Priority(priority)
	c.Status = models.Status(status)
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
