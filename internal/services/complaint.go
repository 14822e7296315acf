// Package services contains business logic layers.
// Services are called by handlers and interact with the repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// maxIDAttempts bounds id allocation retries when an imported complaint
// already occupies the next sequence value.
const maxIDAttempts = 5

// complaintStore is what the complaint lifecycle needs from storage
type complaintStore interface {
	repository.ComplaintRepository
	repository.Sequencer
}

// ListQuery carries the optional listing filters a client may send
type ListQuery struct {
	Status   string
	Category string
	Priority string
	Block    string
}

// ComplaintService handles complaint business logic
type ComplaintService struct {
	store    complaintStore
	policy   *Policy
	activity *ActivityLogService
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewComplaintService creates a new complaint service
func NewComplaintService(store complaintStore, policy *Policy, activity *ActivityLogService, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{
		store:    store,
		policy:   policy,
		activity: activity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ComplaintService) today() string {
	return s.now().Format(dateLayout)
}

// Create raises a new complaint for the calling student
func (s *ComplaintService) Create(ctx context.Context, actor *models.User, req *models.ComplaintSubmission) (*models.Complaint, error) {
	if err := s.policy.Authorize(actor, ObjComplaint, ActCreate); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	category := strings.TrimSpace(req.Category)
	switch {
	case title == "":
		return nil, validationErr("title is required")
	case description == "":
		return nil, validationErr("description is required")
	case category == "":
		return nil, validationErr("category is required")
	}
	priority, ok := models.ParsePriority(req.Priority)
	if !ok {
		return nil, validationErr("priority must be Low, Medium or High")
	}

	today := s.today()
	c := &models.Complaint{
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      models.StatusPending,
		Date:        today,
		StudentID:   actor.ExternalID,
		StudentName: firstNonEmpty(actor.Name, req.StudentName),
		Block:       firstNonEmpty(actor.Block, req.Block),
		Images:      nonEmpty(req.Images),
		Videos:      nonEmpty(req.Videos),
		Timeline: []models.TimelineEntry{
			{Status: models.StatusSubmitted, Date: today, Note: SubmissionNote},
		},
	}
	if actor.StudentProfile != nil {
		c.Room = actor.Room
	}
	c.Room = firstNonEmpty(c.Room, req.Room)

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		var seq int64
		if seq, err = s.store.NextSequence(ctx, repository.SeqComplaint); err != nil {
			return nil, err
		}
		c.ID = repository.FormatComplaintID(seq)
		if err = s.store.CreateComplaint(ctx, c); !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.logger.Warnw("Complaint id already taken, allocating another", "id", c.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}

	s.activity.Record(ctx, actor, models.ActionComplaintCreate, c.ID, c.Title)
	s.logger.Infow("Complaint created",
		"id", c.ID,
		"student", c.StudentID,
		"category", c.Category,
		"priority", c.Priority,
	)
	return c, nil
}

// Get returns one complaint if it is inside the actor's scope
func (s *ComplaintService) Get(ctx context.Context, actor *models.User, id string) (*models.Complaint, error) {
	if err := s.policy.Authorize(actor, ObjComplaint, ActRead); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(actor, c) {
		return nil, notFound(id)
	}
	return c, nil
}

// List returns the complaints in the actor's scope, newest first
func (s *ComplaintService) List(ctx context.Context, actor *models.User, q ListQuery) ([]models.Complaint, error) {
	if err := s.policy.Authorize(actor, ObjComplaint, ActList); err != nil {
		return nil, err
	}

	filter := models.ComplaintFilter{Category: q.Category, Block: q.Block}
	if q.Status != "" {
		st, ok := models.ParseStatus(q.Status)
		if !ok {
			return nil, validationErr("unknown status %q", q.Status)
		}
		filter.Status = []models.Status{st}
	}
	if q.Priority != "" {
		p, ok := models.ParsePriority(q.Priority)
		if !ok {
			return nil, validationErr("unknown priority %q", q.Priority)
		}
		filter.Priority = p
	}

	filter, ok := s.policy.ScopeFilter(actor, filter)
	if !ok {
		return []models.Complaint{}, nil
	}
	return s.store.ListComplaints(ctx, filter)
}

// TransitionStatus moves a complaint along the lifecycle and appends the
// matching timeline entry.
func (s *ComplaintService) TransitionStatus(ctx context.Context, actor *models.User, id, status, note string) (*models.Complaint, error) {
	if err := s.policy.Authorize(actor, ObjComplaint, ActTransition); err != nil {
		return nil, err
	}
	target, ok := models.ParseStatus(status)
	if !ok {
		return nil, validationErr("unknown status %q", status)
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(actor, c) {
		return nil, notFound(id)
	}

	if strings.TrimSpace(note) == "" {
		note = "Status changed to " + string(target)
	}
	updated, err := s.apply(ctx, c, target, note)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, actor, models.ActionComplaintTransition, id,
		fmt.Sprintf("%s -> %s: %s", c.Status, target, note))
	return updated, nil
}

// Escalate moves a complaint to Escalated with the standard note
func (s *ComplaintService) Escalate(ctx context.Context, actor *models.User, id string) (*models.Complaint, error) {
	if err := s.policy.Authorize(actor, ObjComplaint, ActEscalate); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAct(actor, c) {
		return nil, notFound(id)
	}
	return s.escalate(ctx, actor, c)
}

func (s *ComplaintService) escalate(ctx context.Context, actor *models.User, c *models.Complaint) (*models.Complaint, error) {
	updated, err := s.apply(ctx, c, models.StatusEscalated, EscalationNote)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, models.ActionComplaintEscalate, c.ID,
		fmt.Sprintf("%s -> %s", c.Status, models.StatusEscalated))
	return updated, nil
}

// Upvote adds one vote. Votes are not deduplicated per caller.
func (s *ComplaintService) Upvote(ctx context.Context, actor *models.User, id string) (*models.Complaint, error) {
	if err := s.policy.Authorize(actor, ObjComplaint, ActUpvote); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAct(actor, c) {
		return nil, notFound(id)
	}

	updated, err := s.store.IncrementUpvotes(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return updated, nil
}

// Summary aggregates the actor's visible complaints for dashboards
func (s *ComplaintService) Summary(ctx context.Context, actor *models.User) (*models.ComplaintSummary, error) {
	if err := s.policy.Authorize(actor, ObjAnalytics, ActRead); err != nil {
		return nil, err
	}

	summary := &models.ComplaintSummary{
		ByStatus:   make(map[models.Status]int),
		ByPriority: make(map[models.Priority]int),
		Categories: []models.CategoryDistribution{},
	}
	filter, ok := s.policy.ScopeFilter(actor, models.ComplaintFilter{})
	if !ok {
		return summary, nil
	}
	complaints, err := s.store.ListComplaints(ctx, filter)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]int)
	for _, c := range complaints {
		summary.Total++
		summary.ByStatus[c.Status]++
		summary.ByPriority[c.Priority]++
		summary.TotalUpvotes += c.Upvotes
		categories[c.Category]++
	}
	for cat, n := range categories {
		summary.Categories = append(summary.Categories, models.CategoryDistribution{Category: cat, Count: n})
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})
	return summary, nil
}

// EscalateStale escalates every open complaint raised before cutoff and
// returns how many were escalated.
func (s *ComplaintService) EscalateStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.store.ListComplaints(ctx, models.ComplaintFilter{
		Status:     OpenStatuses(),
		DateBefore: cutoff.UTC().Format(dateLayout),
	})
	if err != nil {
		return 0, err
	}

	escalated := 0
	for i := range stale {
		if _, err := s.escalate(ctx, SystemActor, &stale[i]); err != nil {
			// Someone moved it since the listing; the next sweep sees the new status.
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
				continue
			}
			return escalated, err
		}
		escalated++
	}
	return escalated, nil
}

// apply enforces the transition table and writes status and timeline together
func (s *ComplaintService) apply(ctx context.Context, c *models.Complaint, target models.Status, note string) (*models.Complaint, error) {
	if !CanTransition(c.Status, target) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, c.Status, target)
	}

	entry := models.TimelineEntry{Status: target, Date: s.today(), Note: note}
	updated, err := s.store.AppendTimeline(ctx, c.ID, c.Status, entry)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound(c.ID)
		case errors.Is(err, repository.ErrStatusMismatch):
			return nil, fmt.Errorf("%w: complaint %s changed concurrently", ErrInvalidTransition, c.ID)
		}
		return nil, err
	}

	s.logger.Infow("Complaint status changed",
		"id", c.ID,
		"from", c.Status,
		"to", target,
	)
	return updated, nil
}

func (s *ComplaintService) load(ctx context.Context, id string) (*models.Complaint, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return c, nil
}

func notFound(id string) error {
	return fmt.Errorf("complaint %s: %w", id, ErrNotFound)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
