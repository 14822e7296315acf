// Package models defines the data structures used across the application.
// They are shared by every repository backend and serialized as-is by the handlers.
package models

import (
	"time"
)

// Status is the lifecycle state of a complaint
type Status string

const (
	StatusPending    Status = "Pending"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusEscalated  Status = "Escalated"

	// StatusSubmitted only ever appears as the first timeline entry.
	StatusSubmitted Status = "Submitted"
)

// Statuses lists every assignable complaint status in display order
var Statuses = []Status{
	StatusPending, StatusApproved, StatusRejected,
	StatusInProgress, StatusResolved, StatusEscalated,
}

// ParseStatus validates a client-supplied status string
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Priority of a complaint
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority validates a priority, defaulting empty input to Medium
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case "":
		return PriorityMedium, true
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), true
	}
	return "", false
}

// TimelineEntry is one append-only event on a complaint
type TimelineEntry struct {
	Status Status `json:"status" bson:"status"`
	Date   string `json:"date" bson:"date"`
	Note   string `json:"note" bson:"note"`
}

// Complaint is a maintenance complaint raised by a student.
// ID is the human-readable external id (C-1001); store keys are never exposed.
type Complaint struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Priority    Priority        `json:"priority"`
	Status      Status          `json:"status"`
	Date        string          `json:"date"`
	StudentID   string          `json:"studentId"`
	StudentName string          `json:"studentName"`
	Room        string          `json:"room"`
	Block       string          `json:"block"`
	Upvotes     int             `json:"upvotes"`
	Images      []string        `json:"images"`
	Videos      []string        `json:"videos"`
	Timeline    []TimelineEntry `json:"timeline"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// LastEntry returns the most recent timeline entry
func (c *Complaint) LastEntry() TimelineEntry {
	if len(c.Timeline) == 0 {
		return TimelineEntry{}
	}
	return c.Timeline[len(c.Timeline)-1]
}

// ComplaintSubmission is the request body for raising a new complaint.
// Name, room and block are only used when the student's profile lacks them.
type ComplaintSubmission struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Room        string   `json:"room"`
	Block       string   `json:"block"`
	StudentName string   `json:"studentName"`
	Images      []string `json:"images"`
	Videos      []string `json:"videos"`
}

// StatusChange is the request body for PATCH /complaints/{id}/status
type StatusChange struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// ComplaintFilter narrows a complaint listing. Empty fields match everything.
type ComplaintFilter struct {
	StudentID string
	Block     string
	Status    []Status
	Category  string
	Priority  Priority
	// DateBefore matches complaints raised strictly before this YYYY-MM-DD date.
	DateBefore string
}

// ActivityLog records a privileged action for accountability
type ActivityLog struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actorId"`
	ActorRole   string    `json:"actorRole"`
	Action      string    `json:"action"`
	Target      string    `json:"target"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Activity actions
const (
	ActionComplaintCreate     = "complaint.create"
	ActionComplaintTransition = "complaint.transition"
	ActionComplaintEscalate   = "complaint.escalate"
	ActionUserRegister        = "user.register"
	ActionUserProvision       = "user.provision"
	ActionUserStatus          = "user.status"
	ActionUserDelete          = "user.delete"
)

// CategoryDistribution for pie/bar charts
type CategoryDistribution struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ComplaintSummary backs the dashboard cards and charts
type ComplaintSummary struct {
	Total        int                    `json:"total"`
	ByStatus     map[Status]int         `json:"byStatus"`
	ByPriority   map[Priority]int       `json:"byPriority"`
	Categories   []CategoryDistribution `json:"categories"`
	TotalUpvotes int                    `json:"totalUpvotes"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Store    string `json:"store,omitempty"`
	Database string `json:"database,omitempty"`
}
