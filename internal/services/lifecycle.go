package services

import (
	"github.com/hostelcare/complaint-server/internal/models"
)

// EscalationNote is the timeline note used for every escalation
const EscalationNote = "Escalated to Admin due to delay"

// SubmissionNote is the note on the first timeline entry
const SubmissionNote = "Complaint raised via platform"

// transitions is the complaint state machine. A status with no entry is terminal.
var transitions = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusApproved, models.StatusRejected, models.StatusEscalated},
	models.StatusApproved:   {models.StatusInProgress, models.StatusResolved, models.StatusEscalated},
	models.StatusInProgress: {models.StatusResolved, models.StatusEscalated},
}

// CanTransition reports whether a complaint may move from one status to another
func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status
func IsTerminal(s models.Status) bool {
	return len(transitions[s]) == 0
}

// AllowedTransitions lists the statuses reachable from s
func AllowedTransitions(s models.Status) []models.Status {
	return append([]models.Status(nil), transitions[s]...)
}

// OpenStatuses are the non-terminal statuses, used by the escalation sweep
func OpenStatuses() []models.Status {
	open := make([]models.Status, 0, len(transitions))
	for _, s := range models.Statuses {
		if !IsTerminal(s) {
			open = append(open, s)
		}
	}
	return open
}
