package services

import (
	"testing"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.Status
		want     bool
	}{
		{models.StatusPending, models.StatusApproved, true},
		{models.StatusPending, models.StatusRejected, true},
		{models.StatusPending, models.StatusEscalated, true},
		{models.StatusPending, models.StatusInProgress, false},
		{models.StatusPending, models.StatusResolved, false},
		{models.StatusApproved, models.StatusInProgress, true},
		{models.StatusApproved, models.StatusResolved, true},
		{models.StatusApproved, models.StatusEscalated, true},
		{models.StatusApproved, models.StatusRejected, false},
		{models.StatusApproved, models.StatusPending, false},
		{models.StatusInProgress, models.StatusResolved, true},
		{models.StatusInProgress, models.StatusEscalated, true},
		{models.StatusInProgress, models.StatusApproved, false},
		{models.StatusResolved, models.StatusEscalated, false},
		{models.StatusRejected, models.StatusApproved, false},
		{models.StatusEscalated, models.StatusResolved, false},
		{models.StatusPending, models.StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []models.Status{models.StatusResolved, models.StatusRejected, models.StatusEscalated} {
		assert.True(t, IsTerminal(s), "%s should be terminal", s)
		assert.Empty(t, AllowedTransitions(s))
	}
	for _, s := range []models.Status{models.StatusPending, models.StatusApproved, models.StatusInProgress} {
		assert.False(t, IsTerminal(s), "%s should be open", s)
	}
	assert.Equal(t,
		[]models.Status{models.StatusPending, models.StatusApproved, models.StatusInProgress},
		OpenStatuses())
}

func TestAllowedTransitionsIsACopy(t *testing.T) {
	got := AllowedTransitions(models.StatusPending)
	got[0] = models.StatusResolved
	assert.True(t, CanTransition(models.StatusPending, models.StatusApproved))
}
