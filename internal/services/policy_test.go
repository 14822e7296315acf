package services

import (
	"testing"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Authorize(t *testing.T) {
	p, err := NewPolicy(ScopeOwn)
	require.NoError(t, err)

	student := &models.User{Role: models.RoleStudent}
	warden := &models.User{Role: models.RoleWarden}
	admin := &models.User{Role: models.RoleAdmin}

	tests := []struct {
		actor   *models.User
		obj     string
		act     string
		allowed bool
	}{
		{student, ObjComplaint, ActCreate, true},
		{student, ObjComplaint, ActUpvote, true},
		{student, ObjComplaint, ActEscalate, true},
		{student, ObjComplaint, ActTransition, false},
		{student, ObjComplaint, ActExport, false},
		{student, ObjUser, ActList, false},
		{warden, ObjComplaint, ActCreate, false},
		{warden, ObjComplaint, ActTransition, true},
		{warden, ObjComplaint, ActExport, true},
		{warden, ObjUser, ActList, false},
		{warden, ObjUser, ActDelete, false},
		{warden, ObjActivity, ActList, false},
		{admin, ObjComplaint, ActCreate, false},
		{admin, ObjComplaint, ActTransition, true},
		{admin, ObjUser, ActList, true},
		{admin, ObjUser, ActStatus, true},
		{admin, ObjUser, ActDelete, true},
		{admin, ObjActivity, ActList, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.actor.Role)+" "+tt.act+" "+tt.obj, func(t *testing.T) {
			err := p.Authorize(tt.actor, tt.obj, tt.act)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}

	assert.ErrorIs(t, p.Authorize(nil, ObjComplaint, ActList), ErrUnauthenticated)
}

func TestPolicy_ScopeFilter(t *testing.T) {
	p, err := NewPolicy(ScopeOwn)
	require.NoError(t, err)

	f, ok := p.ScopeFilter(&models.User{Role: models.RoleStudent, ExternalID: "s1", Block: "A"}, models.ComplaintFilter{StudentID: "s2"})
	assert.True(t, ok)
	assert.Equal(t, "s1", f.StudentID, "students can only ever list their own complaints")

	f, ok = p.ScopeFilter(&models.User{Role: models.RoleWarden, Block: "A"}, models.ComplaintFilter{Block: "B"})
	assert.True(t, ok)
	assert.Equal(t, "A", f.Block, "wardens are pinned to their block")

	_, ok = p.ScopeFilter(&models.User{Role: models.RoleWarden}, models.ComplaintFilter{})
	assert.False(t, ok, "a warden without a block sees nothing")

	f, ok = p.ScopeFilter(&models.User{Role: models.RoleAdmin}, models.ComplaintFilter{Block: "B"})
	assert.True(t, ok)
	assert.Equal(t, "B", f.Block, "admins may filter freely")
}

func TestPolicy_ScopeFilter_BlockBoard(t *testing.T) {
	p, err := NewPolicy(ScopeBlock)
	require.NoError(t, err)

	f, ok := p.ScopeFilter(&models.User{Role: models.RoleStudent, ExternalID: "s1", Block: "A"}, models.ComplaintFilter{Block: "B"})
	assert.True(t, ok)
	assert.Equal(t, "A", f.Block, "students are pinned to their own block")
	assert.Empty(t, f.StudentID)

	f, ok = p.ScopeFilter(&models.User{Role: models.RoleStudent, ExternalID: "s1"}, models.ComplaintFilter{})
	assert.True(t, ok)
	assert.Equal(t, "s1", f.StudentID, "without a block a student only sees their own complaints")
}

func TestPolicy_CanAct(t *testing.T) {
	mine := &models.Complaint{StudentID: "s1", Block: "A"}
	neighbour := &models.Complaint{StudentID: "s2", Block: "A"}
	elsewhere := &models.Complaint{StudentID: "s3", Block: "B"}
	student := &models.User{Role: models.RoleStudent, ExternalID: "s1", Block: "A"}

	own, err := NewPolicy(ScopeOwn)
	require.NoError(t, err)
	assert.True(t, own.CanAct(student, mine))
	assert.False(t, own.CanAct(student, neighbour))
	assert.False(t, own.CanAct(student, elsewhere))

	block, err := NewPolicy(ScopeBlock)
	require.NoError(t, err)
	assert.True(t, block.CanAct(student, mine))
	assert.True(t, block.CanAct(student, neighbour))
	assert.False(t, block.CanAct(student, elsewhere))
	assert.True(t, block.CanView(student, neighbour), "a student may read whatever they may act on")
	assert.False(t, block.CanView(student, elsewhere))

	homeless := &models.User{Role: models.RoleStudent, ExternalID: "s9"}
	assert.False(t, block.CanAct(homeless, &models.Complaint{StudentID: "s2"}))

	warden := &models.User{Role: models.RoleWarden, Block: "A"}
	assert.True(t, block.CanAct(warden, neighbour))
	assert.False(t, block.CanAct(warden, elsewhere))
}

func TestParseStudentActionScope(t *testing.T) {
	s, err := ParseStudentActionScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeOwn, s)

	s, err = ParseStudentActionScope("block")
	require.NoError(t, err)
	assert.Equal(t, ScopeBlock, s)

	_, err = ParseStudentActionScope("everyone")
	assert.Error(t, err)
}
