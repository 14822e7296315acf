package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportComplaints(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	ctx := context.Background()
	env.complaints.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }
	sA := env.student(t, "student@hostel.com", "A", "101")
	sB := env.student(t, "b@hostel.com", "B", "201")
	wA := env.warden(t, "warden@hostel.com", "A")

	c := env.raise(t, sA, "Leaking tap")
	env.raise(t, sB, "Other block")
	_, err := env.complaints.TransitionStatus(ctx, wA, c.ID, "Approved", "On it")
	require.NoError(t, err)

	buf, name, err := env.export.ExportComplaints(ctx, wA, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, "complaints-20240310.xlsx", name)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Complaints")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the warden's single in-block complaint")
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, []string{"C-1001", "Leaking tap", "Plumbing", "High", "Approved"}, rows[1][:5])

	timeline, err := f.GetRows("Timeline")
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	assert.Equal(t, []string{"C-1001", "Submitted", "2024-03-10", SubmissionNote}, timeline[1])
	assert.Equal(t, []string{"C-1001", "Approved", "2024-03-10", "On it"}, timeline[2])
}

func TestExportComplaints_StudentsForbidden(t *testing.T) {
	env := newTestEnv(t, ScopeOwn)
	s1 := env.student(t, "student@hostel.com", "A", "101")

	_, _, err := env.export.ExportComplaints(context.Background(), s1, ListQuery{})
	assert.ErrorIs(t, err, ErrForbidden)
}
