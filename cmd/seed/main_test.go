package main

import (
	"context"
	"errors"
	"testing"

	"github.com/hostelcare/complaint-server/internal/models"
	"github.com/hostelcare/complaint-server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	logger := zap.NewNop().Sugar()

	require.NoError(t, seed(ctx, store, "hostel123", logger))

	users, err := store.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 4)

	warden, err := store.GetUserByEmail(ctx, "warden@hostel.com")
	require.NoError(t, err)
	assert.Equal(t, "w1", warden.ExternalID)
	assert.True(t, warden.IsOnDuty)

	tap, err := store.GetComplaint(ctx, "C-1001")
	require.NoError(t, err)
	assert.Equal(t, 2, tap.Upvotes)
	assert.Equal(t, "s1", tap.StudentID)

	fan, err := store.GetComplaint(ctx, "C-1002")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, fan.Status)
	assert.Len(t, fan.Timeline, 3)

	// A second run adds nothing
	require.NoError(t, seed(ctx, store, "hostel123", logger))
	all, err := store.ListComplaints(ctx, models.ComplaintFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	users, err = store.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

type failingCloseStore struct {
	*repository.MemoryStore
	closed bool
}

func (s *failingCloseStore) Close(context.Context) error {
	s.closed = true
	return errors.New("connection reset")
}

func TestCloseStore_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := &failingCloseStore{MemoryStore: repository.NewMemoryStore()}

	closeStore(store, zap.New(core).Sugar())

	assert.True(t, store.closed)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Failed to close store", entry.Message)
	assert.Equal(t, "connection reset", entry.ContextMap()["error"])
}
