package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/models"
	"github.com/productinventor/filevault/pkg/store"
)

func newTestManager(t *testing.T) (*Manager, *store.GORMStore, string) {
	t.Helper()
	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)

	ctx := context.Background()
	projID, err := s.CreateProject(ctx, &models.Project{ChannelID: "C1"})
	require.NoError(t, err)
	fileID, err := s.CreateFile(ctx, &models.File{ProjectID: projID, Name: "doc.txt"})
	require.NoError(t, err)

	return New(s, time.Hour), s, fileID
}

func TestAcquire_SameOwnerRenews(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	l1, err := m.Acquire(ctx, fileID, "alice")
	require.NoError(t, err)

	l2, err := m.Acquire(ctx, fileID, "alice")
	require.NoError(t, err)
	assert.True(t, l2.ExpiresAt.After(l1.ExpiresAt) || l2.ExpiresAt.Equal(l1.ExpiresAt))
}

func TestAcquire_DifferentOwnerConflicts(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx, fileID, "alice")
	require.NoError(t, err)

	_, err = m.Acquire(ctx, fileID, "bob")
	var locked *apierr.FileLockedError
	assert.ErrorAs(t, err, &locked)
}

func TestIsLockedBy(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx, fileID, "alice")
	require.NoError(t, err)

	ok, err := m.IsLockedBy(ctx, fileID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.IsLockedBy(ctx, fileID, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountActive_DropsAfterForceRelease(t *testing.T) {
	m, s, fileID := newTestManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx, fileID, "alice")
	require.NoError(t, err)

	count, err := m.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, s.ForceReleaseLock(ctx, fileID))
	count, err = m.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestRelease_WrongOwnerIsUnauthorized(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	_, err := m.Acquire(ctx, fileID, "alice")
	require.NoError(t, err)

	err = m.Release(ctx, fileID, "bob")
	var unauthorized *apierr.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)

	ok, err := m.IsLockedBy(ctx, fileID, "alice")
	require.NoError(t, err)
	assert.True(t, ok, "alice's lock must survive bob's failed release")
}

func TestRelease_MissingLockIsLockNotFound(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	err := m.Release(ctx, fileID, "alice")
	var notFound *apierr.LockNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestReapExpired(t *testing.T) {
	m, s, fileID := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, s.AcquireLock(ctx, &models.FileLock{
		FileID:     fileID,
		OwnerID:    "alice",
		AcquiredAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt:  time.Now().Add(-time.Hour),
	}))

	n, err := m.ReapExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	locked, _, err := m.IsLocked(ctx, fileID)
	require.NoError(t, err)
	assert.False(t, locked)
}
