package version_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productinventor/filevault/pkg/models"
	"github.com/productinventor/filevault/pkg/store"
	"github.com/productinventor/filevault/pkg/version"
)

func newTestManager(t *testing.T) (*version.Manager, *store.GORMStore, string) {
	t.Helper()
	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)

	txFunc := version.TxFunc(func(ctx context.Context, fn func(tx version.TxStore) error) error {
		return s.WithTransaction(ctx, func(tx *store.GORMStore) error {
			return fn(tx)
		})
	})
	m := version.New(s, txFunc)

	ctx := context.Background()
	projID, err := s.CreateProject(ctx, &models.Project{ChannelID: "C1"})
	require.NoError(t, err)
	fileID, err := s.CreateFile(ctx, &models.File{ProjectID: projID, Name: "doc.txt"})
	require.NoError(t, err)

	return m, s, fileID
}

func TestAddVersion_StartsAtOne(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	v, err := m.AddVersion(ctx, version.AddVersionInput{
		FileID: fileID, ContentHash: "hash1", SizeBytes: 5, CreatedByID: "alice",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.VersionNumber)
}

func TestAddVersion_MonotonicallyIncreases(t *testing.T) {
	m, s, fileID := newTestManager(t)
	ctx := context.Background()

	v1, err := m.AddVersion(ctx, version.AddVersionInput{FileID: fileID, ContentHash: "hash1", SizeBytes: 5, CreatedByID: "alice"})
	require.NoError(t, err)
	v2, err := m.AddVersion(ctx, version.AddVersionInput{FileID: fileID, ContentHash: "hash2", SizeBytes: 7, CreatedByID: "bob"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, v1.VersionNumber)
	assert.EqualValues(t, 2, v2.VersionNumber)

	f, err := s.GetFileByID(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, v2.ID, f.CurrentVersionID)
}

func TestAddVersion_ReleasesLockWhenRequested(t *testing.T) {
	m, s, fileID := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, s.AcquireLock(ctx, &models.FileLock{FileID: fileID, OwnerID: "alice", AcquiredAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}))

	_, err := m.AddVersion(ctx, version.AddVersionInput{
		FileID: fileID, ContentHash: "hash1", SizeBytes: 5, CreatedByID: "alice", ReleaseLockOwner: "alice",
	})
	require.NoError(t, err)

	_, err = s.GetLock(ctx, fileID)
	assert.Error(t, err, "checkin should have released the lock")
}

func TestAddVersion_LeavesLockWhenNotReleasing(t *testing.T) {
	m, s, fileID := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, s.AcquireLock(ctx, &models.FileLock{FileID: fileID, OwnerID: "alice", AcquiredAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}))

	_, err := m.AddVersion(ctx, version.AddVersionInput{
		FileID: fileID, ContentHash: "hash1", SizeBytes: 5, CreatedByID: "alice",
	})
	require.NoError(t, err)

	lock, err := s.GetLock(ctx, fileID)
	require.NoError(t, err)
	assert.Equal(t, "alice", lock.OwnerID)
}

func TestHistory_ReturnsAllVersionsNewestFirst(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddVersion(ctx, version.AddVersionInput{FileID: fileID, ContentHash: "hash1", SizeBytes: 5, CreatedByID: "alice"})
	require.NoError(t, err)
	_, err = m.AddVersion(ctx, version.AddVersionInput{FileID: fileID, ContentHash: "hash2", SizeBytes: 7, CreatedByID: "alice"})
	require.NoError(t, err)

	history, err := m.History(ctx, fileID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.EqualValues(t, 2, history[0].VersionNumber)
	assert.EqualValues(t, 1, history[1].VersionNumber)
}

func TestAt_ResolvesSpecificVersion(t *testing.T) {
	m, _, fileID := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddVersion(ctx, version.AddVersionInput{FileID: fileID, ContentHash: "hash1", SizeBytes: 5, CreatedByID: "alice"})
	require.NoError(t, err)
	_, err = m.AddVersion(ctx, version.AddVersionInput{FileID: fileID, ContentHash: "hash2", SizeBytes: 7, CreatedByID: "alice"})
	require.NoError(t, err)

	v1, err := m.At(ctx, fileID, 1)
	require.NoError(t, err)
	assert.Equal(t, "hash1", v1.ContentHash)

	v2, err := m.At(ctx, fileID, 2)
	require.NoError(t, err)
	assert.Equal(t, "hash2", v2.ContentHash)
}
