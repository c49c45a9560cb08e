package lifecycle_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/audit"
	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/lifecycle"
	"github.com/productinventor/filevault/pkg/lock"
	"github.com/productinventor/filevault/pkg/models"
	"github.com/productinventor/filevault/pkg/store"
	"github.com/productinventor/filevault/pkg/version"
)

func newTestCoordinator(t *testing.T) (*lifecycle.Coordinator, *store.GORMStore, string) {
	t.Helper()

	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)

	cs, err := content.New(content.DefaultConfig(t.TempDir()))
	require.NoError(t, err)

	locks := lock.New(s, 0)
	txFunc := version.TxFunc(func(ctx context.Context, fn func(tx version.TxStore) error) error {
		return s.WithTransaction(ctx, func(tx *store.GORMStore) error {
			return fn(tx)
		})
	})
	versions := version.New(s, txFunc)
	auditLog := audit.New(s, nil)

	coord := lifecycle.New(lifecycle.Config{
		Store:    s,
		Locks:    locks,
		Versions: versions,
		Content:  cs,
		Audit:    auditLog,
	})

	proj := &models.Project{ChannelID: "C1", Name: "engineering"}
	projectID, err := s.CreateProject(context.Background(), proj)
	require.NoError(t, err)

	return coord, s, projectID
}

func TestCreateThenCheckoutCheckin(t *testing.T) {
	coord, _, projectID := newTestCoordinator(t)
	ctx := context.Background()

	file, err := coord.Create(ctx, projectID, "design.md", "/docs/design.md", "text/markdown", bytes.NewReader([]byte("hello")), "alice", "initial")
	require.NoError(t, err)
	require.NotEmpty(t, file.ID)
	assert.NotEmpty(t, file.CurrentVersionID)

	got, blobPath, err := coord.Checkout(ctx, file.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.NotEmpty(t, blobPath)

	_, _, err = coord.Checkin(ctx, file.ID, "alice", bytes.NewReader([]byte("should fail")), "not mine")
	var unauthorized *apierr.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)

	updated, newVersion, err := coord.Checkin(ctx, file.ID, "bob", bytes.NewReader([]byte("world")), "second revision")
	require.NoError(t, err)
	assert.Equal(t, int32(2), newVersion.VersionNumber)
	assert.Equal(t, newVersion.ID, updated.CurrentVersionID)

	locked, _, err := coord.Checkout(ctx, file.ID, "carol")
	require.NoError(t, err)
	assert.NotEmpty(t, locked.ID)
}

func TestCheckoutConflict(t *testing.T) {
	coord, _, projectID := newTestCoordinator(t)
	ctx := context.Background()

	file, err := coord.Create(ctx, projectID, "report.pdf", "/report.pdf", "application/pdf", bytes.NewReader([]byte("data")), "alice", "initial")
	require.NoError(t, err)

	_, _, err = coord.Checkout(ctx, file.ID, "alice")
	require.NoError(t, err)

	_, _, err = coord.Checkout(ctx, file.ID, "bob")
	var lockedErr *apierr.FileLockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.Equal(t, "alice", lockedErr.OwnerID)

	_, _, err = coord.Checkout(ctx, file.ID, "alice")
	require.NoError(t, err)
}

func TestCreateRejectsCaseInsensitiveNameCollision(t *testing.T) {
	coord, _, projectID := newTestCoordinator(t)
	ctx := context.Background()

	_, err := coord.Create(ctx, projectID, "Notes.txt", "/Notes.txt", "text/plain", bytes.NewReader([]byte("a")), "alice", "initial")
	require.NoError(t, err)

	_, err = coord.Create(ctx, projectID, "notes.txt", "/notes.txt", "text/plain", bytes.NewReader([]byte("b")), "bob", "dup")
	var conflict *apierr.FileNameConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestCreateRejectsPayloadOverMaxUploadSize(t *testing.T) {
	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	cs, err := content.New(content.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	locks := lock.New(s, 0)
	txFunc := version.TxFunc(func(ctx context.Context, fn func(tx version.TxStore) error) error {
		return s.WithTransaction(ctx, func(tx *store.GORMStore) error {
			return fn(tx)
		})
	})
	versions := version.New(s, txFunc)
	auditLog := audit.New(s, nil)

	coord := lifecycle.New(lifecycle.Config{
		Store:         s,
		Locks:         locks,
		Versions:      versions,
		Content:       cs,
		Audit:         auditLog,
		MaxUploadSize: 4,
	})

	projectID, err := s.CreateProject(context.Background(), &models.Project{ChannelID: "C5"})
	require.NoError(t, err)

	_, err = coord.Create(context.Background(), projectID, "big.txt", "/big.txt", "text/plain", bytes.NewReader([]byte("too big")), "alice", "initial")
	var tooLarge *apierr.PayloadTooLargeError
	assert.ErrorAs(t, err, &tooLarge)

	_, err = coord.Create(context.Background(), projectID, "ok.txt", "/ok.txt", "text/plain", bytes.NewReader([]byte("ok")), "alice", "initial")
	assert.NoError(t, err)
}

func TestGetVersionPath(t *testing.T) {
	coord, _, projectID := newTestCoordinator(t)
	ctx := context.Background()

	file, err := coord.Create(ctx, projectID, "a.txt", "/a.txt", "text/plain", bytes.NewReader([]byte("v1")), "alice", "v1")
	require.NoError(t, err)

	_, _, err = coord.Checkout(ctx, file.ID, "alice")
	require.NoError(t, err)
	_, _, err = coord.Checkin(ctx, file.ID, "alice", bytes.NewReader([]byte("v2")), "v2")
	require.NoError(t, err)

	currentPath, err := coord.GetVersionPath(ctx, file.ID, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, currentPath)

	firstPath, err := coord.GetVersionPath(ctx, file.ID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, currentPath, firstPath)

	_, err = coord.GetVersionPath(ctx, file.ID, 99)
	var notFound *apierr.VersionNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteRejectsLockedFile(t *testing.T) {
	coord, _, projectID := newTestCoordinator(t)
	ctx := context.Background()

	file, err := coord.Create(ctx, projectID, "locked.txt", "/locked.txt", "text/plain", bytes.NewReader([]byte("x")), "alice", "initial")
	require.NoError(t, err)

	_, _, err = coord.Checkout(ctx, file.ID, "alice")
	require.NoError(t, err)

	err = coord.Delete(ctx, file.ID, "admin")
	var lockedErr *apierr.FileLockedError
	assert.ErrorAs(t, err, &lockedErr)
}

func TestDeleteAllowsNameReuse(t *testing.T) {
	coord, _, projectID := newTestCoordinator(t)
	ctx := context.Background()

	file, err := coord.Create(ctx, projectID, "dup.txt", "/dup.txt", "text/plain", bytes.NewReader([]byte("x")), "alice", "initial")
	require.NoError(t, err)

	require.NoError(t, coord.Delete(ctx, file.ID, "alice"))

	recreated, err := coord.Create(ctx, projectID, "dup.txt", "/dup.txt", "text/plain", bytes.NewReader([]byte("y")), "alice", "recreated")
	require.NoError(t, err)
	assert.NotEqual(t, file.ID, recreated.ID)
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "text/plain; charset=utf-8", lifecycle.DetectMimeType("notes.txt"))
	assert.Equal(t, "application/octet-stream", lifecycle.DetectMimeType("blob.unknownext"))
}
