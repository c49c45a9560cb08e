// Package version implements the Version Manager: the transactional
// operation that ties a new FileVersion row, the file's current-version
// pointer, and the releasing of the checkout lock into one atomic unit.
package version

import (
	"context"

	"github.com/productinventor/filevault/pkg/models"
)

// Store is the subset of the metadata store the version manager depends on
// for read-only queries outside a transaction.
type Store interface {
	GetFileByID(ctx context.Context, id string) (*models.File, error)
	ListVersions(ctx context.Context, fileID string) ([]*models.FileVersion, error)
	GetVersionByNumber(ctx context.Context, fileID string, versionNumber int32) (*models.FileVersion, error)
	LatestVersionNumber(ctx context.Context, fileID string) (int32, error)
}

// TxStore is the set of operations AddVersion performs within a single
// transaction; it is satisfied by *pkg/store.GORMStore.
type TxStore interface {
	CreateVersion(ctx context.Context, version *models.FileVersion) (string, error)
	SetCurrentVersion(ctx context.Context, fileID, versionID string) error
	ReleaseLock(ctx context.Context, fileID, ownerID string) error
}

// TxFunc adapts the metadata store's concrete transaction helper (which
// hands back a *store.GORMStore) to the TxStore interface this package
// depends on, so this package need not import pkg/store directly.
type TxFunc func(ctx context.Context, fn func(tx TxStore) error) error

// Manager is the Version Manager component.
type Manager struct {
	store       Store
	withTxStore TxFunc
}

// New constructs a Manager. withTx adapts the metadata store's concrete
// transaction helper to this package's TxStore interface.
func New(store Store, withTx TxFunc) *Manager {
	return &Manager{store: store, withTxStore: withTx}
}

// AddVersionInput is the input to AddVersion.
type AddVersionInput struct {
	FileID        string
	ContentHash   string
	SizeBytes     int64
	CreatedByID   string
	CommitMessage string
	// ReleaseLockOwner, if non-empty, releases that owner's checkout lock
	// on FileID as part of the same transaction (checkin semantics).
	ReleaseLockOwner string
}

// AddVersion inserts a new FileVersion, advances the file's current-version
// pointer, and optionally releases the checkout lock — all within one
// database transaction, so a crash between steps never leaves the file
// pointing at a version that doesn't exist or a lock held past checkin.
func (m *Manager) AddVersion(ctx context.Context, in AddVersionInput) (*models.FileVersion, error) {
	latest, err := m.store.LatestVersionNumber(ctx, in.FileID)
	if err != nil {
		return nil, err
	}
	next := latest + 1

	version := &models.FileVersion{
		FileID:        in.FileID,
		VersionNumber: next,
		ContentHash:   in.ContentHash,
		SizeBytes:     in.SizeBytes,
		CreatedByID:   in.CreatedByID,
		CommitMessage: in.CommitMessage,
	}

	err = m.withTxStore(ctx, func(tx TxStore) error {
		id, err := tx.CreateVersion(ctx, version)
		if err != nil {
			return err
		}
		version.ID = id

		if err := tx.SetCurrentVersion(ctx, in.FileID, version.ID); err != nil {
			return err
		}

		if in.ReleaseLockOwner != "" {
			if err := tx.ReleaseLock(ctx, in.FileID, in.ReleaseLockOwner); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// History returns every version of a file, newest first.
func (m *Manager) History(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	return m.store.ListVersions(ctx, fileID)
}

// At returns a specific version of a file by version number.
func (m *Manager) At(ctx context.Context, fileID string, versionNumber int32) (*models.FileVersion, error) {
	return m.store.GetVersionByNumber(ctx, fileID, versionNumber)
}
