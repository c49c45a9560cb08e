package store

import (
	"context"

	"github.com/productinventor/filevault/pkg/models"
)

// CreateReference records a share of a file version into a chat channel
// message.
func (s *GORMStore) CreateReference(ctx context.Context, ref *models.FileReference) (string, error) {
	return createWithID(s.db, ctx, ref, func(r *models.FileReference, id string) { r.ID = id }, ref.ID)
}

// ListReferencesByFile lists every share record for a file, newest first.
func (s *GORMStore) ListReferencesByFile(ctx context.Context, fileID string) ([]*models.FileReference, error) {
	return listByField[models.FileReference](s.db, ctx, "file_id", fileID, "shared_at DESC")
}

// DeleteReferencesByFile removes every share record for fileID, within tx
// if db is a transaction handle.
func (s *GORMStore) DeleteReferencesByFile(ctx context.Context, fileID string) error {
	return s.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&models.FileReference{}).Error
}
