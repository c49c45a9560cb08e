package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/models"
)

// DeleteFileCascade removes every FileReference and FileVersion for fileID,
// then soft-deletes the File row itself (so its name becomes reusable
// within the project), all in one transaction. The caller (pkg/lifecycle)
// is responsible for rejecting the call if the file is currently locked;
// this method does not check lock state. Content blobs are untouched —
// their reference counts simply drop once the FileVersion rows are gone,
// so pkg/deletion's SecureDeleteContent will accept them. Nothing here
// calls it.
func (s *GORMStore) DeleteFileCascade(ctx context.Context, fileID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&models.FileReference{}).Error; err != nil {
			return err
		}
		if err := tx.Where("file_id = ?", fileID).Delete(&models.FileVersion{}).Error; err != nil {
			return err
		}
		now := time.Now()
		result := tx.Model(&models.File{}).
			Where("id = ? AND deleted_at IS NULL", fileID).
			Update("deleted_at", &now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &apierr.FileNotFoundError{FileID: fileID}
		}
		return nil
	})
}
