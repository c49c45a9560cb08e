package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/productinventor/filevault/pkg/models"
)

// DeleteProjectCascade removes every file, version, and lock belonging to
// projectID, then the project itself, all within one transaction. It
// returns the distinct content hashes the deleted versions referenced, so
// the caller (pkg/deletion's project-deletion operation) can re-check
// reference counts and run secure deletion outside the transaction.
func (s *GORMStore) DeleteProjectCascade(ctx context.Context, projectID string) (*models.ProjectCascadeResult, error) {
	result := &models.ProjectCascadeResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var files []models.File
		if err := tx.Where("project_id = ?", projectID).Find(&files).Error; err != nil {
			return err
		}
		fileIDs := make([]string, len(files))
		for i, f := range files {
			fileIDs[i] = f.ID
		}
		result.FileCount = len(files)

		if len(fileIDs) > 0 {
			var versions []models.FileVersion
			if err := tx.Where("file_id IN ?", fileIDs).Find(&versions).Error; err != nil {
				return err
			}
			result.VersionCount = len(versions)
			seen := make(map[string]bool)
			for _, v := range versions {
				if !seen[v.ContentHash] {
					seen[v.ContentHash] = true
					result.ContentHashes = append(result.ContentHashes, v.ContentHash)
				}
			}

			if err := tx.Where("file_id IN ?", fileIDs).Delete(&models.FileReference{}).Error; err != nil {
				return err
			}
			if err := tx.Where("file_id IN ?", fileIDs).Delete(&models.FileLock{}).Error; err != nil {
				return err
			}
			if err := tx.Where("file_id IN ?", fileIDs).Delete(&models.FileVersion{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).Delete(&models.File{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("id = ?", projectID).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
