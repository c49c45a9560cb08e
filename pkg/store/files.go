package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/models"
)

// CreateFile inserts a new file row. A name collision within the project
// (case-sensitive at the DB level; callers check for case-insensitive
// collisions before calling)
// is reported as apierr.FileNameConflictError.
func (s *GORMStore) CreateFile(ctx context.Context, file *models.File) (string, error) {
	id, err := createWithID(s.db, ctx, file, func(f *models.File, id string) { f.ID = id }, file.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return "", &apierr.FileNameConflictError{ProjectID: file.ProjectID, Name: file.Name}
		}
		return "", err
	}
	return id, nil
}

// GetFileByID retrieves a non-deleted file by its ID.
func (s *GORMStore) GetFileByID(ctx context.Context, id string) (*models.File, error) {
	var file models.File
	err := s.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id).First(&file).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apierr.FileNotFoundError{FileID: id}
		}
		return nil, err
	}
	return &file, nil
}

// ListFilesByProject lists every non-deleted file in a project, ordered by name.
func (s *GORMStore) ListFilesByProject(ctx context.Context, projectID string) ([]*models.File, error) {
	var files []*models.File
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND deleted_at IS NULL", projectID).
		Order("name").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// SetCurrentVersion atomically points a file at its new current version.
func (s *GORMStore) SetCurrentVersion(ctx context.Context, fileID, versionID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ?", fileID).
		Update("current_version_id", versionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &apierr.FileNotFoundError{FileID: fileID}
	}
	return nil
}

// MarkFileDeleted soft-deletes a file row so its name can be reused.
func (s *GORMStore) MarkFileDeleted(ctx context.Context, fileID string) error {
	now := time.Now()
	result := s.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ? AND deleted_at IS NULL", fileID).
		Update("deleted_at", &now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &apierr.FileNotFoundError{FileID: fileID}
	}
	return nil
}

// createVersionTx inserts a new immutable version row through db. On a
// store handed out by WithTransaction, db is the transaction handle.
func (s *GORMStore) createVersionTx(db *gorm.DB, ctx context.Context, version *models.FileVersion) (string, error) {
	return createWithID(db, ctx, version, func(v *models.FileVersion, id string) { v.ID = id }, version.ID)
}

// CreateVersion inserts a new immutable version row outside a transaction.
func (s *GORMStore) CreateVersion(ctx context.Context, version *models.FileVersion) (string, error) {
	return s.createVersionTx(s.db, ctx, version)
}

// GetVersionByID retrieves a specific version by its ID.
func (s *GORMStore) GetVersionByID(ctx context.Context, id string) (*models.FileVersion, error) {
	var version models.FileVersion
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&version).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apierr.VersionNotFoundError{FileID: "", VersionNumber: 0}
		}
		return nil, err
	}
	return &version, nil
}

// GetVersionByNumber retrieves the version of fileID at versionNumber.
func (s *GORMStore) GetVersionByNumber(ctx context.Context, fileID string, versionNumber int32) (*models.FileVersion, error) {
	var version models.FileVersion
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND version_number = ?", fileID, versionNumber).
		First(&version).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apierr.VersionNotFoundError{FileID: fileID, VersionNumber: versionNumber}
		}
		return nil, err
	}
	return &version, nil
}

// ListVersions lists every version of a file, newest first.
func (s *GORMStore) ListVersions(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	var versions []*models.FileVersion
	err := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// LatestVersionNumber returns the highest version number recorded for a
// file, or 0 if the file has no versions yet.
func (s *GORMStore) LatestVersionNumber(ctx context.Context, fileID string) (int32, error) {
	var max int32
	err := s.db.WithContext(ctx).
		Model(&models.FileVersion{}).
		Where("file_id = ?", fileID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

// CountVersionsByContentHash counts how many versions (across every file
// and project) reference a content hash, used by the deletion engine to
// decide whether a blob is still referenced.
func (s *GORMStore) CountVersionsByContentHash(ctx context.Context, contentHash string) (int64, error) {
	return countByField[models.FileVersion](s.db, ctx, "content_hash", contentHash)
}

// WithTransaction runs fn inside a GORM transaction, committing on a nil
// return and rolling back otherwise.
func (s *GORMStore) WithTransaction(ctx context.Context, fn func(txStore *GORMStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{db: tx, config: s.config})
	})
}
