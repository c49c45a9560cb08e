package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/models"
)

// AcquireLock attempts to insert a lock row for fileID. A collision with
// an existing, unexpired lock is resolved by the caller (pkg/lock) reading
// GetLock first and racing acquire only when it believes the slot is free;
// the upsert below additionally guards the race by only overwriting a row
// whose expires_at has already passed.
func (s *GORMStore) AcquireLock(ctx context.Context, lock *models.FileLock) error {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "file_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"owner_id":    lock.OwnerID,
				"acquired_at": lock.AcquiredAt,
				"expires_at":  lock.ExpiresAt,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Lt{Column: "file_locks.expires_at", Value: time.Now()},
			}},
		}).
		Create(lock)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		existing, err := s.GetLock(ctx, lock.FileID)
		if err != nil {
			return err
		}
		return &apierr.FileLockedError{
			FileID:    lock.FileID,
			OwnerID:   existing.OwnerID,
			LockedAt:  existing.AcquiredAt,
			ExpiresAt: existing.ExpiresAt,
		}
	}
	return nil
}

// GetLock retrieves the current lock row for a file, if any.
func (s *GORMStore) GetLock(ctx context.Context, fileID string) (*models.FileLock, error) {
	var lock models.FileLock
	err := s.db.WithContext(ctx).Where("file_id = ?", fileID).First(&lock).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apierr.LockNotFoundError{FileID: fileID}
		}
		return nil, err
	}
	return &lock, nil
}

// ReleaseLock deletes the lock row for fileID if owned by ownerID. A lock
// held by a different owner is an UnauthorizedError, not a LockNotFoundError.
func (s *GORMStore) ReleaseLock(ctx context.Context, fileID, ownerID string) error {
	result := s.db.WithContext(ctx).
		Where("file_id = ? AND owner_id = ?", fileID, ownerID).
		Delete(&models.FileLock{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	if _, err := s.GetLock(ctx, fileID); err != nil {
		return err
	}
	return &apierr.UnauthorizedError{FileID: fileID, ActorID: ownerID}
}

// ForceReleaseLock deletes the lock row for fileID regardless of owner.
func (s *GORMStore) ForceReleaseLock(ctx context.Context, fileID string) error {
	result := s.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&models.FileLock{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &apierr.LockNotFoundError{FileID: fileID}
	}
	return nil
}

// ExtendLock pushes the expiry of an owned lock forward.
func (s *GORMStore) ExtendLock(ctx context.Context, fileID, ownerID string, newExpiry time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.FileLock{}).
		Where("file_id = ? AND owner_id = ?", fileID, ownerID).
		Update("expires_at", newExpiry)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &apierr.LockNotFoundError{FileID: fileID}
	}
	return nil
}

// ReapExpiredLocks deletes every lock row whose expiry has passed, returning
// the count removed.
func (s *GORMStore) ReapExpiredLocks(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.FileLock{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountActiveLocks returns the number of lock rows that have not yet expired.
func (s *GORMStore) CountActiveLocks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.FileLock{}).
		Where("expires_at >= ?", time.Now()).
		Count(&count).Error
	return count, err
}
