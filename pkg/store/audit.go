package store

import (
	"context"
	"time"

	"github.com/productinventor/filevault/pkg/models"
)

// WriteAudit inserts an append-only audit record.
func (s *GORMStore) WriteAudit(ctx context.Context, entry *models.AuditLog) error {
	_, err := createWithID(s.db, ctx, entry, func(a *models.AuditLog, id string) { a.ID = id }, entry.ID)
	return err
}

// ListAuditByProject lists audit entries for a project within [from, to),
// newest first.
func (s *GORMStore) ListAuditByProject(ctx context.Context, projectID string, from, to time.Time) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND created_at >= ? AND created_at < ?", projectID, from, to).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateDeletionRecord inserts a deletion certificate.
func (s *GORMStore) CreateDeletionRecord(ctx context.Context, record *models.DeletionRecord) error {
	_, err := createWithID(s.db, ctx, record, func(r *models.DeletionRecord, id string) { r.ID = id }, record.ID)
	return err
}

// ListDeletionRecordsByContentHash lists every deletion attempt recorded for a blob.
func (s *GORMStore) ListDeletionRecordsByContentHash(ctx context.Context, contentHash string) ([]*models.DeletionRecord, error) {
	return listByField[models.DeletionRecord](s.db, ctx, "content_hash", contentHash, "created_at DESC")
}

// UpdateDeletionRecord persists every mutable field of an existing deletion record.
func (s *GORMStore) UpdateDeletionRecord(ctx context.Context, record *models.DeletionRecord) error {
	return s.db.WithContext(ctx).Save(record).Error
}

// GetDeletionRecordByID retrieves a single deletion record by ID.
func (s *GORMStore) GetDeletionRecordByID(ctx context.Context, id string) (*models.DeletionRecord, error) {
	return getByField[models.DeletionRecord](s.db, ctx, "id", id, models.ErrDeletionRecordNotFound)
}
