package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// getByField retrieves a single record of type T by field=value, converting
// gorm.ErrRecordNotFound to notFoundErr.
func getByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error, preloads ...string) (*T, error) {
	var result T
	q := db.WithContext(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.Where(field+" = ?", value).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listByField retrieves every record of type T matching field=value, ordered
// by orderBy if non-empty. Returns an empty (not nil) slice when there are
// no matches.
func listByField[T any](db *gorm.DB, ctx context.Context, field string, value any, orderBy string) ([]*T, error) {
	var results []*T
	q := db.WithContext(ctx).Where(field+" = ?", value)
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// createWithID generates a UUID for the entity if it has none, then creates it.
func createWithID[T any](db *gorm.DB, ctx context.Context, entity *T, idSetter func(*T, string), currentID string) (string, error) {
	id := currentID
	if id == "" {
		id = uuid.New().String()
		idSetter(entity, id)
	}
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		return "", err
	}
	return id, nil
}

// countByField counts rows of type T matching field=value.
func countByField[T any](db *gorm.DB, ctx context.Context, field string, value any) (int64, error) {
	var count int64
	var zero T
	if err := db.WithContext(ctx).Model(&zero).Where(field+" = ?", value).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
