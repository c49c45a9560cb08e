package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/productinventor/filevault/pkg/models"
)

// GetOrCreateUser looks up a user by (platformTeamID, platformUserID),
// creating one lazily on first observation.
func (s *GORMStore) GetOrCreateUser(ctx context.Context, platformTeamID, platformUserID, displayName string) (*models.User, error) {
	var existing models.User
	err := s.db.WithContext(ctx).
		Where("platform_team_id = ? AND platform_user_id = ?", platformTeamID, platformUserID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user := &models.User{
		PlatformTeamID: platformTeamID,
		PlatformUserID: platformUserID,
		DisplayName:    displayName,
	}
	if _, err := createWithID(s.db, ctx, user, func(u *models.User, id string) { u.ID = id }, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by its internal ID.
func (s *GORMStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}
