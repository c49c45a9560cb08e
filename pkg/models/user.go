package models

import "time"

// User is a chat-platform identity, created lazily on first observation.
// The store has no operation that deletes users, and the schema has no
// foreign key from FileVersion or AuditLog rows to this table.
type User struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	PlatformUserID   string    `gorm:"uniqueIndex:idx_platform_identity;not null;size:255" json:"platform_user_id"`
	PlatformTeamID   string    `gorm:"uniqueIndex:idx_platform_identity;not null;size:255" json:"platform_team_id"`
	DisplayName      string    `gorm:"size:255" json:"display_name"`
	Email            string    `gorm:"size:255" json:"email,omitempty"`
	AvatarURL        string    `gorm:"size:1024" json:"avatar_url,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// GetDisplayName returns the display name, falling back to the platform user id.
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.PlatformUserID
}
