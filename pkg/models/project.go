package models

import "time"

// Project is the storage tenant bound one-to-one to a chat hub channel.
// Its ID is used as the HKDF salt when deriving the per-tenant content key,
// so a project's ID must never be reused after deletion.
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ChannelID   string    `gorm:"uniqueIndex;not null;size:255" json:"channel_id"`
	Name        string    `gorm:"size:255" json:"name"`
	CreatedByID string    `gorm:"size:36" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectCascadeResult summarizes what a project-deletion cascade removed
// from the metadata store, so the caller (the Deletion Engine's
// project-deletion operation) can report counts and re-check content-hash
// reference counts outside the transaction that produced them.
type ProjectCascadeResult struct {
	FileCount     int
	VersionCount  int
	ContentHashes []string
}
