package models

import "time"

// FileReference is a share record: a file version posted into a chat
// channel message, independent of the project's own home channel. Its
// SharedVersion is pinned at share time and must never exceed the
// referenced file's CurrentVersionID version number at the moment of
// sharing or later. Neither the database nor pkg/lifecycle checks this;
// pkg/store.CreateReference stores the value as given.
type FileReference struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	FileID          string    `gorm:"not null;index;size:36" json:"file_id"`
	SourceProjectID string    `gorm:"not null;size:36" json:"source_project_id"`
	SharerID        string    `gorm:"not null;size:36" json:"sharer_id"`
	SharedVersion   int32     `gorm:"not null" json:"shared_version"`
	TargetChannelID string    `gorm:"not null;size:64" json:"target_channel_id"`
	TargetMessageID string    `gorm:"not null;size:64" json:"target_message_id"`
	ThreadID        string    `gorm:"size:64" json:"thread_id,omitempty"`
	SharedAt        time.Time `gorm:"autoCreateTime" json:"shared_at"`
}

// TableName overrides GORM's default pluralization.
func (FileReference) TableName() string {
	return "file_references"
}
