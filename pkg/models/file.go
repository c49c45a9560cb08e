package models

import "time"

// File is the logical, named object inside a project. Its CurrentVersionID
// points at the FileVersion a checkout/download resolves to; the file
// itself carries no content, only identity and naming.
type File struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID        string    `gorm:"not null;uniqueIndex:idx_project_name,where:deleted_at IS NULL;size:36" json:"project_id"`
	Name             string    `gorm:"not null;uniqueIndex:idx_project_name,where:deleted_at IS NULL;size:1024" json:"name"`
	CurrentVersionID string    `gorm:"size:36" json:"current_version_id,omitempty"`
	CreatedByID      string    `gorm:"size:36" json:"created_by_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt        *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (File) TableName() string {
	return "files"
}

// FileVersion is one immutable snapshot of a file's content, pointing at
// the content-addressed blob by its hash (of the plaintext in standard
// mode, of the encrypted envelope in encrypted mode).
type FileVersion struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	FileID        string    `gorm:"not null;uniqueIndex:idx_file_version_number;size:36" json:"file_id"`
	VersionNumber int32     `gorm:"not null;uniqueIndex:idx_file_version_number" json:"version_number"`
	ContentHash   string    `gorm:"not null;index;size:64" json:"content_hash"`
	SizeBytes     int64     `gorm:"not null" json:"size_bytes"`
	CreatedByID   string    `gorm:"size:36" json:"created_by_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	CommitMessage string    `gorm:"size:2048" json:"commit_message,omitempty"`
}

func (FileVersion) TableName() string {
	return "file_versions"
}

// Content-hash reference counting (used to gate secure deletion) is derived
// by counting FileVersion rows per ContentHash (see pkg/store) — distinct
// from the FileReference share-record entity in reference.go.
