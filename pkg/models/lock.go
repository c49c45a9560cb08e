package models

import "time"

// FileLock is the exclusive, expiring checkout lock on a file. Its primary
// key is the FileID: a file can have at most one lock row at a time, and
// acquire relies on that uniqueness to resolve races atomically.
type FileLock struct {
	FileID    string    `gorm:"primaryKey;size:36" json:"file_id"`
	OwnerID   string    `gorm:"not null;size:36" json:"owner_id"`
	AcquiredAt time.Time `gorm:"not null" json:"acquired_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

func (FileLock) TableName() string {
	return "file_locks"
}

// IsExpired reports whether the lock's TTL has elapsed as of now.
func (l *FileLock) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}
