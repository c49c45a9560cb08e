// Package apierr defines the discriminated error variants the file lifecycle
// engine raises. Each kind in the error-handling design carries the fields a
// caller needs to react to it programmatically, rather than forcing callers
// to string-match a sentinel. Consumers use errors.As to recover a variant.
package apierr

import (
	"fmt"
	"time"
)

// FileNotFoundError is raised when a referenced file or version is absent.
type FileNotFoundError struct {
	FileID string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.FileID)
}

// VersionNotFoundError is raised when a specific version number is absent.
type VersionNotFoundError struct {
	FileID        string
	VersionNumber int32
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("file %s has no version %d", e.FileID, e.VersionNumber)
}

// FileLockedError is raised when a concurrent owner holds the lock.
type FileLockedError struct {
	FileID    string
	OwnerID   string
	LockedAt  time.Time
	ExpiresAt time.Time
}

func (e *FileLockedError) Error() string {
	return fmt.Sprintf("file %s is locked by %s until %s", e.FileID, e.OwnerID, e.ExpiresAt.Format(time.RFC3339))
}

// LockNotFoundError is raised by release/extend on a file with no lock.
type LockNotFoundError struct {
	FileID string
}

func (e *LockNotFoundError) Error() string {
	return fmt.Sprintf("no lock held on file %s", e.FileID)
}

// UnauthorizedError is raised when the actor is not the owner of a lock (or
// otherwise lacks the authority the operation requires).
type UnauthorizedError struct {
	FileID  string
	ActorID string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %s is not authorized for file %s", e.ActorID, e.FileID)
}

// AccessDeniedError is raised when the actor is not a member of the hub channel.
type AccessDeniedError struct {
	ActorID   string
	ProjectID string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("actor %s does not have access to project %s", e.ActorID, e.ProjectID)
}

// TokenExpiredError is raised when a download token is absent or past its TTL.
type TokenExpiredError struct {
	Token string
}

func (e *TokenExpiredError) Error() string {
	return "download token expired or unknown"
}

// TokenAlreadyUsedError reports reuse of a single-use token. pkg/token never
// returns it: a consumed token is deleted, so a second consume gets
// TokenExpiredError.
type TokenAlreadyUsedError struct {
	Token string
}

func (e *TokenAlreadyUsedError) Error() string {
	return "download token already used"
}

// TokenUserMismatchError is raised when the consuming user differs from the
// token's issued user.
type TokenUserMismatchError struct {
	Token           string
	IssuedToUserID  string
	RequestedByUser string
}

func (e *TokenUserMismatchError) Error() string {
	return fmt.Sprintf("token was issued to %s, not %s", e.IssuedToUserID, e.RequestedByUser)
}

// ProjectAlreadyExistsError is raised when a hub channel is already bound to a project.
type ProjectAlreadyExistsError struct {
	ChannelID string
}

func (e *ProjectAlreadyExistsError) Error() string {
	return fmt.Sprintf("channel %s is already bound to a project", e.ChannelID)
}

// FileNameConflictError is raised when create() collides with an existing
// case-insensitive file name in the project.
type FileNameConflictError struct {
	ProjectID string
	Name      string
}

func (e *FileNameConflictError) Error() string {
	return fmt.Sprintf("a file named %q already exists in project %s", e.Name, e.ProjectID)
}

// PayloadTooLargeError is raised when create() or checkin() is given a
// payload larger than the configured storage.max_upload_size.
type PayloadTooLargeError struct {
	SizeBytes  int64
	LimitBytes int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("upload of %d bytes exceeds the %d byte limit", e.SizeBytes, e.LimitBytes)
}

// StillReferencedError is raised when deletion is refused because versions
// still reference the content hash.
type StillReferencedError struct {
	ContentHash    string
	ReferenceCount int64
}

func (e *StillReferencedError) Error() string {
	return fmt.Sprintf("content %s is still referenced by %d version(s)", e.ContentHash, e.ReferenceCount)
}

// CorruptedContentError is raised on a GCM authentication-tag mismatch during retrieve.
type CorruptedContentError struct {
	ContentHash string
}

func (e *CorruptedContentError) Error() string {
	return fmt.Sprintf("content %s failed authentication on retrieve", e.ContentHash)
}

// StorageInconsistentError is raised when a blob is missing for an otherwise valid token.
type StorageInconsistentError struct {
	ContentHash string
}

func (e *StorageInconsistentError) Error() string {
	return fmt.Sprintf("blob for content %s is missing despite a valid reference", e.ContentHash)
}

// DeletionError wraps a failed secure-delete, preserving the underlying cause.
type DeletionError struct {
	ContentHash string
	Cause       error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("secure delete of %s failed: %v", e.ContentHash, e.Cause)
}

func (e *DeletionError) Unwrap() error {
	return e.Cause
}

// TransientError marks a retriable infrastructure failure.
type TransientError struct {
	Op    string
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}
