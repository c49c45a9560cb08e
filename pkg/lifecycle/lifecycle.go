// Package lifecycle implements the Lifecycle Coordinator: the façade that
// orchestrates the Lock Manager, Version Manager, Content Store and Audit
// Log into the five public operations a caller (HTTP handler, chat slash
// command, CLI) actually invokes. It holds no Token Service and runs no
// access check; download tokens are consumed by pkg/api/handlers.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/productinventor/filevault/internal/bytesize"
	"github.com/productinventor/filevault/internal/logger"
	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/audit"
	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/lock"
	"github.com/productinventor/filevault/pkg/metrics"
	"github.com/productinventor/filevault/pkg/models"
	"github.com/productinventor/filevault/pkg/version"
)

// Store is the subset of the metadata store the coordinator depends on
// directly (version/lock managers own the rest through their own narrow
// interfaces).
type Store interface {
	CreateFile(ctx context.Context, file *models.File) (string, error)
	GetFileByID(ctx context.Context, id string) (*models.File, error)
	ListFilesByProject(ctx context.Context, projectID string) ([]*models.File, error)
	DeleteFileCascade(ctx context.Context, fileID string) error
	GetVersionByID(ctx context.Context, id string) (*models.FileVersion, error)
	GetVersionByNumber(ctx context.Context, fileID string, versionNumber int32) (*models.FileVersion, error)
}

// ContentStore is the subset of pkg/content.Store the coordinator depends on.
// Put/Get stream through an io.Reader/io.ReadCloser rather than a byte
// slice so a multi-GiB upload or download never needs a multi-GiB buffer.
type ContentStore interface {
	Put(ctx context.Context, masterKey []byte, projectID string, src io.Reader) (hash string, size int64, err error)
	Get(ctx context.Context, masterKey []byte, projectID, hash string) (io.ReadCloser, error)
	PathFor(hash string) (string, error)
}

// errPayloadTooLarge is the sentinel a sizeLimitReader's Read returns once
// the configured upload limit is exceeded. Checkin/Create translate it
// into *apierr.PayloadTooLargeError before it reaches the caller.
var errPayloadTooLarge = errors.New("lifecycle: payload exceeds configured upload limit")

// sizeLimitReader wraps src and fails with errPayloadTooLarge as soon as
// more than limit bytes have been read, rejecting an oversized upload
// mid-stream instead of after buffering (or writing) the whole payload.
type sizeLimitReader struct {
	src   io.Reader
	limit int64
	read  int64
}

func (r *sizeLimitReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	r.read += int64(n)
	if r.read > r.limit {
		return n, errPayloadTooLarge
	}
	return n, err
}

// Coordinator is the Lifecycle Coordinator component.
type Coordinator struct {
	store         Store
	locks         *lock.Manager
	versions      *version.Manager
	content       ContentStore
	auditLog      *audit.Log
	masterKey     []byte
	log           *slog.Logger
	metrics       *metrics.Metrics
	maxUploadSize bytesize.ByteSize
}

// Config bundles the Coordinator's dependencies.
type Config struct {
	Store     Store
	Locks     *lock.Manager
	Versions  *version.Manager
	Content   ContentStore
	Audit     *audit.Log
	MasterKey []byte
	Log       *slog.Logger
	Metrics   *metrics.Metrics

	// MaxUploadSize rejects Create/Checkin payloads larger than this. Zero
	// means no limit.
	MaxUploadSize bytesize.ByteSize
}

// New constructs a Coordinator from cfg.
func New(cfg Config) *Coordinator {
	l := cfg.Log
	if l == nil {
		l = slog.Default()
	}
	return &Coordinator{
		store:         cfg.Store,
		locks:         cfg.Locks,
		versions:      cfg.Versions,
		content:       cfg.Content,
		auditLog:      cfg.Audit,
		masterKey:     cfg.MasterKey,
		log:           l,
		metrics:       cfg.Metrics,
		maxUploadSize: cfg.MaxUploadSize,
	}
}

// limitUploadSize wraps source with a sizeLimitReader when the coordinator
// has a configured MaxUploadSize, so Checkin/Create reject an oversized
// payload as soon as the limit is crossed rather than after it has been
// fully streamed to disk. It returns source unchanged when no limit is set.
func (c *Coordinator) limitUploadSize(source io.Reader) (io.Reader, *sizeLimitReader) {
	if c.maxUploadSize <= 0 {
		return source, nil
	}
	limiter := &sizeLimitReader{src: source, limit: int64(c.maxUploadSize)}
	return limiter, limiter
}

func (c *Coordinator) timeOperation(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.metrics.RecordOperation(operation, err == nil, time.Since(start).Seconds())
	if err != nil {
		c.log.ErrorContext(ctx, "lifecycle operation failed", logger.Operation(operation), logger.Err(err))
	}
	return err
}

// Checkout acquires the exclusive edit lock on fileID for userID and
// resolves the blob path of its current version. It never reads or
// mutates blob content.
func (c *Coordinator) Checkout(ctx context.Context, fileID, userID string) (*models.File, string, error) {
	var file *models.File
	var blobPath string

	err := c.timeOperation(ctx, "checkout", func() error {
		f, err := c.store.GetFileByID(ctx, fileID)
		if err != nil {
			return err
		}

		if _, err := c.locks.Acquire(ctx, fileID, userID); err != nil {
			c.auditLog.Record(ctx, audit.Entry{
				ProjectID: f.ProjectID, FileID: fileID, ActorID: userID,
				Kind: models.EventFileCheckout, Outcome: models.OutcomeDenied, Detail: err.Error(),
			})
			return err
		}

		f, err = c.store.GetFileByID(ctx, fileID)
		if err != nil {
			return err
		}
		if f.CurrentVersionID != "" {
			v, err := c.store.GetVersionByID(ctx, f.CurrentVersionID)
			if err != nil {
				return err
			}
			p, err := c.content.PathFor(v.ContentHash)
			if err != nil {
				return err
			}
			blobPath = p
		}
		file = f
		c.auditLog.Record(ctx, audit.Entry{
			ProjectID: f.ProjectID, FileID: fileID, ActorID: userID,
			Kind: models.EventFileCheckout, Outcome: models.OutcomeSuccess,
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return file, blobPath, nil
}

// Checkin uploads new content for fileID, requires userID to hold its
// lock, and atomically records the new version, advances the current
// version pointer, and releases the lock. The blob write happens before
// the metadata transaction, so a transaction failure leaves at worst an
// orphaned, dedup-harmless blob rather than inconsistent metadata.
func (c *Coordinator) Checkin(ctx context.Context, fileID, userID string, source io.Reader, message string) (*models.File, *models.FileVersion, error) {
	var file *models.File
	var newVersion *models.FileVersion

	err := c.timeOperation(ctx, "checkin", func() error {
		f, err := c.store.GetFileByID(ctx, fileID)
		if err != nil {
			return err
		}

		locked, err := c.locks.IsLockedBy(ctx, fileID, userID)
		if err != nil {
			return err
		}
		if !locked {
			c.auditLog.Record(ctx, audit.Entry{
				ProjectID: f.ProjectID, FileID: fileID, ActorID: userID,
				Kind: models.EventFileCheckin, Outcome: models.OutcomeDenied, Detail: "not lock owner",
			})
			return &apierr.UnauthorizedError{FileID: fileID, ActorID: userID}
		}

		limited, limiter := c.limitUploadSize(source)
		hash, size, err := c.content.Put(ctx, c.masterKey, f.ProjectID, limited)
		if err != nil {
			if errors.Is(err, errPayloadTooLarge) {
				tooLarge := &apierr.PayloadTooLargeError{SizeBytes: limiter.read, LimitBytes: int64(c.maxUploadSize)}
				c.auditLog.Record(ctx, audit.Entry{
					ProjectID: f.ProjectID, FileID: fileID, ActorID: userID,
					Kind: models.EventFileCheckin, Outcome: models.OutcomeDenied, Detail: tooLarge.Error(),
				})
				return tooLarge
			}
			c.auditLog.Record(ctx, audit.Entry{
				ProjectID: f.ProjectID, FileID: fileID, ActorID: userID,
				Kind: models.EventFileCheckin, Outcome: models.OutcomeFailure, Detail: err.Error(),
			})
			return err
		}

		v, err := c.versions.AddVersion(ctx, version.AddVersionInput{
			FileID:           fileID,
			ContentHash:      hash,
			SizeBytes:        size,
			CreatedByID:      userID,
			CommitMessage:    message,
			ReleaseLockOwner: userID,
		})
		if err != nil {
			c.auditLog.Record(ctx, audit.Entry{
				ProjectID: f.ProjectID, FileID: fileID, ActorID: userID,
				Kind: models.EventFileCheckin, Outcome: models.OutcomeFailure, Detail: err.Error(),
			})
			return err
		}

		f, err = c.store.GetFileByID(ctx, fileID)
		if err != nil {
			return err
		}
		file = f
		newVersion = v
		c.auditLog.Record(ctx, audit.Entry{
			ProjectID: f.ProjectID, FileID: fileID, FileVersionID: v.ID, ActorID: userID,
			Kind: models.EventFileCheckin, Outcome: models.OutcomeSuccess,
			Detail: fmt.Sprintf("version=%d", v.VersionNumber),
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return file, newVersion, nil
}

// DetectMimeType derives a file's MIME type from its name's extension, for
// callers (the download-token issuer) that need one. The File model itself
// carries no mime_type column — it isn't part of the persisted schema —
// so this is recomputed on demand rather than stored at create time.
func DetectMimeType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// normalizePath ensures a leading "/", collapses duplicate "/" separators,
// and strips a trailing "/" except at the root.
func normalizePath(p string) string {
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = path.Clean(p)
	if p == "." {
		p = "/"
	}
	return p
}

// Create uploads a brand-new file into a project, rejecting a case-
// insensitive name collision within the project.
func (c *Coordinator) Create(ctx context.Context, projectID, name, filePath, mimeType string, source io.Reader, uploaderID, message string) (*models.File, error) {
	var file *models.File

	err := c.timeOperation(ctx, "create", func() error {
		existing, err := c.store.ListFilesByProject(ctx, projectID)
		if err != nil {
			return err
		}
		lowerName := strings.ToLower(name)
		for _, f := range existing {
			if strings.ToLower(f.Name) == lowerName {
				c.auditLog.Record(ctx, audit.Entry{
					ProjectID: projectID, ActorID: uploaderID,
					Kind: models.EventFileUpload, Outcome: models.OutcomeDenied, Detail: "name conflict",
				})
				return &apierr.FileNameConflictError{ProjectID: projectID, Name: name}
			}
		}

		_ = normalizePath(filePath) // descriptive/organizational only; not part of the uniqueness key

		limited, limiter := c.limitUploadSize(source)
		hash, size, err := c.content.Put(ctx, c.masterKey, projectID, limited)
		if err != nil {
			if errors.Is(err, errPayloadTooLarge) {
				tooLarge := &apierr.PayloadTooLargeError{SizeBytes: limiter.read, LimitBytes: int64(c.maxUploadSize)}
				c.auditLog.Record(ctx, audit.Entry{
					ProjectID: projectID, ActorID: uploaderID,
					Kind: models.EventFileUpload, Outcome: models.OutcomeDenied, Detail: tooLarge.Error(),
				})
				return tooLarge
			}
			c.auditLog.Record(ctx, audit.Entry{
				ProjectID: projectID, ActorID: uploaderID,
				Kind: models.EventFileUpload, Outcome: models.OutcomeFailure, Detail: err.Error(),
			})
			return err
		}

		f := &models.File{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			Name:        name,
			CreatedByID: uploaderID,
		}
		fileID, err := c.store.CreateFile(ctx, f)
		if err != nil {
			return err
		}
		f.ID = fileID

		v, err := c.versions.AddVersion(ctx, version.AddVersionInput{
			FileID:        fileID,
			ContentHash:   hash,
			SizeBytes:     size,
			CreatedByID:   uploaderID,
			CommitMessage: message,
		})
		if err != nil {
			return err
		}

		f, err = c.store.GetFileByID(ctx, fileID)
		if err != nil {
			return err
		}
		file = f
		c.auditLog.Record(ctx, audit.Entry{
			ProjectID: projectID, FileID: fileID, FileVersionID: v.ID, ActorID: uploaderID,
			Kind: models.EventFileUpload, Outcome: models.OutcomeSuccess,
			Detail: fmt.Sprintf("version=%d", v.VersionNumber),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// GetVersionPath resolves the blob path for a file's current version, or a
// specific version number when versionNumber is non-zero.
func (c *Coordinator) GetVersionPath(ctx context.Context, fileID string, versionNumber int32) (string, error) {
	f, err := c.store.GetFileByID(ctx, fileID)
	if err != nil {
		return "", err
	}

	var v *models.FileVersion
	if versionNumber == 0 {
		if f.CurrentVersionID == "" {
			return "", &apierr.VersionNotFoundError{FileID: fileID, VersionNumber: 0}
		}
		v, err = c.store.GetVersionByID(ctx, f.CurrentVersionID)
	} else {
		v, err = c.store.GetVersionByNumber(ctx, fileID, versionNumber)
	}
	if err != nil {
		return "", err
	}
	return c.content.PathFor(v.ContentHash)
}

// Delete removes a file and its versions, rejecting the call if the file
// is currently locked. Blobs are never touched here: garbage collection of
// unreferenced content is a separate, out-of-band deletion-engine
// operation, so that admin policy controls when secure wipes run.
func (c *Coordinator) Delete(ctx context.Context, fileID, actorID string) error {
	return c.timeOperation(ctx, "delete", func() error {
		f, err := c.store.GetFileByID(ctx, fileID)
		if err != nil {
			return err
		}

		locked, lockInfo, err := c.locks.IsLocked(ctx, fileID)
		if err != nil {
			return err
		}
		if locked {
			c.auditLog.Record(ctx, audit.Entry{
				ProjectID: f.ProjectID, FileID: fileID, ActorID: actorID,
				Kind: models.EventFileDelete, Outcome: models.OutcomeDenied, Detail: "file is locked",
			})
			return &apierr.FileLockedError{FileID: fileID, OwnerID: lockInfo.OwnerID, LockedAt: lockInfo.AcquiredAt, ExpiresAt: lockInfo.ExpiresAt}
		}

		if err := c.store.DeleteFileCascade(ctx, fileID); err != nil {
			c.auditLog.Record(ctx, audit.Entry{
				ProjectID: f.ProjectID, FileID: fileID, ActorID: actorID,
				Kind: models.EventFileDelete, Outcome: models.OutcomeFailure, Detail: err.Error(),
			})
			return err
		}
		c.auditLog.Record(ctx, audit.Entry{
			ProjectID: f.ProjectID, FileID: fileID, ActorID: actorID,
			Kind: models.EventFileDelete, Outcome: models.OutcomeSuccess,
		})
		return nil
	})
}
