// Package deletion implements the Deletion Engine: reference-counted,
// securely-wiped removal of content blobs, full project teardown, and
// the deletion certificates that prove a wipe took place.
package deletion

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/productinventor/filevault/internal/logger"
	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/audit"
	"github.com/productinventor/filevault/pkg/metrics"
	"github.com/productinventor/filevault/pkg/models"
)

const wipeBufferSize = 64 * 1024

// ContentStore is the subset of pkg/content.Store the engine depends on.
type ContentStore interface {
	PathFor(hash string) (string, error)
	Exists(hash string) (bool, error)
}

// Store is the subset of the metadata store the engine depends on.
type Store interface {
	CountVersionsByContentHash(ctx context.Context, contentHash string) (int64, error)
	CreateDeletionRecord(ctx context.Context, record *models.DeletionRecord) error
	UpdateDeletionRecord(ctx context.Context, record *models.DeletionRecord) error
	GetDeletionRecordByID(ctx context.Context, id string) (*models.DeletionRecord, error)
	ListDeletionRecordsByContentHash(ctx context.Context, contentHash string) ([]*models.DeletionRecord, error)
	DeleteProjectCascade(ctx context.Context, projectID string) (*models.ProjectCascadeResult, error)
}

// Engine is the Deletion Engine component.
type Engine struct {
	content  ContentStore
	store    Store
	log      *slog.Logger
	metrics  *metrics.Metrics
	auditLog *audit.Log
}

// New constructs an Engine. m and auditLog may be nil; auditLog nil means
// DeleteProject's PROJECT_DELETE event is simply not recorded (all other
// operations in this package have no audit event of their own — see
// DESIGN.md).
func New(content ContentStore, store Store, log *slog.Logger, m *metrics.Metrics, auditLog *audit.Log) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{content: content, store: store, log: log, metrics: m, auditLog: auditLog}
}

// SecureDeleteContent securely wipes the blob for contentHash if, and only
// if, no FileVersion still references it. Refusing to wipe a referenced
// blob is reported as *apierr.StillReferencedError, never silently skipped.
func (e *Engine) SecureDeleteContent(ctx context.Context, contentHash, requestedBy, reason string, projectID string) (*models.DeletionRecord, error) {
	count, err := e.store.CountVersionsByContentHash(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &apierr.StillReferencedError{ContentHash: contentHash, ReferenceCount: count}
	}

	record := &models.DeletionRecord{
		ID:          uuid.New().String(),
		ContentHash: contentHash,
		ProjectID:   projectID,
		Status:      models.DeletionInProgress,
		RequestedBy: requestedBy,
		Reason:      reason,
	}
	if err := e.store.CreateDeletionRecord(ctx, record); err != nil {
		return nil, err
	}
	e.log.InfoContext(ctx, "secure delete started", logger.ContentHash(contentHash))

	exists, err := e.content.Exists(contentHash)
	if err != nil {
		return e.fail(ctx, record, err)
	}
	if !exists {
		now := time.Now()
		record.SecureWipeUsed = false
		record.VerificationHash = verificationHash("already_deleted", contentHash, now)
		record.CompletedAt = &now
		record.Status = models.DeletionCompleted
		if err := e.store.UpdateDeletionRecord(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	path, err := e.content.PathFor(contentHash)
	if err != nil {
		return e.fail(ctx, record, err)
	}

	wipeStart := time.Now()
	size, err := secureWipe(ctx, path)
	e.metrics.RecordWipe(err == nil, time.Since(wipeStart).Seconds())
	if err != nil {
		return e.fail(ctx, record, err)
	}

	now := time.Now()
	record.SizeBytes = size
	record.SecureWipeUsed = true
	record.VerificationHash = verificationHash("deleted", contentHash, now)
	record.CompletedAt = &now
	record.Status = models.DeletionCompleted
	if err := e.store.UpdateDeletionRecord(ctx, record); err != nil {
		return nil, err
	}
	e.log.InfoContext(ctx, "secure delete completed", logger.ContentHash(contentHash))
	return record, nil
}

func (e *Engine) fail(ctx context.Context, record *models.DeletionRecord, cause error) (*models.DeletionRecord, error) {
	record.Status = models.DeletionFailed
	record.Error = cause.Error()
	if err := e.store.UpdateDeletionRecord(ctx, record); err != nil {
		e.log.ErrorContext(ctx, "failed to persist failed deletion record",
			logger.ContentHash(record.ContentHash), logger.Err(err))
	}
	return record, &apierr.DeletionError{ContentHash: record.ContentHash, Cause: cause}
}

// RetryDeletion re-attempts a FAILED deletion record, with the reason
// prefixed to note this is a retry. Only FAILED records may be retried.
func (e *Engine) RetryDeletion(ctx context.Context, recordID, actor string) (*models.DeletionRecord, error) {
	record, err := e.store.GetDeletionRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.DeletionFailed {
		return nil, fmt.Errorf("deletion: record %s is not FAILED, cannot retry", recordID)
	}
	return e.SecureDeleteContent(ctx, record.ContentHash, actor, "Retry: "+record.Reason, record.ProjectID)
}

// ProjectDeletionReport summarizes a deleteProject run: how many files and
// versions the metadata cascade removed, how many of the project's unique
// content hashes were actually wiped (as opposed to skipped because another
// project still references them), and any per-hash wipe errors. Outcome is
// PARTIAL rather than SUCCESS when any blob-level deletion failed — the
// metadata cascade itself is all-or-nothing (one transaction), so it never
// partially fails.
type ProjectDeletionReport struct {
	ProjectID       string              `json:"project_id"`
	FilesDeleted    int                 `json:"files_deleted"`
	VersionsDeleted int                 `json:"versions_deleted"`
	BlobsDeleted    int                 `json:"blobs_deleted"`
	BlobsSkipped    int                 `json:"blobs_skipped"`
	BlobErrors      map[string]string   `json:"blob_errors,omitempty"`
	Outcome         models.AuditOutcome `json:"outcome"`
}

// DeleteProject deletes every file, version, lock, and reference belonging
// to projectID in a single metadata transaction, then — outside that
// transaction — re-checks each content hash the project's versions used: a
// hash still referenced by another project's versions is left alone (cross-
// project content reuse is deliberate, per pkg/content's per-project
// envelope keys), and every hash with a zero reference count is securely
// wiped. A per-hash wipe failure does not abort the run; it is recorded in
// BlobErrors and the overall outcome is downgraded to PARTIAL.
func (e *Engine) DeleteProject(ctx context.Context, projectID, actor, reason string) (*ProjectDeletionReport, error) {
	cascade, err := e.store.DeleteProjectCascade(ctx, projectID)
	if err != nil {
		return nil, err
	}

	report := &ProjectDeletionReport{
		ProjectID:       projectID,
		FilesDeleted:    cascade.FileCount,
		VersionsDeleted: cascade.VersionCount,
		BlobErrors:      map[string]string{},
		Outcome:         models.OutcomeSuccess,
	}

	for _, hash := range cascade.ContentHashes {
		count, err := e.store.CountVersionsByContentHash(ctx, hash)
		if err != nil {
			report.BlobErrors[hash] = err.Error()
			report.Outcome = models.OutcomePartial
			continue
		}
		if count > 0 {
			report.BlobsSkipped++
			continue
		}
		if _, err := e.SecureDeleteContent(ctx, hash, actor, reason, projectID); err != nil {
			report.BlobErrors[hash] = err.Error()
			report.Outcome = models.OutcomePartial
			continue
		}
		report.BlobsDeleted++
	}

	if len(report.BlobErrors) == 0 {
		report.BlobErrors = nil
	}

	e.log.InfoContext(ctx, "project deleted", logger.ProjectID(projectID), logger.Outcome(string(report.Outcome)))
	if e.auditLog != nil {
		e.auditLog.Record(ctx, audit.Entry{
			ProjectID: projectID, ActorID: actor,
			Kind: models.EventProjectDelete, Outcome: report.Outcome,
			Detail: fmt.Sprintf("files=%d versions=%d blobs_deleted=%d blobs_skipped=%d blob_errors=%d",
				report.FilesDeleted, report.VersionsDeleted, report.BlobsDeleted, report.BlobsSkipped, len(report.BlobErrors)),
		})
	}
	return report, nil
}

// Certificate is the proof-of-deletion document issued for a completed
// (or already-verified) deletion record.
type Certificate struct {
	CertificateID    string    `json:"certificate_id"`
	DeletionRecordID string    `json:"deletion_record_id"`
	ContentHash      string    `json:"content_hash"`
	DeletedAt        time.Time `json:"deleted_at"`
	WipeMethod       string    `json:"wipe_method"`
	VerificationHash string    `json:"verification_hash"`
	RequestedBy      string    `json:"requested_by"`
	Reason           string    `json:"reason"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// GenerateCertificate issues a Certificate for a COMPLETED or VERIFIED
// deletion record and transitions it to VERIFIED.
func (e *Engine) GenerateCertificate(ctx context.Context, deletionRecordID string) (*Certificate, error) {
	record, err := e.store.GetDeletionRecordByID(ctx, deletionRecordID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.DeletionCompleted && record.Status != models.DeletionVerified {
		return nil, fmt.Errorf("deletion: record %s is not eligible for a certificate (status %s)", deletionRecordID, record.Status)
	}

	var deletedAt time.Time
	if record.CompletedAt != nil {
		deletedAt = *record.CompletedAt
	}

	cert := &Certificate{
		CertificateID:    uuid.New().String(),
		DeletionRecordID: record.ID,
		ContentHash:      record.ContentHash,
		DeletedAt:        deletedAt,
		WipeMethod:       record.WipeMethodLabel(),
		VerificationHash: record.VerificationHash,
		RequestedBy:      record.RequestedBy,
		Reason:           record.Reason,
		GeneratedAt:      time.Now(),
	}

	record.Status = models.DeletionVerified
	if err := e.store.UpdateDeletionRecord(ctx, record); err != nil {
		return nil, err
	}
	return cert, nil
}

func verificationHash(label, contentHash string, t time.Time) string {
	var randomHex [8]byte
	_, _ = io.ReadFull(rand.Reader, randomHex[:])
	input := fmt.Sprintf("%s:%s:%d:%s", label, contentHash, t.UnixMilli(), hex.EncodeToString(randomHex[:]))
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// secureWipe overwrites path with three passes (zeros, ones, random) in
// 64KiB chunks, fsyncing each pass, then unlinks the file. Returns the
// file's size as observed before the first pass.
//
// Cancellation is checked between passes, never mid-pass: a pass already
// underway always runs to completion and is fsynced, since a partially
// overwritten file is already unrecoverable and abandoning it mid-write
// buys nothing. If ctx is cancelled after a pass completes, the wipe stops
// there, the file is left in place (already partially or fully overwritten,
// per how far the wipe got), and the caller marks the DeletionRecord FAILED
// — retry is the documented recovery path, not resuming mid-wipe.
func secureWipe(ctx context.Context, path string) (int64, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("deletion: opening blob: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("deletion: stat blob: %w", err)
	}
	size := info.Size()

	for _, fill := range []byte{0x00, 0xFF} {
		if err := overwritePass(f, size, fill); err != nil {
			f.Close()
			return size, err
		}
		if err := ctx.Err(); err != nil {
			f.Close()
			return size, fmt.Errorf("deletion: wipe cancelled: %w", err)
		}
	}
	if err := overwriteRandomPass(f, size); err != nil {
		f.Close()
		return size, err
	}
	if err := ctx.Err(); err != nil {
		f.Close()
		return size, fmt.Errorf("deletion: wipe cancelled: %w", err)
	}

	if err := f.Close(); err != nil {
		return size, fmt.Errorf("deletion: closing blob: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return size, fmt.Errorf("deletion: unlinking blob: %w", err)
	}
	return size, nil
}

func overwritePass(f *os.File, size int64, fill byte) error {
	buf := make([]byte, wipeBufferSize)
	for i := range buf {
		buf[i] = fill
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	var written int64
	for written < size {
		n := wipeBufferSize
		if remaining := size - written; remaining < int64(n) {
			n = int(remaining)
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return fmt.Errorf("deletion: overwrite pass: %w", err)
		}
		written += int64(n)
	}
	return f.Sync()
}

func overwriteRandomPass(f *os.File, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	buf := make([]byte, wipeBufferSize)
	var written int64
	for written < size {
		n := wipeBufferSize
		if remaining := size - written; remaining < int64(n) {
			n = int(remaining)
		}
		if _, err := io.ReadFull(rand.Reader, buf[:n]); err != nil {
			return fmt.Errorf("deletion: generating random pass: %w", err)
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return fmt.Errorf("deletion: overwrite pass: %w", err)
		}
		written += int64(n)
	}
	return f.Sync()
}
