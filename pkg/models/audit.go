package models

import "time"

// EventKind discriminates the kind of event an AuditLog entry records. The
// set is non-exhaustive by design: new kinds may be added as the engine
// grows without touching the schema.
type EventKind string

const (
	EventFileUpload           EventKind = "FILE_UPLOAD"
	EventFileDownload         EventKind = "FILE_DOWNLOAD"
	EventFileView             EventKind = "FILE_VIEW"
	EventFileCheckout         EventKind = "FILE_CHECKOUT"
	EventFileCheckin          EventKind = "FILE_CHECKIN"
	EventFileDelete           EventKind = "FILE_DELETE"
	EventAccessDenied         EventKind = "ACCESS_DENIED"
	EventAccessRevoked        EventKind = "ACCESS_REVOKED"
	EventLockForceRelease     EventKind = "LOCK_FORCE_RELEASE"
	EventDownloadTokenCreated EventKind = "DOWNLOAD_TOKEN_CREATED"
	EventDownloadTokenUsed    EventKind = "DOWNLOAD_TOKEN_USED"
	EventDownloadTokenExpired EventKind = "DOWNLOAD_TOKEN_EXPIRED"
	EventSecureDeleteStarted  EventKind = "SECURE_DELETE_STARTED"
	EventSecureDeleteComplete EventKind = "SECURE_DELETE_COMPLETED"
	EventProjectDelete        EventKind = "PROJECT_DELETE"
	EventAdminOverride        EventKind = "ADMIN_OVERRIDE"
)

// securityEventKinds is the subset of event kinds a compliance report
// surfaces as "security events" — access and token-integrity concerns,
// as opposed to ordinary file-lifecycle traffic.
var securityEventKinds = map[EventKind]bool{
	EventAccessDenied:         true,
	EventAccessRevoked:        true,
	EventLockForceRelease:     true,
	EventDownloadTokenExpired: true,
	EventSecureDeleteStarted:  true,
	EventSecureDeleteComplete: true,
	EventAdminOverride:        true,
}

// IsSecurityEvent reports whether k belongs to the security-relevant subset
// a compliance report lists separately.
func (k EventKind) IsSecurityEvent() bool {
	return securityEventKinds[k]
}

// AuditOutcome is the result of the operation or access decision an
// AuditLog entry records.
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "SUCCESS"
	OutcomeFailure AuditOutcome = "FAILURE"
	OutcomeDenied  AuditOutcome = "DENIED"
	OutcomePartial AuditOutcome = "PARTIAL"
)

// AuditLog is an append-only record of every lifecycle operation and access
// decision. Writes to this table are best-effort: a failure here must never
// fail the caller's underlying operation (see pkg/audit). The composite
// indexes mirror the two access patterns the compliance report and the
// per-file history view need: by project over time, and by file over time.
type AuditLog struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	ProjectID     string       `gorm:"size:36;index:idx_audit_project_time,priority:1" json:"project_id"`
	FileID        string       `gorm:"size:36;index:idx_audit_file_time,priority:1" json:"file_id,omitempty"`
	FileVersionID string       `gorm:"size:36" json:"file_version_id,omitempty"`
	ActorID       string       `gorm:"size:36" json:"actor_id"`
	EventKind     EventKind    `gorm:"not null;size:64" json:"event_kind"`
	Outcome       AuditOutcome `gorm:"not null;size:16" json:"outcome"`
	IPAddress     string       `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent     string       `gorm:"size:256" json:"user_agent,omitempty"`
	Detail        string       `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt     time.Time    `gorm:"autoCreateTime;index:idx_audit_project_time,priority:2;index:idx_audit_file_time,priority:2" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// DeletionStatus is the lifecycle state of a DeletionRecord.
type DeletionStatus string

const (
	DeletionPending    DeletionStatus = "PENDING"
	DeletionInProgress DeletionStatus = "IN_PROGRESS"
	DeletionCompleted  DeletionStatus = "COMPLETED"
	DeletionFailed     DeletionStatus = "FAILED"
	DeletionVerified   DeletionStatus = "VERIFIED"
)

// DeletionRecord tracks one secure-delete attempt against a content blob,
// from request through the DoD 5220.22-M wipe to certificate issuance.
type DeletionRecord struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	ContentHash     string         `gorm:"not null;index;size:64" json:"content_hash"`
	ProjectID       string         `gorm:"index;size:36" json:"project_id"`
	Status          DeletionStatus `gorm:"not null;size:32" json:"status"`
	RequestedBy     string         `gorm:"size:36" json:"requested_by"`
	Reason          string         `gorm:"size:1024" json:"reason,omitempty"`
	SecureWipeUsed  bool           `gorm:"not null" json:"secure_wipe_used"`
	VerificationHash string        `gorm:"size:64" json:"verification_hash,omitempty"`
	SizeBytes       int64          `gorm:"not null" json:"size_bytes"`
	Error           string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

func (DeletionRecord) TableName() string {
	return "deletion_records"
}

// WipeMethodLabel renders the record's method the way a certificate displays it.
func (d *DeletionRecord) WipeMethodLabel() string {
	if d.SecureWipeUsed {
		return "DoD 5220.22-M (3-pass)"
	}
	return "Standard deletion"
}
