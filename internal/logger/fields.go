package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // correlation id propagated across an operation
	KeySpanID  = "span_id"  // sub-step id within a traced operation

	// ========================================================================
	// Operation & Actor
	// ========================================================================
	KeyOperation = "operation" // logical operation name: checkout, checkin, create, delete...
	KeyActorID   = "actor_id"  // user id performing the operation
	KeyProjectID = "project_id"
	KeyFileID    = "file_id"
	KeyVersion   = "version" // FileVersion.versionNumber

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP  = "client_ip"
	KeyUserAgent = "user_agent"

	// ========================================================================
	// Content & Storage
	// ========================================================================
	KeyContentHash = "content_hash"
	KeySize        = "size_bytes"
	KeyStorePath   = "store_path"
	KeyEncrypted   = "encrypted"

	// ========================================================================
	// Lock
	// ========================================================================
	KeyLockOwner  = "lock_owner"
	KeyLockExpiry = "lock_expiry"

	// ========================================================================
	// Token Service
	// ========================================================================
	KeyToken = "token"

	// ========================================================================
	// Deletion Engine
	// ========================================================================
	KeyDeletionRecordID = "deletion_record_id"
	KeyWipeMethod        = "wipe_method"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeySource     = "source"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
	KeyOutcome    = "outcome"
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for the correlation id.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for a sub-step id.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns a slog.Attr for the logical operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// ActorID returns a slog.Attr for the acting user id.
func ActorID(id string) slog.Attr {
	return slog.String(KeyActorID, id)
}

// ProjectID returns a slog.Attr for a project id.
func ProjectID(id string) slog.Attr {
	return slog.String(KeyProjectID, id)
}

// FileID returns a slog.Attr for a file id.
func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// Version returns a slog.Attr for a file version number.
func Version(v int32) slog.Attr {
	return slog.Int(KeyVersion, int(v))
}

// ClientIP returns a slog.Attr for the client IP address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// UserAgent returns a slog.Attr for the client user agent.
func UserAgent(ua string) slog.Attr {
	return slog.String(KeyUserAgent, ua)
}

// ContentHash returns a slog.Attr for a content hash.
func ContentHash(h string) slog.Attr {
	return slog.String(KeyContentHash, h)
}

// Size returns a slog.Attr for a byte size.
func Size(n uint64) slog.Attr {
	return slog.Uint64(KeySize, n)
}

// StorePath returns a slog.Attr for a blob path.
func StorePath(p string) slog.Attr {
	return slog.String(KeyStorePath, p)
}

// Encrypted returns a slog.Attr indicating whether content is encrypted.
func Encrypted(b bool) slog.Attr {
	return slog.Bool(KeyEncrypted, b)
}

// LockOwner returns a slog.Attr for the lock owner's user id.
func LockOwner(owner string) slog.Attr {
	return slog.String(KeyLockOwner, owner)
}

// LockExpiry returns a slog.Attr for a lock's expiry timestamp, RFC3339-formatted by the caller.
func LockExpiry(expiresAt string) slog.Attr {
	return slog.String(KeyLockExpiry, expiresAt)
}

// Token returns a slog.Attr for a download token. Callers should pass a truncated
// or redacted form; the full token is a bearer credential and must not be logged in full.
func Token(t string) slog.Attr {
	return slog.String(KeyToken, t)
}

// DeletionRecordID returns a slog.Attr for a deletion record id.
func DeletionRecordID(id string) slog.Attr {
	return slog.String(KeyDeletionRecordID, id)
}

// WipeMethod returns a slog.Attr for the secure-delete method used.
func WipeMethod(method string) slog.Attr {
	return slog.String(KeyWipeMethod, method)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Source returns a slog.Attr for the originating component.
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry count.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Outcome returns a slog.Attr for an audit outcome (SUCCESS, FAILURE, DENIED, PARTIAL).
func Outcome(o string) slog.Attr {
	return slog.String(KeyOutcome, o)
}
