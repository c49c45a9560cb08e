package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context.
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single lifecycle operation
// (checkout, checkin, create, delete, download, ...).
type LogContext struct {
	TraceID   string // correlation id for the operation
	SpanID    string // sub-step id within the operation
	Operation string // logical operation name
	ActorID   string // acting user id
	ProjectID string // project the operation is scoped to
	ClientIP  string // request source IP, when known
	StartTime time.Time
}

// WithContext returns a new context with the given LogContext.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for an operation.
func NewLogContext(operation, actorID string) *LogContext {
	return &LogContext{
		Operation: operation,
		ActorID:   actorID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithProject returns a copy with the project id set.
func (lc *LogContext) WithProject(projectID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ProjectID = projectID
	}
	return clone
}

// WithClientIP returns a copy with the client IP set.
func (lc *LogContext) WithClientIP(ip string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ClientIP = ip
	}
	return clone
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
