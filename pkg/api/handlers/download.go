package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/productinventor/filevault/pkg/apierr"
	"github.com/productinventor/filevault/pkg/audit"
	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/metrics"
	"github.com/productinventor/filevault/pkg/models"
	"github.com/productinventor/filevault/pkg/token"
)

// DownloadHandler serves GET /api/download/{token}: it consumes a
// single-use download token and streams the blob it resolves to.
type DownloadHandler struct {
	tokens    *token.Service
	blobs     *content.Store
	masterKey []byte
	metrics   *metrics.Metrics
	audit     *audit.Log
}

// NewDownloadHandler constructs a DownloadHandler. m and auditLog may both be
// nil (metrics disabled; audit writes skipped) since every pkg/metrics
// method handles a nil receiver and this handler guards its own audit calls.
func NewDownloadHandler(tokens *token.Service, blobs *content.Store, masterKey []byte, m *metrics.Metrics, auditLog *audit.Log) *DownloadHandler {
	return &DownloadHandler{tokens: tokens, blobs: blobs, masterKey: masterKey, metrics: m, audit: auditLog}
}

// requestMeta builds an audit.RequestMeta from the inbound request's
// client address (set by the chi RealIP middleware) and User-Agent header.
func requestMeta(r *http.Request) audit.RequestMeta {
	return audit.RequestMeta{IPAddress: r.RemoteAddr, UserAgent: r.UserAgent()}
}

func (h *DownloadHandler) record(r *http.Request, projectID, fileID, actorID string, kind models.EventKind, outcome models.AuditOutcome, detail string) {
	if h.audit == nil {
		return
	}
	h.audit.Record(r.Context(), audit.Entry{
		ProjectID: projectID, FileID: fileID, ActorID: actorID,
		Kind: kind, Outcome: outcome, Meta: requestMeta(r), Detail: detail,
	})
}

// Download handles GET /api/download/{token}. The requesting user's
// identity travels in the X-User-Id header, set by the chat platform's
// own already-authenticated gateway — this endpoint does not itself
// perform authentication.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tok := chi.URLParam(r, "token")
	requestingUserID := r.Header.Get("X-User-Id")
	if requestingUserID == "" {
		h.metrics.RecordOperation("download", false, time.Since(start).Seconds())
		BadRequest(w, "X-User-Id header is required")
		return
	}

	entry, err := h.tokens.Download(r.Context(), tok, requestingUserID)
	if err != nil {
		h.metrics.RecordOperation("download", false, time.Since(start).Seconds())
		h.auditTokenFailure(r, requestingUserID, err)
		writeDownloadError(w, err)
		return
	}
	h.record(r, entry.ProjectID, entry.FileID, requestingUserID, models.EventDownloadTokenUsed, models.OutcomeSuccess, "")

	stream, err := h.blobs.Get(r.Context(), h.masterKey, entry.ProjectID, entry.ContentHash)
	if err != nil {
		h.metrics.RecordOperation("download", false, time.Since(start).Seconds())
		h.record(r, entry.ProjectID, entry.FileID, requestingUserID, models.EventFileDownload, models.OutcomeFailure, err.Error())
		writeDownloadError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", entry.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, stream); err != nil {
		// Headers and a 200 status are already on the wire by this point, so a
		// corrupted chunk surfacing mid-stream can only truncate the response;
		// there's no HTTP status left to change. Record it as a failure for
		// the audit trail and give up on the connection.
		h.metrics.RecordOperation("download", false, time.Since(start).Seconds())
		h.record(r, entry.ProjectID, entry.FileID, requestingUserID, models.EventFileDownload, models.OutcomeFailure, err.Error())
		return
	}
	h.record(r, entry.ProjectID, entry.FileID, requestingUserID, models.EventFileDownload, models.OutcomeSuccess, "")
	h.metrics.RecordOperation("download", true, time.Since(start).Seconds())
}

// auditTokenFailure records the token-validation failure branch that
// applies: an unmatched requester is an access decision, anything else
// (absent/expired/already-used) is a token-lifecycle event.
func (h *DownloadHandler) auditTokenFailure(r *http.Request, requestingUserID string, err error) {
	switch e := err.(type) {
	case *apierr.TokenUserMismatchError:
		h.record(r, "", "", requestingUserID, models.EventAccessDenied, models.OutcomeDenied,
			fmt.Sprintf("token issued to %s, requested by %s", e.IssuedToUserID, e.RequestedByUser))
	case *apierr.TokenAlreadyUsedError:
		h.record(r, "", "", requestingUserID, models.EventDownloadTokenUsed, models.OutcomeDenied, err.Error())
	default:
		h.record(r, "", "", requestingUserID, models.EventDownloadTokenExpired, models.OutcomeDenied, err.Error())
	}
}

func writeDownloadError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *apierr.TokenExpiredError:
		Unauthorized(w, err.Error())
	case *apierr.TokenAlreadyUsedError:
		Unauthorized(w, err.Error())
	case *apierr.TokenUserMismatchError:
		Forbidden(w, err.Error())
	case *apierr.StorageInconsistentError, *apierr.CorruptedContentError:
		InternalServerError(w, err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}
