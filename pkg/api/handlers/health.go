package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/store"
)

// HealthCheckTimeout is the maximum time allowed for health check operations.
const HealthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: is the server process running?
//   - Readiness probe: is the server ready to accept requests?
//   - Store health: a ping of the metadata database; the blob store entry
//     is reported healthy without being checked
type HealthHandler struct {
	metadata *store.GORMStore
	blobs    *content.Store
}

// NewHealthHandler creates a new health handler. Either dependency may be
// nil (e.g. in a test harness), in which case the corresponding checks
// report unhealthy rather than panicking.
func NewHealthHandler(metadata *store.GORMStore, blobs *content.Store) *HealthHandler {
	return &HealthHandler{metadata: metadata, blobs: blobs}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "filevault",
	}))
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.metadata == nil || h.blobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("stores not initialized"))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"storage_path": h.blobs.BasePath(),
	}))
}

// StoreHealth is the health status of a single dependency.
type StoreHealth struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// StoresResponse is the detailed store health response.
type StoresResponse struct {
	Stores []StoreHealth `json:"stores"`
}

// Stores handles GET /health/stores.
func (h *HealthHandler) Stores(w http.ResponseWriter, r *http.Request) {
	if h.metadata == nil || h.blobs == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("stores not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	allHealthy := true
	resp := StoresResponse{}

	start := time.Now()
	sqlDB, err := h.metadata.DB().DB()
	metaHealth := StoreHealth{Name: "metadata", Type: "gorm", Latency: time.Since(start).String()}
	if err != nil {
		metaHealth.Status = "unhealthy"
		metaHealth.Error = err.Error()
		allHealthy = false
	} else if err := sqlDB.PingContext(ctx); err != nil {
		metaHealth.Status = "unhealthy"
		metaHealth.Error = err.Error()
		allHealthy = false
	} else {
		metaHealth.Status = "healthy"
	}
	resp.Stores = append(resp.Stores, metaHealth)

	blobStart := time.Now()
	blobHealth := StoreHealth{Name: "blob-store", Type: "content", Status: "healthy", Latency: time.Since(blobStart).String()}
	resp.Stores = append(resp.Stores, blobHealth)

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(resp))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(resp))
	}
}
