package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/store"
)

func newTestStores(t *testing.T) (*store.GORMStore, *content.Store) {
	t.Helper()
	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	cs, err := content.New(content.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	return s, cs
}

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "filevault", data["service"])
}

func TestReadiness_NoStores_Returns503(t *testing.T) {
	handler := NewHealthHandler(nil, nil)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "stores not initialized", resp.Error)
}

func TestReadiness_WithStores_ReturnsOK(t *testing.T) {
	s, cs := newTestStores(t)
	handler := NewHealthHandler(s, cs)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestStores_NoStores_Returns503(t *testing.T) {
	handler := NewHealthHandler(nil, nil)
	req := httptest.NewRequest("GET", "/health/stores", nil)
	w := httptest.NewRecorder()

	handler.Stores(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStores_WithHealthyStores_ReturnsOK(t *testing.T) {
	s, cs := newTestStores(t)
	handler := NewHealthHandler(s, cs)
	req := httptest.NewRequest("GET", "/health/stores", nil)
	w := httptest.NewRecorder()

	handler.Stores(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	stores, ok := data["stores"].([]interface{})
	require.True(t, ok)
	assert.Len(t, stores, 2)
}
