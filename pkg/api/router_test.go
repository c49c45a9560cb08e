package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/metrics"
	"github.com/productinventor/filevault/pkg/store"
	"github.com/productinventor/filevault/pkg/token"
)

func newTestRouterDeps(t *testing.T) (*store.GORMStore, *content.Store, *token.Service) {
	t.Helper()
	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	cs, err := content.New(content.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	ts, err := token.New(token.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ts.Close() })
	return s, cs, ts
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	s, cs, ts := newTestRouterDeps(t)
	router := NewRouter(s, cs, ts, nil, nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestNewRouter_WithMetricsEnabled(t *testing.T) {
	s, cs, ts := newTestRouterDeps(t)
	m := metrics.New(nil)
	router := NewRouter(s, cs, ts, nil, m, nil)

	req := httptest.NewRequest("GET", "/api/download/unknown-token", nil)
	req.Header.Set("X-User-Id", "user-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestNewRouter_RootRedirectsToHealth(t *testing.T) {
	s, cs, ts := newTestRouterDeps(t)
	router := NewRouter(s, cs, ts, nil, nil, nil)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 307, w.Code)
	assert.Equal(t, "/health", w.Header().Get("Location"))
}
