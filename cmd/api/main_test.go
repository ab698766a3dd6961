package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/rental-dispatch/internal/config"
	"github.com/imrishuroy/rental-dispatch/internal/results"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	hc, cleanup, err := buildHandlerConfig(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return setupRouter(hc)
}

func TestBuildHandlerConfig_Defaults(t *testing.T) {
	hc, cleanup, err := buildHandlerConfig(context.Background(), config.Default(), zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &results.MemoryStore{}, hc.Store)
	assert.Nil(t, hc.Notifier)
	assert.NotNil(t, hc.Catalog)
	assert.NotNil(t, hc.Archive)
	assert.Equal(t, int64(32<<20), hc.MaxUploadBytes)
}

func TestRouter_Health(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_CatalogWithoutBackend(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/vehicles", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "backend credentials are missing")
}

func TestRouter_ReceiveThenFetch(t *testing.T) {
	r := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/receive-parsed-orders",
		strings.NewReader(`{"session_id":"s1","items":[{"item_name":"Chair"}]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/receive-parsed-orders?session_id=s1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"item_name":"Chair"`)
}
