package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/enterprise/stalwart-gateway/internal/config"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, backend config.BackendConfig) *Application {
	t.Helper()
	logger, _ := logtest.NewNullLogger()

	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 8888, GinMode: "test"},
		Backend: backend,
		Sources: config.SourcesConfig{Bridges: config.SourceStatic, Alerts: config.SourceStatic},
		Metrics: config.MetricsConfig{Enabled: true, Address: "127.0.0.1:9090", Path: "/metrics", Namespace: "stalwart"},
	}

	application, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	return application
}

func TestRoutes_APIAndFunctionPaths(t *testing.T) {
	application := newTestApp(t, config.BackendConfig{Driver: config.DriverMemory})

	paths := []string{
		"/api/bridges", "/.netlify/functions/get-bridges",
		"/api/bridge-spans?bridgeId=BR-001", "/.netlify/functions/get-bridge-spans",
		"/api/bridge-zones", "/.netlify/functions/bridge-zones",
		"/api/alerts", "/.netlify/functions/get-alerts",
		"/api/stats", "/.netlify/functions/get-stats",
		"/api/metrics?bridgeId=BR-001", "/.netlify/functions/get-metrics",
		"/api/bridge-health", "/.netlify/functions/get-bridge-health",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			application.APIHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, true, body["success"])
		})
	}
}

func TestRoutes_MissingCredentials(t *testing.T) {
	application := newTestApp(t, config.BackendConfig{Driver: config.DriverPostgREST})

	w := httptest.NewRecorder()
	application.APIHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/.netlify/functions/get-stats", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Supabase credentials not configured"}`, w.Body.String())

	w = httptest.NewRecorder()
	application.APIHandler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/.netlify/functions/get-stats", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	application.APIHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/bridges", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_NotFound(t *testing.T) {
	application := newTestApp(t, config.BackendConfig{Driver: config.DriverMemory})

	w := httptest.NewRecorder()
	application.APIHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Not found"}`, w.Body.String())
}

func TestOps_HealthReadyMetrics(t *testing.T) {
	application := newTestApp(t, config.BackendConfig{Driver: config.DriverPostgREST})
	ops := application.OpsHandler()

	w := httptest.NewRecorder()
	ops.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "missing", health["backend"].(map[string]interface{})["credentials"])
	assert.Len(t, health["resources"], 7)

	w = httptest.NewRecorder()
	ops.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	application.running.Store(true)
	w = httptest.NewRecorder()
	ops.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	api := httptest.NewRecorder()
	application.APIHandler().ServeHTTP(api, httptest.NewRequest(http.MethodGet, "/api/bridges", nil))

	w = httptest.NewRecorder()
	ops.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `stalwart_gateway_requests_total{resource="bridges",status="200"} 1`)
}

func TestStop_NotRunning(t *testing.T) {
	application := newTestApp(t, config.BackendConfig{Driver: config.DriverMemory})

	assert.NoError(t, application.Stop(context.Background()))
}
