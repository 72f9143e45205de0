package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlers(t *testing.T) {
	w := httptest.NewRecorder()
	Bridges(w, httptest.NewRequest(http.MethodGet, "/api/bridges", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"BR-001"`)

	w = httptest.NewRecorder()
	Metrics(w, httptest.NewRequest(http.MethodGet, "/api/metrics?bridgeId=BR-404", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"data"`)

	for _, h := range []http.HandlerFunc{Bridges, BridgeSpans, BridgeZones, Alerts, Stats, Metrics, BridgeHealth} {
		w = httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodOptions, "/api/any", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	}
}
