package main

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/enterprise/stalwart-gateway/internal/gateway"
	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	query, err := parseParams([]string{"bridgeId=BR-001", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"bridgeId": "BR-001", "empty": ""}, query)

	_, err = parseParams([]string{"bridgeId"})
	assert.Error(t, err)

	_, err = parseParams([]string{"=BR-001"})
	assert.Error(t, err)
}

func TestInvoke(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := &config.Config{
		Backend: config.BackendConfig{Driver: config.DriverMemory},
		Sources: config.SourcesConfig{Bridges: config.SourceStatic, Alerts: config.SourceStatic},
	}
	set, err := gateway.FromConfig(cfg, logger, prometheus.NewRegistry())
	require.NoError(t, err)

	resp, err := invoke(context.Background(), set, "get-metrics", gateway.Request{
		Method: http.MethodGet,
		Query:  map[string]string{"bridgeId": "BR-001"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, `"lts":18.5`)

	_, err = invoke(context.Background(), set, "get-reports", gateway.Request{Method: http.MethodGet})
	assert.Error(t, err)
}

func TestPrintResponse(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResponse(&buf, gateway.Response{StatusCode: http.StatusOK, Body: `{"success":true}`}))
	assert.Equal(t, "{\"success\":true}\n", buf.String())

	buf.Reset()
	require.NoError(t, printResponse(&buf, gateway.Response{StatusCode: http.StatusNoContent}))
	assert.Equal(t, "204\n", buf.String())
}
