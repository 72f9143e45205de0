package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
	"github.com/enterprise/stalwart-gateway/internal/config"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceKey = "service-role-secret"

func newTestPostgREST(t *testing.T, handler http.HandlerFunc) *PostgREST {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := logtest.NewNullLogger()
	p := NewPostgREST(config.BackendConfig{
		Driver:         config.DriverPostgREST,
		URL:            server.URL + "/",
		ServiceRoleKey: testServiceKey,
		RESTPath:       "/rest/v1",
		Timeout:        5 * time.Second,
	}, logger)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func assertServiceAuth(t *testing.T, r *http.Request) {
	assert.Equal(t, testServiceKey, r.Header.Get("apikey"))
	assert.Equal(t, "Bearer "+testServiceKey, r.Header.Get("Authorization"))
}

func TestPostgREST_ListSpans(t *testing.T) {
	p := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		assertServiceAuth(t, r)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/bridge_spans", r.URL.Path)
		assert.Equal(t, "eq.BR-001", r.URL.Query().Get("bridge_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"SP-001","span_name":"Main Span","bridge_id":"BR-001",
			"bridge_systems":{"bridge_id":"BR-001","bridge_name":"Golden Gate Bridge","country":"USA","bridge_type":"suspension"}}]`))
	})

	rows, err := p.ListSpans(context.Background(), bridge.BridgeEquals("BR-001"))
	spans := decode[bridge.Span](t, rows, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "Main Span", spans[0].SpanName)
	require.NotNil(t, spans[0].Bridge)
	assert.Equal(t, "Golden Gate Bridge", spans[0].Bridge.BridgeName)
}

func TestPostgREST_ListCszEvents(t *testing.T) {
	p := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/csz_events", r.URL.Path)
		assert.Equal(t, "detection_time.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "*,bridge_spans!inner(span_name,bridge_systems!inner(bridge_id,bridge_name))", r.URL.Query().Get("select"))

		_, _ = w.Write([]byte(`[
			{"id":"CSZ-2","span_id":"SP-1","detection_time":"2026-05-02T10:00:00+00:00",
			 "bridge_spans":{"span_name":"Main","bridge_systems":{"bridge_id":"BR-001","bridge_name":"Golden Gate Bridge"}}},
			{"id":"CSZ-1","span_id":"SP-1","detection_time":"2026-05-01T10:00:00+00:00",
			 "bridge_spans":{"span_name":"Main","bridge_systems":{"bridge_id":"BR-001","bridge_name":"Golden Gate Bridge"}}}]`))
	})

	rows, err := p.ListCszEvents(context.Background())
	events := decode[bridge.CszEvent](t, rows, err)
	require.Len(t, events, 2)
	assert.Equal(t, "CSZ-2", events[0].ID)
	assert.Equal(t, "BR-001", events[0].Span.Bridge.BridgeID)
}

func TestPostgREST_EmptyResultIsEmptySlice(t *testing.T) {
	p := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	alerts, err := p.ListAlerts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestPostgREST_NullBodyIsEmptySlice(t *testing.T) {
	p := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	bridges, err := p.ListBridges(context.Background())
	require.NoError(t, err)
	body, err := json.Marshal(bridges)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestPostgREST_ErrorMessagePassThrough(t *testing.T) {
	p := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"42703","details":null,"hint":null,"message":"column bridge_spans.bridge_id does not exist"}`))
	})

	_, err := p.ListSpans(context.Background(), bridge.BridgeEquals("BR-001"))
	require.Error(t, err)
	assert.True(t, IsQueryError(err))
	assert.Equal(t, "column bridge_spans.bridge_id does not exist", err.Error())

	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, http.StatusBadRequest, queryErr.Status)
	assert.Equal(t, "42703", queryErr.Code)
	assert.Equal(t, RelationSpans, queryErr.Relation)
}

func TestPostgREST_Counts(t *testing.T) {
	p := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		assertServiceAuth(t, r)
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))

		switch r.URL.Path {
		case "/rest/v1/bridge_systems":
			assert.Empty(t, r.URL.Query().Get("is_active"))
			w.Header().Set("Content-Range", "0-4/5")
		case "/rest/v1/alerts":
			assert.Equal(t, "eq.true", r.URL.Query().Get("is_active"))
			w.Header().Set("Content-Range", "*/0")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	total, err := p.CountBridges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	active, err := p.CountActiveAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, active)
}

func TestPostgREST_CountErrorWithoutBody(t *testing.T) {
	p := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := p.CountBridges(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Unauthorized", err.Error())
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header  string
		want    int
		wantErr bool
	}{
		{header: "0-24/3573", want: 3573},
		{header: "*/0", want: 0},
		{header: "0-9/*", wantErr: true},
		{header: "", wantErr: true},
		{header: "0-9/abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ParseContentRange(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownTotal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
