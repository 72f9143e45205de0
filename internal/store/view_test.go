package store

import (
	"testing"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
	"github.com/stretchr/testify/assert"
)

func TestRenderPostgREST(t *testing.T) {
	tests := []struct {
		name    string
		view    View
		columns string
		filter  map[string]string
		order   string
	}{
		{
			name:    "bridges",
			view:    BridgesView(),
			columns: "*",
		},
		{
			name:    "all spans",
			view:    SpansView(bridge.AnyBridge()),
			columns: "*,bridge_systems(bridge_id,bridge_name,country,bridge_type)",
		},
		{
			name:    "spans of one bridge",
			view:    SpansView(bridge.BridgeEquals("BR-002")),
			columns: "*,bridge_systems(bridge_id,bridge_name,country,bridge_type)",
			filter:  map[string]string{"bridge_id": "eq.BR-002"},
		},
		{
			name:    "csz events",
			view:    CszEventsView(),
			columns: "*,bridge_spans!inner(span_name,bridge_systems!inner(bridge_id,bridge_name))",
			order:   "detection_time.desc",
		},
		{
			name:    "active alerts",
			view:    ActiveAlertsView(),
			columns: "*",
			filter:  map[string]string{"is_active": "eq.true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := RenderPostgREST(tt.view)

			assert.Equal(t, tt.columns, values.Get("select"))
			assert.Equal(t, tt.order, values.Get("order"))
			for column, want := range tt.filter {
				assert.Equal(t, want, values.Get(column))
			}
			if tt.filter == nil {
				assert.Len(t, values, boolToInt(tt.order != "")+1)
			}
		})
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestRenderSelectSQL(t *testing.T) {
	query, args := RenderSelectSQL(CszEventsView())

	assert.Equal(t,
		"SELECT COALESCE(jsonb_agg(r.doc ORDER BY r.ord DESC), '[]'::jsonb) FROM ("+
			"SELECT to_jsonb(t0) || jsonb_build_object('bridge_spans', "+
			"jsonb_build_object('span_name', t1.span_name) || jsonb_build_object('bridge_systems', "+
			"jsonb_build_object('bridge_id', t2.bridge_id, 'bridge_name', t2.bridge_name))) AS doc, "+
			"t0.detection_time AS ord FROM csz_events t0 "+
			"INNER JOIN bridge_spans t1 ON t1.id = t0.span_id "+
			"INNER JOIN bridge_systems t2 ON t2.bridge_id = t1.bridge_id) r",
		query)
	assert.Empty(t, args)
}

func TestRenderSelectSQL_FilteredLeftJoin(t *testing.T) {
	query, args := RenderSelectSQL(SpansView(bridge.BridgeEquals("BR-001")))

	assert.Contains(t, query, "LEFT JOIN bridge_systems t1 ON t1.bridge_id = t0.bridge_id")
	assert.Contains(t, query, "CASE WHEN t1.bridge_id IS NULL THEN NULL ELSE")
	assert.Contains(t, query, "WHERE t0.bridge_id = $1")
	assert.Contains(t, query, "jsonb_agg(r.doc)")
	assert.Equal(t, []interface{}{"BR-001"}, args)
}

func TestRenderCountSQL(t *testing.T) {
	query, args := RenderCountSQL(BridgesView())
	assert.Equal(t, "SELECT count(*) FROM bridge_systems t0", query)
	assert.Empty(t, args)

	query, args = RenderCountSQL(ActiveAlertsView())
	assert.Equal(t, "SELECT count(*) FROM alerts t0 WHERE t0.is_active = $1", query)
	assert.Equal(t, []interface{}{true}, args)
}

func TestView_CopiesOnModify(t *testing.T) {
	base := AlertsView()
	filtered := base.Where("is_active", true)

	assert.Nil(t, base.Filter)
	assert.NotNil(t, filtered.Filter)
}
