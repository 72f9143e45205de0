package gateway

import (
	"context"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
)

// Resource names
const (
	ResourceBridges = "bridges"
	ResourceSpans   = "bridge-spans"
	ResourceZones   = "bridge-zones"
	ResourceAlerts  = "alerts"
	ResourceStats   = "stats"
	ResourceMetrics = "metrics"
	ResourceHealth  = "bridge-health"
)

// ParamBridgeID is the query parameter naming a bridge
const ParamBridgeID = "bridgeId"

// FunctionNames maps resource names to their serverless function names
var FunctionNames = map[string]string{
	ResourceBridges: "get-bridges",
	ResourceSpans:   "get-bridge-spans",
	ResourceZones:   "bridge-zones",
	ResourceAlerts:  "get-alerts",
	ResourceStats:   "get-stats",
	ResourceMetrics: "get-metrics",
	ResourceHealth:  "get-bridge-health",
}

// BridgeLister lists bridge systems
type BridgeLister interface {
	ListBridges(ctx context.Context) (bridge.Rows, error)
}

// SpanLister lists spans with their parent bridge
type SpanLister interface {
	ListSpans(ctx context.Context, filter bridge.IDFilter) (bridge.Rows, error)
}

// EventLister lists critical-stress-zone events, newest first
type EventLister interface {
	ListCszEvents(ctx context.Context) (bridge.Rows, error)
}

// AlertLister lists alerts
type AlertLister interface {
	ListAlerts(ctx context.Context) (bridge.Rows, error)
}

// Counter reports the two totals behind the stats resource
type Counter interface {
	CountBridges(ctx context.Context) (int, error)
	CountActiveAlerts(ctx context.Context) (int, error)
}

// SnapshotReader returns metrics snapshots keyed by bridge identifier
type SnapshotReader interface {
	Snapshots(ctx context.Context) (map[string]bridge.MetricsSnapshot, error)
}

type static interface {
	Static() bool
}

// backed reports whether a source needs backend credentials
func backed(src interface{}) bool {
	s, ok := src.(static)
	return !ok || !s.Static()
}

// Bridges serves the bridge inventory
func (g *Gateway) Bridges(src BridgeLister) *Resource {
	return g.NewResource(ResourceBridges, FunctionNames[ResourceBridges], backed(src),
		func(ctx context.Context, req Request) (interface{}, error) {
			return rows(src.ListBridges(ctx))
		})
}

// Spans serves spans, optionally restricted by the bridgeId parameter
func (g *Gateway) Spans(src SpanLister) *Resource {
	return g.NewResource(ResourceSpans, FunctionNames[ResourceSpans], backed(src),
		func(ctx context.Context, req Request) (interface{}, error) {
			return rows(src.ListSpans(ctx, bridge.ParseIDFilter(req.Param(ParamBridgeID))))
		})
}

// Zones serves critical-stress-zone events
func (g *Gateway) Zones(src EventLister) *Resource {
	return g.NewResource(ResourceZones, FunctionNames[ResourceZones], backed(src),
		func(ctx context.Context, req Request) (interface{}, error) {
			return rows(src.ListCszEvents(ctx))
		})
}

// Alerts serves alerts
func (g *Gateway) Alerts(src AlertLister) *Resource {
	return g.NewResource(ResourceAlerts, FunctionNames[ResourceAlerts], backed(src),
		func(ctx context.Context, req Request) (interface{}, error) {
			return rows(src.ListAlerts(ctx))
		})
}

// Stats serves the bridge total and the active alert total. The counts run
// one after the other and either failure aborts the invocation.
func (g *Gateway) Stats(src Counter) *Resource {
	return g.NewResource(ResourceStats, FunctionNames[ResourceStats], backed(src),
		func(ctx context.Context, req Request) (interface{}, error) {
			total, err := src.CountBridges(ctx)
			if err != nil {
				return nil, err
			}
			active, err := src.CountActiveAlerts(ctx)
			if err != nil {
				return nil, err
			}
			return bridge.StatsSummary{
				TotalBridges: total,
				ActiveAlerts: active,
				Timestamp:    bridge.Timestamp(g.now()),
			}, nil
		})
}

// Snapshots serves metrics for every bridge, or for the one named by
// bridgeId. An unknown identifier succeeds with no data.
func (g *Gateway) Snapshots(src SnapshotReader) *Resource {
	return g.NewResource(ResourceMetrics, FunctionNames[ResourceMetrics], backed(src),
		func(ctx context.Context, req Request) (interface{}, error) {
			snapshots, err := src.Snapshots(ctx)
			if err != nil {
				return nil, err
			}
			sel := bridge.ParseSelector(req.Param(ParamBridgeID))
			if sel.All() {
				return snapshots, nil
			}
			if snapshot, ok := snapshots[sel.ID()]; ok {
				return snapshot, nil
			}
			return nil, nil
		})
}

// Health serves threshold assessments derived from the metrics snapshots
func (g *Gateway) Health(src SnapshotReader) *Resource {
	return g.NewResource(ResourceHealth, FunctionNames[ResourceHealth], backed(src),
		func(ctx context.Context, req Request) (interface{}, error) {
			snapshots, err := src.Snapshots(ctx)
			if err != nil {
				return nil, err
			}
			sel := bridge.ParseSelector(req.Param(ParamBridgeID))
			if sel.All() {
				assessments := make(map[string]bridge.Assessment, len(snapshots))
				for id, snapshot := range snapshots {
					assessments[id] = bridge.Assess(id, snapshot)
				}
				return assessments, nil
			}
			if snapshot, ok := snapshots[sel.ID()]; ok {
				return bridge.Assess(sel.ID(), snapshot), nil
			}
			return nil, nil
		})
}

// rows keeps an empty result encoding as [] rather than null
func rows(r bridge.Rows, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = bridge.Rows{}
	}
	return r, nil
}
