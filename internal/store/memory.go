package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
)

// Memory is an in-process backend over plain tables. It applies the same
// filter, inner-join and ordering rules as the views the other backends
// render.
type Memory struct {
	mu       sync.RWMutex
	bridges  []bridge.System
	spans    []bridge.Span
	events   []bridge.CszEvent
	alerts   []bridge.Alert
	failures map[string]error
}

// NewMemory creates an empty in-process backend
func NewMemory() *Memory {
	return &Memory{failures: make(map[string]error)}
}

// NewSampleMemory creates a backend seeded with a small demo network
func NewSampleMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	base := now().UTC()
	m := NewMemory()
	m.PutBridges(
		bridge.System{BridgeID: "BR-001", BridgeName: "Golden Gate Bridge", Country: "USA", BridgeType: "suspension", Location: "San Francisco, CA", Health: 94},
		bridge.System{BridgeID: "BR-002", BridgeName: "Brooklyn Bridge", Country: "USA", BridgeType: "suspension", Location: "New York, NY", Health: 78},
		bridge.System{BridgeID: "BR-003", BridgeName: "Tower Bridge", Country: "UK", BridgeType: "bascule", Location: "London, UK", Health: 88},
		bridge.System{BridgeID: "BR-004", BridgeName: "Akashi Kaikyō Bridge", Country: "Japan", BridgeType: "suspension", Location: "Kobe, Japan", Health: 97},
		bridge.System{BridgeID: "BR-005", BridgeName: "Sydney Harbour Bridge", Country: "Australia", BridgeType: "arch", Location: "Sydney, Australia", Health: 92},
	)
	m.PutSpans(
		bridge.Span{ID: "SP-001", SpanName: "Main Span", BridgeID: "BR-001"},
		bridge.Span{ID: "SP-002", SpanName: "North Approach", BridgeID: "BR-001"},
		bridge.Span{ID: "SP-003", SpanName: "River Span", BridgeID: "BR-002"},
		bridge.Span{ID: "SP-004", SpanName: "Bascule Leaf", BridgeID: "BR-003"},
	)
	m.PutEvents(
		bridge.CszEvent{ID: "CSZ-001", SpanID: "SP-003", ZoneType: "strain", Severity: "WARNING", Intensity: intensity(0.64), DetectionTime: bridge.Timestamp(base.Add(-2 * time.Hour))},
		bridge.CszEvent{ID: "CSZ-002", SpanID: "SP-001", ZoneType: "vibration", Severity: "MONITOR", Intensity: intensity(0.31), DetectionTime: bridge.Timestamp(base.Add(-30 * time.Minute))},
		bridge.CszEvent{ID: "CSZ-003", SpanID: "SP-004", ZoneType: "thermal", Severity: "MONITOR", Intensity: intensity(0.22), DetectionTime: bridge.Timestamp(base.Add(-26 * time.Hour))},
	)
	m.PutAlerts(
		bridge.Alert{ID: "ALT-001", BridgeID: "BR-002", Level: bridge.LevelWarning, Message: "ALSA increasing by 6.4%", Timestamp: bridge.Timestamp(base), IsActive: true},
		bridge.Alert{ID: "ALT-002", BridgeID: "BR-005", Level: bridge.LevelMonitor, Message: "Slight increase in FFD", Timestamp: bridge.Timestamp(base), IsActive: true},
		bridge.Alert{ID: "ALT-000", BridgeID: "BR-003", Level: bridge.LevelInfo, Message: "Sensor recalibrated", Timestamp: bridge.Timestamp(base.Add(-72 * time.Hour))},
	)
	return m
}

func intensity(v float64) *float64 {
	return &v
}

// PutBridges appends bridge rows
func (m *Memory) PutBridges(rows ...bridge.System) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bridges = append(m.bridges, rows...)
}

// PutSpans appends span rows; any embedded bridge is ignored
func (m *Memory) PutSpans(rows ...bridge.Span) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		r.Bridge = nil
		m.spans = append(m.spans, r)
	}
}

// PutEvents appends CSZ event rows; any embedded span is ignored
func (m *Memory) PutEvents(rows ...bridge.CszEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		r.Span = nil
		m.events = append(m.events, r)
	}
}

// PutAlerts appends alert rows
func (m *Memory) PutAlerts(rows ...bridge.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, rows...)
}

// FailOn makes every read of relation return err; nil clears it
func (m *Memory) FailOn(relation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, relation)
		return
	}
	m.failures[relation] = err
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) failure(relations ...string) error {
	for _, r := range relations {
		if err, ok := m.failures[r]; ok {
			return NewQueryError(err, r, 0, "", "")
		}
	}
	return nil
}

func (m *Memory) bridgeByID(id string) (bridge.System, bool) {
	for _, b := range m.bridges {
		if b.BridgeID == id {
			return b, true
		}
	}
	return bridge.System{}, false
}

func (m *Memory) spanByID(id string) (bridge.Span, bool) {
	for _, s := range m.spans {
		if s.ID == id {
			return s, true
		}
	}
	return bridge.Span{}, false
}

func (m *Memory) ListBridges(ctx context.Context) (bridge.Rows, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(RelationBridges); err != nil {
		return nil, err
	}
	return bridge.ToRows(m.bridges)
}

func (m *Memory) ListSpans(ctx context.Context, filter bridge.IDFilter) (bridge.Rows, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(RelationSpans, RelationBridges); err != nil {
		return nil, err
	}

	rows := []bridge.Span{}
	for _, s := range m.spans {
		if !filter.Matches(s.BridgeID) {
			continue
		}
		// left join: a span without a bridge keeps a null embed
		if b, ok := m.bridgeByID(s.BridgeID); ok {
			s.Bridge = &bridge.SpanBridge{BridgeID: b.BridgeID, BridgeName: b.BridgeName, Country: b.Country, BridgeType: b.BridgeType}
		}
		rows = append(rows, s)
	}
	return bridge.ToRows(rows)
}

func (m *Memory) ListCszEvents(ctx context.Context) (bridge.Rows, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(RelationCszEvents, RelationSpans, RelationBridges); err != nil {
		return nil, err
	}

	rows := []bridge.CszEvent{}
	for _, e := range m.events {
		s, ok := m.spanByID(e.SpanID)
		if !ok {
			continue
		}
		b, ok := m.bridgeByID(s.BridgeID)
		if !ok {
			continue
		}
		e.Span = &bridge.EventSpan{
			SpanName: s.SpanName,
			Bridge:   &bridge.EventBridge{BridgeID: b.BridgeID, BridgeName: b.BridgeName},
		}
		rows = append(rows, e)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return newer(rows[i].DetectionTime, rows[j].DetectionTime)
	})
	return bridge.ToRows(rows)
}

func (m *Memory) ListAlerts(ctx context.Context) (bridge.Rows, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(RelationAlerts); err != nil {
		return nil, err
	}
	return bridge.ToRows(m.alerts)
}

func (m *Memory) CountBridges(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(RelationBridges); err != nil {
		return 0, err
	}
	return len(m.bridges), nil
}

func (m *Memory) CountActiveAlerts(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure(RelationAlerts); err != nil {
		return 0, err
	}

	n := 0
	for _, a := range m.alerts {
		if a.IsActive {
			n++
		}
	}
	return n, nil
}

// newer reports whether a was detected after b. Parseable times order
// newest first and come before unparseable values, which order as strings.
func newer(a, b string) bool {
	ta, errA := bridge.ParseTimestamp(a)
	tb, errB := bridge.ParseTimestamp(b)
	switch {
	case errA == nil && errB == nil:
		return ta.After(tb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a > b
	}
}
