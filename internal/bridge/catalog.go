package bridge

import (
	"context"
	"time"
)

// Catalog serves the placeholder tables that stand in for real queries on
// the bridges, alerts and metrics resources. It satisfies the same source
// interfaces as the backend stores.
type Catalog struct {
	now func() time.Time
}

// NewCatalog creates a catalogue; a nil clock uses time.Now
func NewCatalog(now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	return &Catalog{now: now}
}

// Static marks the catalogue as needing no backend credentials
func (c *Catalog) Static() bool {
	return true
}

// Bridges returns the sample bridge inventory
func (c *Catalog) Bridges() []PlaceholderBridge {
	return []PlaceholderBridge{
		{ID: "BR-001", Name: "Golden Gate Bridge", Location: "San Francisco, CA", Health: 94},
		{ID: "BR-002", Name: "Brooklyn Bridge", Location: "New York, NY", Health: 78},
		{ID: "BR-003", Name: "Tower Bridge", Location: "London, UK", Health: 88},
		{ID: "BR-004", Name: "Akashi Kaikyō Bridge", Location: "Kobe, Japan", Health: 97},
		{ID: "BR-005", Name: "Sydney Harbour Bridge", Location: "Sydney, Australia", Health: 92},
	}
}

// Alerts returns the sample alerts stamped with the current time
func (c *Catalog) Alerts() []PlaceholderAlert {
	ts := Timestamp(c.now())
	return []PlaceholderAlert{
		{ID: "ALT-001", BridgeID: "BR-002", Level: LevelWarning, Message: "ALSA increasing by 6.4%", Timestamp: ts},
		{ID: "ALT-002", BridgeID: "BR-005", Level: LevelMonitor, Message: "Slight increase in FFD", Timestamp: ts},
	}
}

// ListBridges serves the sample bridge inventory as rows
func (c *Catalog) ListBridges(ctx context.Context) (Rows, error) {
	return ToRows(c.Bridges())
}

// ListAlerts serves the sample alerts as rows
func (c *Catalog) ListAlerts(ctx context.Context) (Rows, error) {
	return ToRows(c.Alerts())
}

// Snapshots returns the sample metrics keyed by bridge identifier
func (c *Catalog) Snapshots(ctx context.Context) (map[string]MetricsSnapshot, error) {
	return map[string]MetricsSnapshot{
		"BR-001": {
			AFC:    0.42,
			ALSA:   0.58,
			CPII:   0.91,
			FFD:    2.3,
			LTS:    18.5,
			CCF:    34.2,
			TVR:    0.88,
			BD:     8.4,
			SED:    42.3,
			Health: 94,
		},
	}, nil
}
