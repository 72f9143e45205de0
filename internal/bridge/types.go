// Package bridge holds the data-transfer shapes served by the gateway.
package bridge

import (
	"encoding/json"
	"time"
)

// TimestampFormat is ISO-8601 UTC with millisecond precision
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Timestamp formats t the way every envelope reports time
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp reads the ISO-8601 variants relational backends emit
func ParseTimestamp(raw string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Level is the severity of an alert
type Level string

const (
	LevelInfo      Level = "INFO"
	LevelMonitor   Level = "MONITOR"
	LevelWarning   Level = "WARNING"
	LevelCaution   Level = "CAUTION"
	LevelCritical  Level = "CRITICAL"
	LevelEmergency Level = "EMERGENCY"
)

// Rows are records exactly as a backend returned them. Columns are never
// dropped or retyped on the way through.
type Rows []json.RawMessage

// MarshalJSON encodes an empty or nil result as []
func (r Rows) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]json.RawMessage(r))
}

// ToRows encodes typed records into Rows
func ToRows[T any](items []T) (Rows, error) {
	rows := make(Rows, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, raw)
	}
	return rows, nil
}

// DecodeRows decodes every row into T
func DecodeRows[T any](rows Rows) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, raw := range rows {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// PlaceholderBridge is one entry of the static bridge table
type PlaceholderBridge struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Health   int    `json:"health"`
}

// PlaceholderAlert is one entry of the static alert table
type PlaceholderAlert struct {
	ID        string `json:"id"`
	BridgeID  string `json:"bridgeId"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// System is one row of bridge_systems
type System struct {
	BridgeID   string `json:"bridge_id"`
	BridgeName string `json:"bridge_name"`
	Country    string `json:"country"`
	BridgeType string `json:"bridge_type"`
	Location   string `json:"location"`
	Health     int    `json:"health"`
}

// SpanBridge is the bridge side of a span join
type SpanBridge struct {
	BridgeID   string `json:"bridge_id"`
	BridgeName string `json:"bridge_name"`
	Country    string `json:"country"`
	BridgeType string `json:"bridge_type"`
}

// Span is one row of bridge_spans with its embedded bridge
type Span struct {
	ID       string      `json:"id"`
	SpanName string      `json:"span_name"`
	BridgeID string      `json:"bridge_id"`
	Bridge   *SpanBridge `json:"bridge_systems"`
}

// Alert is one row of alerts
type Alert struct {
	ID        string `json:"id"`
	BridgeID  string `json:"bridge_id"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	IsActive  bool   `json:"is_active"`
}

// EventSpan is the span side of a CSZ event join
type EventSpan struct {
	SpanName string       `json:"span_name"`
	Bridge   *EventBridge `json:"bridge_systems"`
}

// EventBridge is the bridge side of a CSZ event join
type EventBridge struct {
	BridgeID   string `json:"bridge_id"`
	BridgeName string `json:"bridge_name"`
}

// CszEvent is one row of csz_events with its embedded span
type CszEvent struct {
	ID            string     `json:"id"`
	SpanID        string     `json:"span_id"`
	ZoneType      string     `json:"zone_type"`
	Severity      string     `json:"severity"`
	Intensity     *float64   `json:"intensity"`
	DetectionTime string     `json:"detection_time"`
	Span          *EventSpan `json:"bridge_spans"`
}

// MetricsSnapshot bundles the structural indicators for one bridge
type MetricsSnapshot struct {
	AFC    float64 `json:"afc"`
	ALSA   float64 `json:"alsa"`
	CPII   float64 `json:"cpii"`
	FFD    float64 `json:"ffd"`
	LTS    float64 `json:"lts"`
	CCF    float64 `json:"ccf"`
	TVR    float64 `json:"tvr"`
	BD     float64 `json:"bd"`
	SED    float64 `json:"sed"`
	Health int     `json:"health"`
}

// StatsSummary is the dashboard counter pair
type StatsSummary struct {
	TotalBridges int    `json:"totalBridges"`
	ActiveAlerts int    `json:"activeAlerts"`
	Timestamp    string `json:"timestamp"`
}
