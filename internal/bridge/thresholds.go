package bridge

import (
	"math"
	"sort"
)

// Status is the classification of one structural indicator
type Status string

const (
	StatusSafe     Status = "SAFE"
	StatusWarning  Status = "WARNING"
	StatusCaution  Status = "CAUTION"
	StatusCritical Status = "CRITICAL"
)

var statusRank = map[Status]int{
	StatusSafe:     0,
	StatusWarning:  1,
	StatusCaution:  2,
	StatusCritical: 3,
}

// Threshold holds the safe limits for one indicator.
// Inverted indicators get worse as the value falls.
type Threshold struct {
	Warning  float64
	Caution  float64
	Critical float64
	Min      float64
	Max      float64
	Inverted bool
	Weight   float64
}

// Thresholds are keyed by the lowercase indicator name used on the wire
var Thresholds = map[string]Threshold{
	"afc":  {Warning: 0.60, Caution: 0.75, Critical: 0.85, Min: 0, Max: 1, Weight: 0.10},
	"alsa": {Warning: 0.60, Caution: 0.75, Critical: 0.90, Min: 0, Max: 2, Weight: 0.15},
	"cpii": {Warning: 0.90, Caution: 0.75, Critical: 0.60, Min: 0, Max: 1, Inverted: true, Weight: 0.15},
	"ffd":  {Warning: 3, Caution: 5, Critical: 8, Min: -1, Max: 15, Weight: 0.15},
	"lts":  {Warning: 15, Caution: 30, Critical: 50, Min: 0, Max: 100, Weight: 0.10},
	"ccf":  {Warning: 40, Caution: 70, Critical: 100, Min: 0, Max: 200, Weight: 0.10},
	"tvr":  {Warning: 0.85, Caution: 0.70, Critical: 0.55, Min: 0, Max: 1, Inverted: true, Weight: 0.10},
	"bd":   {Warning: 10, Caution: 15, Critical: 20, Min: -25, Max: 25, Weight: 0.05},
	"sed":  {Warning: 50, Caution: 70, Critical: 85, Min: 0, Max: 100, Weight: 0.10},
}

// Classify places value against t
func (t Threshold) Classify(value float64) Status {
	if t.Inverted {
		switch {
		case value > t.Warning:
			return StatusSafe
		case value > t.Caution:
			return StatusWarning
		case value > t.Critical:
			return StatusCaution
		default:
			return StatusCritical
		}
	}

	switch {
	case value < t.Warning:
		return StatusSafe
	case value < t.Caution:
		return StatusWarning
	case value < t.Critical:
		return StatusCaution
	default:
		return StatusCritical
	}
}

// score maps value onto 0..100 where 100 is healthy
func (t Threshold) score(value float64) float64 {
	if t.Inverted {
		return value * 100
	}
	max := t.Max
	if max == 0 {
		max = 1
	}
	return math.Max(0, 100-(value/max*100))
}

// Indicators returns the snapshot values keyed like Thresholds
func (m MetricsSnapshot) Indicators() map[string]float64 {
	return map[string]float64{
		"afc":  m.AFC,
		"alsa": m.ALSA,
		"cpii": m.CPII,
		"ffd":  m.FFD,
		"lts":  m.LTS,
		"ccf":  m.CCF,
		"tvr":  m.TVR,
		"bd":   math.Abs(m.BD),
		"sed":  m.SED,
	}
}

// HealthIndex is the weighted score of the known indicators in values.
// With no weighted indicator present the index is 50.
func HealthIndex(values map[string]float64) float64 {
	var health, total float64
	for name, value := range values {
		t, ok := Thresholds[name]
		if !ok {
			continue
		}
		health += t.Weight * t.score(value)
		total += t.Weight
	}
	if total == 0 {
		return 50
	}
	return health / total
}

// Assessment is the classified view of one metrics snapshot
type Assessment struct {
	BridgeID    string            `json:"bridge_id"`
	HealthIndex float64           `json:"health_index"`
	Overall     Status            `json:"overall"`
	Levels      map[string]Status `json:"levels"`
	Exceeded    []string          `json:"exceeded"`
}

// Assess classifies every indicator of snapshot. Overall is the worst level.
func Assess(bridgeID string, snapshot MetricsSnapshot) Assessment {
	values := snapshot.Indicators()
	a := Assessment{
		BridgeID:    bridgeID,
		HealthIndex: math.Round(HealthIndex(values)*10) / 10,
		Overall:     StatusSafe,
		Levels:      make(map[string]Status, len(values)),
		Exceeded:    []string{},
	}

	for name, value := range values {
		status := Thresholds[name].Classify(value)
		a.Levels[name] = status
		if status != StatusSafe {
			a.Exceeded = append(a.Exceeded, name)
		}
		if statusRank[status] > statusRank[a.Overall] {
			a.Overall = status
		}
	}
	sort.Strings(a.Exceeded)

	return a
}
