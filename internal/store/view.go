package store

import "github.com/enterprise/stalwart-gateway/internal/bridge"

// Relations read by the gateway
const (
	RelationBridges   = "bridge_systems"
	RelationSpans     = "bridge_spans"
	RelationCszEvents = "csz_events"
	RelationAlerts    = "alerts"
)

// View is a read-only query composition: one relation, optional embedded
// parents joined by key, at most one equality filter and one ordering.
// Backends render a View into their own query language.
type View struct {
	Relation string
	Columns  []string
	Embeds   []Embed
	Filter   *Eq
	Order    *Order
}

// Embed nests a parent relation under the key of the same name.
// Key is the parent's column matched against ParentKey on the embedding row.
type Embed struct {
	Relation  string
	Columns   []string
	Inner     bool
	ParentKey string
	Key       string
	Embeds    []Embed
}

// Eq narrows a view to rows whose Column equals Value
type Eq struct {
	Column string
	Value  interface{}
}

// Order sorts a view by one column
type Order struct {
	Column     string
	Descending bool
}

// Where returns a copy of v filtered by column = value
func (v View) Where(column string, value interface{}) View {
	v.Filter = &Eq{Column: column, Value: value}
	return v
}

// OrderBy returns a copy of v sorted by column
func (v View) OrderBy(column string, descending bool) View {
	v.Order = &Order{Column: column, Descending: descending}
	return v
}

// BridgesView lists bridge_systems
func BridgesView() View {
	return View{Relation: RelationBridges}
}

// SpansView lists spans with their bridge, optionally for one bridge
func SpansView(filter bridge.IDFilter) View {
	v := View{
		Relation: RelationSpans,
		Embeds: []Embed{{
			Relation:  RelationBridges,
			Columns:   []string{"bridge_id", "bridge_name", "country", "bridge_type"},
			ParentKey: "bridge_id",
			Key:       "bridge_id",
		}},
	}
	if id, ok := filter.Value(); ok {
		v = v.Where("bridge_id", id)
	}
	return v
}

// CszEventsView lists CSZ events joined through their span to the bridge,
// newest detection first. Events without a span or bridge are dropped.
func CszEventsView() View {
	return View{
		Relation: RelationCszEvents,
		Embeds: []Embed{{
			Relation:  RelationSpans,
			Columns:   []string{"span_name"},
			Inner:     true,
			ParentKey: "span_id",
			Key:       "id",
			Embeds: []Embed{{
				Relation:  RelationBridges,
				Columns:   []string{"bridge_id", "bridge_name"},
				Inner:     true,
				ParentKey: "bridge_id",
				Key:       "bridge_id",
			}},
		}},
	}.OrderBy("detection_time", true)
}

// AlertsView lists alerts
func AlertsView() View {
	return View{Relation: RelationAlerts}
}

// ActiveAlertsView restricts alerts to active ones
func ActiveAlertsView() View {
	return AlertsView().Where("is_active", true)
}
