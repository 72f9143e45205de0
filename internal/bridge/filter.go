package bridge

// AllBridges is the selector value that asks for every bridge
const AllBridges = "all"

// IDFilter is an optional equality filter on a bridge identifier.
// The zero value matches everything.
type IDFilter struct {
	id  string
	set bool
}

// AnyBridge matches every row
func AnyBridge() IDFilter {
	return IDFilter{}
}

// BridgeEquals matches rows whose bridge identifier is id
func BridgeEquals(id string) IDFilter {
	return IDFilter{id: id, set: true}
}

// ParseIDFilter turns a raw query value into a filter. Only an empty value
// means any; the value is otherwise matched as given.
func ParseIDFilter(raw string) IDFilter {
	if raw == "" {
		return AnyBridge()
	}
	return BridgeEquals(raw)
}

// Value returns the identifier and whether the filter is set
func (f IDFilter) Value() (string, bool) {
	return f.id, f.set
}

// Matches reports whether a row with bridgeID passes the filter
func (f IDFilter) Matches(bridgeID string) bool {
	return !f.set || f.id == bridgeID
}

func (f IDFilter) String() string {
	if !f.set {
		return "any"
	}
	return f.id
}

// Selector picks either every bridge or one bridge from a keyed table.
// Unlike IDFilter, "all" is a reserved value.
type Selector struct {
	filter IDFilter
}

// ParseSelector reads a bridgeId query value; empty and "all" select everything
func ParseSelector(raw string) Selector {
	if raw == AllBridges {
		return Selector{}
	}
	return Selector{filter: ParseIDFilter(raw)}
}

// All reports whether the selector covers every bridge
func (s Selector) All() bool {
	_, set := s.filter.Value()
	return !set
}

// ID returns the selected bridge identifier, empty when All
func (s Selector) ID() string {
	id, _ := s.filter.Value()
	return id
}
