package gateway

import (
	"fmt"
	"io"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/enterprise/stalwart-gateway/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Sources holds the data source behind each resource
type Sources struct {
	Bridges BridgeLister
	Spans   SpanLister
	Zones   EventLister
	Alerts  AlertLister
	Stats   Counter
	Metrics SnapshotReader
}

// Set is the full collection of gateway resources
type Set struct {
	resources []*Resource
	byName    map[string]*Resource
	closer    io.Closer
}

// NewSet builds every resource over sources
func NewSet(g *Gateway, src Sources) *Set {
	resources := []*Resource{
		g.Bridges(src.Bridges),
		g.Spans(src.Spans),
		g.Zones(src.Zones),
		g.Alerts(src.Alerts),
		g.Stats(src.Stats),
		g.Snapshots(src.Metrics),
		g.Health(src.Metrics),
	}

	s := &Set{
		resources: resources,
		byName:    make(map[string]*Resource, len(resources)*2),
	}
	for _, r := range resources {
		s.byName[r.Name()] = r
		s.byName[r.FunctionName()] = r
	}
	return s
}

// Get looks a resource up by resource name or function name
func (s *Set) Get(name string) (*Resource, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// All returns the resources in registration order
func (s *Set) All() []*Resource {
	out := make([]*Resource, len(s.resources))
	copy(out, s.resources)
	return out
}

// Close releases the backend behind the set
func (s *Set) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// FromConfig opens the configured backend and builds the resource set.
// Missing credentials do not fail the build: backend-backed resources
// report them on every invocation instead.
func FromConfig(cfg *config.Config, logger logrus.FieldLogger, registry prometheus.Registerer, opts ...Option) (*Set, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gateway: nil configuration")
	}

	reader, err := store.Open(cfg.Backend, logger)
	if err != nil {
		if !config.IsCredentialsMissing(err) {
			logger.WithError(err).WithField("driver", cfg.Backend.Driver).Warn("Backend unavailable")
		}
		reader = store.Unavailable{Err: err}
	}

	catalog := bridge.NewCatalog(nil)
	src := Sources{
		Bridges: catalog,
		Spans:   reader,
		Zones:   reader,
		Alerts:  catalog,
		Stats:   reader,
		Metrics: catalog,
	}
	if cfg.Sources.Bridges == config.SourceBackend {
		src.Bridges = reader
	}
	if cfg.Sources.Alerts == config.SourceBackend {
		src.Alerts = reader
	}

	base := []Option{
		WithLogger(logger),
		WithMetrics(NewMetrics(registry, cfg.Metrics.Namespace)),
	}
	set := NewSet(New(cfg.Backend, append(base, opts...)...), src)
	set.closer = reader
	return set, nil
}
