// Package gateway turns read-only bridge-health queries into uniform JSON
// responses with fixed cross-origin headers.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/enterprise/stalwart-gateway/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/enterprise/stalwart-gateway/internal/gateway"

// FetchFunc produces the data of one successful invocation. A nil result
// omits the data key from the envelope.
type FetchFunc func(ctx context.Context, req Request) (interface{}, error)

// Gateway holds the dependencies shared by every resource
type Gateway struct {
	backend config.BackendConfig
	metrics *Metrics
	logger  logrus.FieldLogger
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Gateway
type Option func(*Gateway)

// WithLogger sets the logger for failed invocations
func WithLogger(logger logrus.FieldLogger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithMetrics sets the Prometheus metrics
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// WithClock overrides the clock used for envelope timestamps
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a Gateway. The backend configuration is copied and checked on
// every invocation of a backend-backed resource.
func New(backend config.BackendConfig, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logrus.StandardLogger()
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(tracerName)
	}
	return g
}

// Resource is one named endpoint of the gateway
type Resource struct {
	gw       *Gateway
	name     string
	function string
	backed   bool
	fetch    FetchFunc
	// failKind overrides the metrics kind of fetch errors
	failKind string
}

// NewResource registers a fetch function under a resource name. backed
// resources require complete backend credentials before fetching.
func (g *Gateway) NewResource(name, function string, backed bool, fetch FetchFunc) *Resource {
	return &Resource{
		gw:       g,
		name:     name,
		function: function,
		backed:   backed,
		fetch:    fetch,
	}
}

// Name returns the resource name
func (r *Resource) Name() string { return r.name }

// FunctionName returns the serverless function name
func (r *Resource) FunctionName() string { return r.function }

// Backed reports whether the resource reads from the backend
func (r *Resource) Backed() bool { return r.backed }

// Handle serves one invocation
func (r *Resource) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, span := r.gw.tracer.Start(ctx, "gateway."+r.name, trace.WithAttributes(
		attribute.String("gateway.resource", r.name),
		attribute.String("gateway.request_id", req.RequestID),
		attribute.String("http.method", req.Method),
	))
	defer span.End()

	resp := r.handle(ctx, req, span)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	r.gw.metrics.RecordRequest(r.name, resp.StatusCode, time.Since(start).Seconds())
	return resp
}

func (r *Resource) handle(ctx context.Context, req Request, span trace.Span) Response {
	if req.Method == http.MethodOptions {
		return preflight()
	}

	if r.backed {
		if err := r.gw.backend.CheckCredentials(); err != nil {
			return r.fail(req, span, KindConfiguration, err)
		}
	}

	data, err := r.fetch(ctx, req)
	if err != nil {
		kind := KindQuery
		if r.failKind != "" {
			kind = r.failKind
		}
		return r.fail(req, span, kind, err)
	}

	body, err := json.Marshal(Envelope{
		Success:   true,
		Data:      data,
		Timestamp: bridge.Timestamp(r.gw.now()),
	})
	if err != nil {
		return r.fail(req, span, KindEncode, err)
	}

	return Response{
		StatusCode: http.StatusOK,
		Headers:    Headers(),
		Body:       string(body),
	}
}

func (r *Resource) fail(req Request, span trace.Span, kind string, err error) Response {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	r.gw.metrics.IncBackendErrors(r.name, kind)

	entry := r.gw.logger.WithError(err).WithFields(logrus.Fields{
		"resource":   r.name,
		"request_id": req.RequestID,
		"kind":       kind,
		"status":     http.StatusInternalServerError,
	})
	var queryErr *store.QueryError
	if errors.As(err, &queryErr) {
		entry = entry.WithField("detail", queryErr.Detail())
	}
	entry.Error("Gateway invocation failed")

	// Failure envelopes hold only strings and cannot fail to encode
	body, _ := json.Marshal(Envelope{Success: false, Error: err.Error()})
	return Response{
		StatusCode: http.StatusInternalServerError,
		Headers:    Headers(),
		Body:       string(body),
	}
}
