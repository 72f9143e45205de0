package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/enterprise/stalwart-gateway/internal/gateway"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Version is reported by the health endpoint and the tracing resource
var Version = "dev"

// Application represents the local gateway server
type Application struct {
	config *config.Config
	logger *logrus.Logger

	// Gateway resources
	resources *gateway.Set
	registry  *prometheus.Registry

	// HTTP servers
	apiServer *http.Server
	opsServer *http.Server

	// Observability
	tracerProvider *trace.TracerProvider

	// State management
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a new application instance
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Application, error) {
	app := &Application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	// Initialize observability
	if err := app.initializeObservability(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	// Initialize gateway resources
	resources, err := gateway.FromConfig(cfg, logger, app.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gateway: %w", err)
	}
	app.resources = resources

	// Initialize HTTP servers
	app.initializeHTTPServers()

	return app, nil
}

// Resources returns the gateway resource set
func (a *Application) Resources() *gateway.Set {
	return a.resources
}

// APIHandler returns the handler serving the gateway resources
func (a *Application) APIHandler() http.Handler {
	return a.apiServer.Handler
}

// OpsHandler returns the handler serving health, readiness and metrics
func (a *Application) OpsHandler() http.Handler {
	return a.opsServer.Handler
}

// Start starts the application
func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("Starting application components")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.serve(a.apiServer, a.config.Server.TLS)
	}()

	if a.config.Metrics.Enabled {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.serve(a.opsServer, config.TLSConfig{})
		}()
	}

	a.running.Store(true)
	a.logger.Info("Application started successfully")

	return nil
}

// Stop stops the application
func (a *Application) Stop(ctx context.Context) error {
	if !a.running.Load() {
		return nil
	}

	a.logger.Info("Stopping application")
	a.running.Store(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, srv := range []*http.Server{a.apiServer, a.opsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).WithField("address", srv.Addr).Error("Failed to shutdown HTTP server")
		}
	}

	if err := a.resources.Close(); err != nil {
		a.logger.WithError(err).Error("Failed to close backend")
	}

	a.shutdownObservability(ctx)

	a.wg.Wait()
	a.logger.Info("Application stopped")

	return nil
}

// initializeObservability sets up tracing
func (a *Application) initializeObservability(ctx context.Context) error {
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if !a.config.Tracing.Enabled {
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(a.config.Tracing.ServiceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(a.config.Tracing.Endpoint)))
	if err != nil {
		return fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	a.tracerProvider = trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(a.config.Tracing.SampleRate)),
	)
	otel.SetTracerProvider(a.tracerProvider)

	a.logger.WithField("endpoint", a.config.Tracing.Endpoint).Info("Tracing initialized")
	return nil
}

// initializeHTTPServers sets up the API and operations servers
func (a *Application) initializeHTTPServers() {
	gin.SetMode(a.config.Server.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogging())

	api := engine.Group("/api")
	functions := engine.Group("/.netlify/functions")
	for _, r := range a.resources.All() {
		handler := r.Gin()
		api.Any("/"+r.Name(), handler)
		functions.Any("/"+r.FunctionName(), handler)
	}
	engine.NoRoute(notFound)

	a.apiServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:      engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	metricsPath := a.config.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	router.HandleFunc("/ready", a.handleReady).Methods("GET")
	router.Handle(metricsPath, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})).Methods("GET")

	a.opsServer = &http.Server{
		Addr:         a.config.Metrics.Address,
		Handler:      router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
}

// serve runs one HTTP server until it is shut down
func (a *Application) serve(srv *http.Server, tls config.TLSConfig) {
	a.logger.WithField("address", srv.Addr).Info("Starting HTTP server")

	var err error
	if tls.Enabled {
		err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
	} else {
		err = srv.ListenAndServe()
	}

	if err != nil && err != http.ErrServerClosed {
		a.logger.WithError(err).WithField("address", srv.Addr).Error("HTTP server failed")
	}
}

// shutdownObservability shuts down observability components
func (a *Application) shutdownObservability(ctx context.Context) {
	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Error("Failed to shutdown tracer provider")
		}
	}
}

// requestLogging logs API requests
func requestLogging() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[STALWART-API] %v | %3d | %13v | %15s | %-7s %#v\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Method,
			param.Path,
		)
	})
}

func notFound(c *gin.Context) {
	for k, v := range gateway.Headers() {
		c.Header(k, v)
	}
	c.JSON(http.StatusNotFound, gateway.Envelope{Success: false, Error: "Not found"})
}

// handleHealth handles health checks
func (a *Application) handleHealth(w http.ResponseWriter, r *http.Request) {
	credentials := "configured"
	if err := a.config.Backend.CheckCredentials(); err != nil {
		credentials = "missing"
	}

	resources := make([]string, 0, len(a.resources.All()))
	for _, res := range a.resources.All() {
		resources = append(resources, res.Name())
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"backend": map[string]string{
			"driver":      a.config.Backend.Driver,
			"credentials": credentials,
		},
		"resources": resources,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleReady handles readiness checks
func (a *Application) handleReady(w http.ResponseWriter, r *http.Request) {
	if !a.running.Load() {
		http.Error(w, "Service not ready", http.StatusServiceUnavailable)
		return
	}

	ready := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ready)
}
