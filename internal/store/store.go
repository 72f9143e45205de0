// Package store reads bridge-health data from the relational backend.
// Every operation is a single read; nothing here writes.
package store

import (
	"context"
	"fmt"

	"github.com/enterprise/stalwart-gateway/internal/bridge"
	"github.com/enterprise/stalwart-gateway/internal/config"
	"github.com/sirupsen/logrus"
)

// Reader is the read-only view set every backend serves. List results are
// the backend's rows, unmodified.
type Reader interface {
	ListBridges(ctx context.Context) (bridge.Rows, error)
	ListSpans(ctx context.Context, filter bridge.IDFilter) (bridge.Rows, error)
	ListCszEvents(ctx context.Context) (bridge.Rows, error)
	ListAlerts(ctx context.Context) (bridge.Rows, error)
	CountBridges(ctx context.Context) (int, error)
	CountActiveAlerts(ctx context.Context) (int, error)
	Close() error
}

// Open creates the Reader for the configured driver. Credentials are
// checked first and nothing connects until the first query.
func Open(cfg config.BackendConfig, logger logrus.FieldLogger) (Reader, error) {
	if err := cfg.CheckCredentials(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case config.DriverPostgREST:
		return NewPostgREST(cfg, logger), nil
	case config.DriverPostgres:
		return OpenPostgres(cfg, logger)
	case config.DriverMemory:
		return NewSampleMemory(nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// viewReader adapts a backend that can render arbitrary views into a Reader
type viewReader struct {
	fetch func(ctx context.Context, v View, dest interface{}) error
	count func(ctx context.Context, v View) (int, error)
}

func (r viewReader) ListBridges(ctx context.Context) (bridge.Rows, error) {
	return r.rows(ctx, BridgesView())
}

func (r viewReader) ListSpans(ctx context.Context, filter bridge.IDFilter) (bridge.Rows, error) {
	return r.rows(ctx, SpansView(filter))
}

func (r viewReader) ListCszEvents(ctx context.Context) (bridge.Rows, error) {
	return r.rows(ctx, CszEventsView())
}

func (r viewReader) ListAlerts(ctx context.Context) (bridge.Rows, error) {
	return r.rows(ctx, AlertsView())
}

func (r viewReader) rows(ctx context.Context, v View) (bridge.Rows, error) {
	rows := bridge.Rows{}
	if err := r.fetch(ctx, v, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		// a literal null body
		rows = bridge.Rows{}
	}
	return rows, nil
}

func (r viewReader) CountBridges(ctx context.Context) (int, error) {
	return r.count(ctx, BridgesView())
}

func (r viewReader) CountActiveAlerts(ctx context.Context) (int, error) {
	return r.count(ctx, ActiveAlertsView())
}
